package ir

import "fmt"

// ActionType is the opcode of a rule's action.
type ActionType uint32

const (
	ActionNone                           ActionType = 0
	ActionTalk                           ActionType = 1
	ActionSetFaction                     ActionType = 2
	ActionMorphToEntryOrModel            ActionType = 3
	ActionSound                          ActionType = 4
	ActionPlayEmote                      ActionType = 5
	ActionFailQuest                      ActionType = 6
	ActionOfferQuest                     ActionType = 7
	ActionSetReactState                  ActionType = 8
	ActionActivateGObject                ActionType = 9
	ActionRandomEmote                    ActionType = 10
	ActionCast                           ActionType = 11
	ActionSummonCreature                 ActionType = 12
	ActionThreatSinglePct                ActionType = 13
	ActionThreatAllPct                   ActionType = 14
	ActionCallAreaExploredOrEventHappens ActionType = 15
	ActionSetIngamePhaseGroup            ActionType = 16
	ActionSetEmoteState                  ActionType = 17
	ActionSetUnitFlag                    ActionType = 18
	ActionRemoveUnitFlag                 ActionType = 19
	ActionAutoAttack                     ActionType = 20
	ActionAllowCombatMovement            ActionType = 21
	ActionSetEventPhase                  ActionType = 22
	ActionIncEventPhase                  ActionType = 23
	ActionEvade                          ActionType = 24
	ActionFleeForAssist                  ActionType = 25
	ActionCallGroupEventHappens          ActionType = 26
	ActionCombatStop                     ActionType = 27
	ActionRemoveAurasFromSpell           ActionType = 28
	ActionFollow                         ActionType = 29
	ActionRandomPhase                    ActionType = 30
	ActionRandomPhaseRange               ActionType = 31
	ActionResetGObject                   ActionType = 32
	ActionCallKilledMonster              ActionType = 33
	ActionSetInstData                    ActionType = 34
	ActionSetInstData64                  ActionType = 35
	ActionUpdateTemplate                 ActionType = 36
	ActionDie                            ActionType = 37
	ActionSetInCombatWithZone            ActionType = 38
	ActionCallForHelp                    ActionType = 39
	ActionSetSheath                      ActionType = 40
	ActionForceDespawn                   ActionType = 41
	ActionSetInvincibilityHPLevel        ActionType = 42
	ActionMountToEntryOrModel            ActionType = 43
	ActionSetIngamePhaseID               ActionType = 44
	ActionSetData                        ActionType = 45
	ActionAttackStop                     ActionType = 46
	ActionSetVisibility                  ActionType = 47
	ActionSetActive                      ActionType = 48
	ActionAttackStart                    ActionType = 49
	ActionSummonGO                       ActionType = 50
	ActionKillUnit                       ActionType = 51
	ActionActivateTaxi                   ActionType = 52
	ActionWPStart                        ActionType = 53
	ActionWPPause                        ActionType = 54
	ActionWPStop                         ActionType = 55
	ActionAddItem                        ActionType = 56
	ActionRemoveItem                     ActionType = 57
	ActionInstallAITemplate              ActionType = 58
	ActionSetRun                         ActionType = 59
	ActionSetDisableGravity              ActionType = 60
	ActionSetSwim                        ActionType = 61
	ActionTeleport                       ActionType = 62
	ActionSetCounter                     ActionType = 63
	ActionStoreTargetList                ActionType = 64
	ActionWPResume                       ActionType = 65
	ActionSetOrientation                 ActionType = 66
	ActionCreateTimedEvent               ActionType = 67
	ActionPlayMovie                      ActionType = 68
	ActionMoveToPos                      ActionType = 69
	ActionEnableTempGObj                 ActionType = 70
	ActionEquip                          ActionType = 71
	ActionCloseGossip                    ActionType = 72
	ActionTriggerTimedEvent              ActionType = 73
	ActionRemoveTimedEvent               ActionType = 74
	ActionAddAura                        ActionType = 75
	ActionOverrideScriptBaseObject       ActionType = 76
	ActionResetScriptBaseObject          ActionType = 77
	ActionCallScriptReset                ActionType = 78
	ActionSetRangedMovement              ActionType = 79
	ActionCallTimedActionList            ActionType = 80
	ActionSetNPCFlag                     ActionType = 81
	ActionAddNPCFlag                     ActionType = 82
	ActionRemoveNPCFlag                  ActionType = 83
	ActionSimpleTalk                     ActionType = 84
	ActionSelfCast                       ActionType = 85
	ActionCrossCast                      ActionType = 86
	ActionCallRandomTimedActionList      ActionType = 87
	ActionCallRandomRangeTimedActionList ActionType = 88
	ActionRandomMove                     ActionType = 89
	ActionSetUnitFieldBytes1             ActionType = 90
	ActionRemoveUnitFieldBytes1          ActionType = 91
	ActionInterruptSpell                 ActionType = 92
	ActionSendGOCustomAnim               ActionType = 93
	ActionSetDynamicFlag                 ActionType = 94
	ActionAddDynamicFlag                 ActionType = 95
	ActionRemoveDynamicFlag              ActionType = 96
	ActionJumpToPos                      ActionType = 97
	ActionSendGossipMenu                 ActionType = 98
	ActionGOSetLootState                 ActionType = 99
	ActionSendTargetToTarget             ActionType = 100
	ActionSetHomePos                     ActionType = 101
	ActionSetHealthRegen                 ActionType = 102
	ActionSetRoot                        ActionType = 103
	ActionSetGOFlag                      ActionType = 104
	ActionAddGOFlag                      ActionType = 105
	ActionRemoveGOFlag                   ActionType = 106
	ActionSummonCreatureGroup            ActionType = 107
	ActionSetPower                       ActionType = 108
	ActionAddPower                       ActionType = 109
	ActionRemovePower                    ActionType = 110
	ActionGameEventStop                  ActionType = 111
	ActionGameEventStart                 ActionType = 112
	ActionStartClosestWaypoint           ActionType = 113
	ActionMoveOffset                     ActionType = 114
	ActionRandomSound                    ActionType = 115
	ActionSetCorpseDelay                 ActionType = 116
	ActionDisableEvade                   ActionType = 117
	ActionGOSetGOState                   ActionType = 118
	ActionSetCanFly                      ActionType = 119
	ActionRemoveAurasByType              ActionType = 120
	ActionSetSightDist                   ActionType = 121
	ActionFlee                           ActionType = 122
	ActionAddThreat                      ActionType = 123
	ActionLoadEquipment                  ActionType = 124
	ActionTriggerRandomTimedEvent        ActionType = 125
	ActionRemoveAllGameObjects           ActionType = 126
	ActionPauseMovement                  ActionType = 127
	ActionPlayAnimKit                    ActionType = 128
	ActionScenePlay                      ActionType = 129
	ActionSceneCancel                    ActionType = 130
	ActionSpawnSpawnGroup                ActionType = 131
	ActionDespawnSpawnGroup              ActionType = 132
	ActionRespawnBySpawnID               ActionType = 133
	ActionInvokerCast                    ActionType = 134
	ActionPlayCinematic                  ActionType = 135
	ActionSetMovementSpeed               ActionType = 136
	ActionPlaySpellVisualKit             ActionType = 137
	ActionOverrideLight                  ActionType = 138
	ActionOverrideWeather                ActionType = 139
	ActionSetAIAnimKit                   ActionType = 140
	ActionSetHover                       ActionType = 141
	ActionSetHealthPct                   ActionType = 142
	ActionCreateConversation             ActionType = 143
	ActionSetImmunePC                    ActionType = 144
	ActionSetImmuneNPC                   ActionType = 145
	ActionSetUninteractible              ActionType = 146
	ActionActivateGameObject             ActionType = 147
	ActionAddToStoredTargetList          ActionType = 148
	ActionBecomePersonalCloneForPlayer   ActionType = 149
	ActionTriggerGameEvent               ActionType = 150
	ActionDoAction                       ActionType = 151

	// ActionTypeCount is one past the highest opcode.
	ActionTypeCount ActionType = 152
)

var actionTypeNames = [ActionTypeCount]string{
	ActionNone:                           "none",
	ActionTalk:                           "talk",
	ActionSetFaction:                     "set_faction",
	ActionMorphToEntryOrModel:            "morph_to_entry_or_model",
	ActionSound:                          "sound",
	ActionPlayEmote:                      "play_emote",
	ActionFailQuest:                      "fail_quest",
	ActionOfferQuest:                     "offer_quest",
	ActionSetReactState:                  "set_react_state",
	ActionActivateGObject:                "activate_gobject",
	ActionRandomEmote:                    "random_emote",
	ActionCast:                           "cast",
	ActionSummonCreature:                 "summon_creature",
	ActionThreatSinglePct:                "threat_single_pct",
	ActionThreatAllPct:                   "threat_all_pct",
	ActionCallAreaExploredOrEventHappens: "call_areaexploredoreventhappens",
	ActionSetIngamePhaseGroup:            "set_ingame_phase_group",
	ActionSetEmoteState:                  "set_emote_state",
	ActionSetUnitFlag:                    "set_unit_flag",
	ActionRemoveUnitFlag:                 "remove_unit_flag",
	ActionAutoAttack:                     "auto_attack",
	ActionAllowCombatMovement:            "allow_combat_movement",
	ActionSetEventPhase:                  "set_event_phase",
	ActionIncEventPhase:                  "inc_event_phase",
	ActionEvade:                          "evade",
	ActionFleeForAssist:                  "flee_for_assist",
	ActionCallGroupEventHappens:          "call_groupeventhappens",
	ActionCombatStop:                     "combat_stop",
	ActionRemoveAurasFromSpell:           "removeaurasfromspell",
	ActionFollow:                         "follow",
	ActionRandomPhase:                    "random_phase",
	ActionRandomPhaseRange:               "random_phase_range",
	ActionResetGObject:                   "reset_gobject",
	ActionCallKilledMonster:              "call_killedmonster",
	ActionSetInstData:                    "set_inst_data",
	ActionSetInstData64:                  "set_inst_data64",
	ActionUpdateTemplate:                 "update_template",
	ActionDie:                            "die",
	ActionSetInCombatWithZone:            "set_in_combat_with_zone",
	ActionCallForHelp:                    "call_for_help",
	ActionSetSheath:                      "set_sheath",
	ActionForceDespawn:                   "force_despawn",
	ActionSetInvincibilityHPLevel:        "set_invincibility_hp_level",
	ActionMountToEntryOrModel:            "mount_to_entry_or_model",
	ActionSetIngamePhaseID:               "set_ingame_phase_id",
	ActionSetData:                        "set_data",
	ActionAttackStop:                     "attack_stop",
	ActionSetVisibility:                  "set_visibility",
	ActionSetActive:                      "set_active",
	ActionAttackStart:                    "attack_start",
	ActionSummonGO:                       "summon_go",
	ActionKillUnit:                       "kill_unit",
	ActionActivateTaxi:                   "activate_taxi",
	ActionWPStart:                        "wp_start",
	ActionWPPause:                        "wp_pause",
	ActionWPStop:                         "wp_stop",
	ActionAddItem:                        "add_item",
	ActionRemoveItem:                     "remove_item",
	ActionInstallAITemplate:              "install_ai_template",
	ActionSetRun:                         "set_run",
	ActionSetDisableGravity:              "set_disable_gravity",
	ActionSetSwim:                        "set_swim",
	ActionTeleport:                       "teleport",
	ActionSetCounter:                     "set_counter",
	ActionStoreTargetList:                "store_target_list",
	ActionWPResume:                       "wp_resume",
	ActionSetOrientation:                 "set_orientation",
	ActionCreateTimedEvent:               "create_timed_event",
	ActionPlayMovie:                      "playmovie",
	ActionMoveToPos:                      "move_to_pos",
	ActionEnableTempGObj:                 "enable_temp_gobj",
	ActionEquip:                          "equip",
	ActionCloseGossip:                    "close_gossip",
	ActionTriggerTimedEvent:              "trigger_timed_event",
	ActionRemoveTimedEvent:               "remove_timed_event",
	ActionAddAura:                        "add_aura",
	ActionOverrideScriptBaseObject:       "override_script_base_object",
	ActionResetScriptBaseObject:          "reset_script_base_object",
	ActionCallScriptReset:                "call_script_reset",
	ActionSetRangedMovement:              "set_ranged_movement",
	ActionCallTimedActionList:            "call_timed_actionlist",
	ActionSetNPCFlag:                     "set_npc_flag",
	ActionAddNPCFlag:                     "add_npc_flag",
	ActionRemoveNPCFlag:                  "remove_npc_flag",
	ActionSimpleTalk:                     "simple_talk",
	ActionSelfCast:                       "self_cast",
	ActionCrossCast:                      "cross_cast",
	ActionCallRandomTimedActionList:      "call_random_timed_actionlist",
	ActionCallRandomRangeTimedActionList: "call_random_range_timed_actionlist",
	ActionRandomMove:                     "random_move",
	ActionSetUnitFieldBytes1:             "set_unit_field_bytes_1",
	ActionRemoveUnitFieldBytes1:          "remove_unit_field_bytes_1",
	ActionInterruptSpell:                 "interrupt_spell",
	ActionSendGOCustomAnim:               "send_go_custom_anim",
	ActionSetDynamicFlag:                 "set_dynamic_flag",
	ActionAddDynamicFlag:                 "add_dynamic_flag",
	ActionRemoveDynamicFlag:              "remove_dynamic_flag",
	ActionJumpToPos:                      "jump_to_pos",
	ActionSendGossipMenu:                 "send_gossip_menu",
	ActionGOSetLootState:                 "go_set_loot_state",
	ActionSendTargetToTarget:             "send_target_to_target",
	ActionSetHomePos:                     "set_home_pos",
	ActionSetHealthRegen:                 "set_health_regen",
	ActionSetRoot:                        "set_root",
	ActionSetGOFlag:                      "set_go_flag",
	ActionAddGOFlag:                      "add_go_flag",
	ActionRemoveGOFlag:                   "remove_go_flag",
	ActionSummonCreatureGroup:            "summon_creature_group",
	ActionSetPower:                       "set_power",
	ActionAddPower:                       "add_power",
	ActionRemovePower:                    "remove_power",
	ActionGameEventStop:                  "game_event_stop",
	ActionGameEventStart:                 "game_event_start",
	ActionStartClosestWaypoint:           "start_closest_waypoint",
	ActionMoveOffset:                     "move_offset",
	ActionRandomSound:                    "random_sound",
	ActionSetCorpseDelay:                 "set_corpse_delay",
	ActionDisableEvade:                   "disable_evade",
	ActionGOSetGOState:                   "go_set_go_state",
	ActionSetCanFly:                      "set_can_fly",
	ActionRemoveAurasByType:              "remove_auras_by_type",
	ActionSetSightDist:                   "set_sight_dist",
	ActionFlee:                           "flee",
	ActionAddThreat:                      "add_threat",
	ActionLoadEquipment:                  "load_equipment",
	ActionTriggerRandomTimedEvent:        "trigger_random_timed_event",
	ActionRemoveAllGameObjects:           "remove_all_gameobjects",
	ActionPauseMovement:                  "pause_movement",
	ActionPlayAnimKit:                    "play_animkit",
	ActionScenePlay:                      "scene_play",
	ActionSceneCancel:                    "scene_cancel",
	ActionSpawnSpawnGroup:                "spawn_spawngroup",
	ActionDespawnSpawnGroup:              "despawn_spawngroup",
	ActionRespawnBySpawnID:               "respawn_by_spawnid",
	ActionInvokerCast:                    "invoker_cast",
	ActionPlayCinematic:                  "play_cinematic",
	ActionSetMovementSpeed:               "set_movement_speed",
	ActionPlaySpellVisualKit:             "play_spell_visual_kit",
	ActionOverrideLight:                  "override_light",
	ActionOverrideWeather:                "override_weather",
	ActionSetAIAnimKit:                   "set_ai_anim_kit",
	ActionSetHover:                       "set_hover",
	ActionSetHealthPct:                   "set_health_pct",
	ActionCreateConversation:             "create_conversation",
	ActionSetImmunePC:                    "set_immune_pc",
	ActionSetImmuneNPC:                   "set_immune_npc",
	ActionSetUninteractible:              "set_uninteractible",
	ActionActivateGameObject:             "activate_gameobject",
	ActionAddToStoredTargetList:          "add_to_stored_target_list",
	ActionBecomePersonalCloneForPlayer:   "become_personal_clone_for_player",
	ActionTriggerGameEvent:               "trigger_game_event",
	ActionDoAction:                       "do_action",
}

func (t ActionType) String() string {
	if t < ActionTypeCount {
		return actionTypeNames[t]
	}
	return fmt.Sprintf("action(%d)", uint32(t))
}

// Known reports whether t is a defined opcode.
func (t ActionType) Known() bool { return t < ActionTypeCount }

// IsCast reports whether the opcode casts a spell and can ask to be retried.
func (t ActionType) IsCast() bool {
	return t == ActionCast || t == ActionSelfCast || t == ActionCrossCast || t == ActionInvokerCast
}

// ParseActionType maps a snake_case name back to its ActionType.
func ParseActionType(name string) (ActionType, bool) {
	for i, n := range actionTypeNames {
		if n == name {
			return ActionType(i), true
		}
	}
	return 0, false
}

// Cast flags carried in the second parameter of the cast opcodes.
const (
	CastInterruptPrevious uint32 = 0x01
	CastTriggered         uint32 = 0x02
	CastAuraNotPresent    uint32 = 0x20
	CastCombatMove        uint32 = 0x40
)
