package ir

import "fmt"

// EventType is the trigger condition category of a rule.
type EventType uint32

const (
	EventUpdateIC              EventType = 0
	EventUpdateOOC             EventType = 1
	EventHealthPct             EventType = 2
	EventManaPct               EventType = 3
	EventAggro                 EventType = 4
	EventKill                  EventType = 5
	EventDeath                 EventType = 6
	EventEvade                 EventType = 7
	EventSpellHit              EventType = 8
	EventRange                 EventType = 9
	EventOOCLos                EventType = 10
	EventRespawn               EventType = 11
	EventTargetHealthPct       EventType = 12
	EventVictimCasting         EventType = 13
	EventFriendlyHealth        EventType = 14
	EventFriendlyIsCC          EventType = 15
	EventFriendlyMissingBuff   EventType = 16
	EventSummonedUnit          EventType = 17
	EventTargetManaPct         EventType = 18
	EventAcceptedQuest         EventType = 19
	EventRewardQuest           EventType = 20
	EventReachedHome           EventType = 21
	EventReceiveEmote          EventType = 22
	EventHasAura               EventType = 23
	EventTargetBuffed          EventType = 24
	EventReset                 EventType = 25
	EventICLos                 EventType = 26
	EventPassengerBoarded      EventType = 27
	EventPassengerRemoved      EventType = 28
	EventCharmed               EventType = 29
	EventCharmedTarget         EventType = 30
	EventSpellHitTarget        EventType = 31
	EventDamaged               EventType = 32
	EventDamagedTarget         EventType = 33
	EventMovementInform        EventType = 34
	EventSummonDespawned       EventType = 35
	EventCorpseRemoved         EventType = 36
	EventAIInit                EventType = 37
	EventDataSet               EventType = 38
	EventWaypointStart         EventType = 39
	EventWaypointReached       EventType = 40
	EventTransportAddPlayer    EventType = 41
	EventTransportAddCreature  EventType = 42
	EventTransportRemovePlayer EventType = 43
	EventTransportRelocate     EventType = 44
	EventInstancePlayerEnter   EventType = 45
	EventAreaTriggerOnTrigger  EventType = 46
	EventQuestAccepted         EventType = 47
	EventQuestObjCompletion    EventType = 48
	EventQuestCompletion       EventType = 49
	EventQuestRewarded         EventType = 50
	EventQuestFail             EventType = 51
	EventTextOver              EventType = 52
	EventReceiveHeal           EventType = 53
	EventJustSummoned          EventType = 54
	EventWaypointPaused        EventType = 55
	EventWaypointResumed       EventType = 56
	EventWaypointStopped       EventType = 57
	EventWaypointEnded         EventType = 58
	EventTimedEventTriggered   EventType = 59
	EventUpdate                EventType = 60
	EventLink                  EventType = 61
	EventGossipSelect          EventType = 62
	EventJustCreated           EventType = 63
	EventGossipHello           EventType = 64
	EventFollowCompleted       EventType = 65
	EventPhaseChange           EventType = 66
	EventIsBehindTarget        EventType = 67
	EventGameEventStart        EventType = 68
	EventGameEventEnd          EventType = 69
	EventGOLootStateChanged    EventType = 70
	EventGOEventInform         EventType = 71
	EventActionDone            EventType = 72
	EventOnSpellClick          EventType = 73
	EventFriendlyHealthPct     EventType = 74
	EventDistanceCreature      EventType = 75
	EventDistanceGameObject    EventType = 76
	EventCounterSet            EventType = 77
	EventSceneStart            EventType = 78
	EventSceneTrigger          EventType = 79
	EventSceneCancel           EventType = 80
	EventSceneComplete         EventType = 81
	EventSummonedUnitDies      EventType = 82
	EventOnSpellCast           EventType = 83
	EventOnSpellFailed         EventType = 84
	EventOnSpellStart          EventType = 85
	EventOnDespawn             EventType = 86

	// EventTypeCount is one past the highest event type.
	EventTypeCount EventType = 87
)

var eventTypeNames = [EventTypeCount]string{
	EventUpdateIC:              "update_ic",
	EventUpdateOOC:             "update_ooc",
	EventHealthPct:             "health_pct",
	EventManaPct:               "mana_pct",
	EventAggro:                 "aggro",
	EventKill:                  "kill",
	EventDeath:                 "death",
	EventEvade:                 "evade",
	EventSpellHit:              "spellhit",
	EventRange:                 "range",
	EventOOCLos:                "ooc_los",
	EventRespawn:               "respawn",
	EventTargetHealthPct:       "target_health_pct",
	EventVictimCasting:         "victim_casting",
	EventFriendlyHealth:        "friendly_health",
	EventFriendlyIsCC:          "friendly_is_cc",
	EventFriendlyMissingBuff:   "friendly_missing_buff",
	EventSummonedUnit:          "summoned_unit",
	EventTargetManaPct:         "target_mana_pct",
	EventAcceptedQuest:         "accepted_quest",
	EventRewardQuest:           "reward_quest",
	EventReachedHome:           "reached_home",
	EventReceiveEmote:          "receive_emote",
	EventHasAura:               "has_aura",
	EventTargetBuffed:          "target_buffed",
	EventReset:                 "reset",
	EventICLos:                 "ic_los",
	EventPassengerBoarded:      "passenger_boarded",
	EventPassengerRemoved:      "passenger_removed",
	EventCharmed:               "charmed",
	EventCharmedTarget:         "charmed_target",
	EventSpellHitTarget:        "spellhit_target",
	EventDamaged:               "damaged",
	EventDamagedTarget:         "damaged_target",
	EventMovementInform:        "movementinform",
	EventSummonDespawned:       "summon_despawned",
	EventCorpseRemoved:         "corpse_removed",
	EventAIInit:                "ai_init",
	EventDataSet:               "data_set",
	EventWaypointStart:         "waypoint_start",
	EventWaypointReached:       "waypoint_reached",
	EventTransportAddPlayer:    "transport_addplayer",
	EventTransportAddCreature:  "transport_addcreature",
	EventTransportRemovePlayer: "transport_remove_player",
	EventTransportRelocate:     "transport_relocate",
	EventInstancePlayerEnter:   "instance_player_enter",
	EventAreaTriggerOnTrigger:  "areatrigger_ontrigger",
	EventQuestAccepted:         "quest_accepted",
	EventQuestObjCompletion:    "quest_obj_completion",
	EventQuestCompletion:       "quest_completion",
	EventQuestRewarded:         "quest_rewarded",
	EventQuestFail:             "quest_fail",
	EventTextOver:              "text_over",
	EventReceiveHeal:           "receive_heal",
	EventJustSummoned:          "just_summoned",
	EventWaypointPaused:        "waypoint_paused",
	EventWaypointResumed:       "waypoint_resumed",
	EventWaypointStopped:       "waypoint_stopped",
	EventWaypointEnded:         "waypoint_ended",
	EventTimedEventTriggered:   "timed_event_triggered",
	EventUpdate:                "update",
	EventLink:                  "link",
	EventGossipSelect:          "gossip_select",
	EventJustCreated:           "just_created",
	EventGossipHello:           "gossip_hello",
	EventFollowCompleted:       "follow_completed",
	EventPhaseChange:           "event_phase_change",
	EventIsBehindTarget:        "is_behind_target",
	EventGameEventStart:        "game_event_start",
	EventGameEventEnd:          "game_event_end",
	EventGOLootStateChanged:    "go_loot_state_changed",
	EventGOEventInform:         "go_event_inform",
	EventActionDone:            "action_done",
	EventOnSpellClick:          "on_spellclick",
	EventFriendlyHealthPct:     "friendly_health_pct",
	EventDistanceCreature:      "distance_creature",
	EventDistanceGameObject:    "distance_gameobject",
	EventCounterSet:            "counter_set",
	EventSceneStart:            "scene_start",
	EventSceneTrigger:          "scene_trigger",
	EventSceneCancel:           "scene_cancel",
	EventSceneComplete:         "scene_complete",
	EventSummonedUnitDies:      "summoned_unit_dies",
	EventOnSpellCast:           "on_spell_cast",
	EventOnSpellFailed:         "on_spell_failed",
	EventOnSpellStart:          "on_spell_start",
	EventOnDespawn:             "on_despawn",
}

func (t EventType) String() string {
	if t < EventTypeCount {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("event(%d)", uint32(t))
}

// Known reports whether t is a defined event type.
func (t EventType) Known() bool { return t < EventTypeCount }

// IsTimed reports whether the event is polled by the scheduler each tick
// rather than pushed by an external caller.
func (t EventType) IsTimed() bool {
	switch t {
	case EventUpdate, EventUpdateIC, EventUpdateOOC,
		EventHealthPct, EventManaPct, EventRange,
		EventTargetHealthPct, EventTargetManaPct, EventVictimCasting,
		EventFriendlyHealth, EventFriendlyIsCC, EventFriendlyMissingBuff,
		EventHasAura, EventTargetBuffed, EventIsBehindTarget,
		EventFriendlyHealthPct, EventDistanceCreature, EventDistanceGameObject:
		return true
	}
	return false
}

// ParseEventType maps a snake_case name back to its EventType.
func ParseEventType(name string) (EventType, bool) {
	for i, n := range eventTypeNames {
		if n == name {
			return EventType(i), true
		}
	}
	return 0, false
}
