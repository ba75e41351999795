package ir

import "fmt"

// TargetType is the selector kind of a rule's target.
type TargetType uint32

const (
	TargetNone                       TargetType = 0
	TargetSelf                       TargetType = 1
	TargetVictim                     TargetType = 2
	TargetHostileSecondAggro         TargetType = 3
	TargetHostileLastAggro           TargetType = 4
	TargetHostileRandom              TargetType = 5
	TargetHostileRandomNotTop        TargetType = 6
	TargetActionInvoker              TargetType = 7
	TargetPosition                   TargetType = 8
	TargetCreatureRange              TargetType = 9
	TargetCreatureGUID               TargetType = 10
	TargetCreatureDistance           TargetType = 11
	TargetStored                     TargetType = 12
	TargetGameObjectRange            TargetType = 13
	TargetGameObjectGUID             TargetType = 14
	TargetGameObjectDistance         TargetType = 15
	TargetInvokerParty               TargetType = 16
	TargetPlayerRange                TargetType = 17
	TargetPlayerDistance             TargetType = 18
	TargetClosestCreature            TargetType = 19
	TargetClosestGameObject          TargetType = 20
	TargetClosestPlayer              TargetType = 21
	TargetActionInvokerVehicle       TargetType = 22
	TargetOwnerOrSummoner            TargetType = 23
	TargetThreatList                 TargetType = 24
	TargetClosestEnemy               TargetType = 25
	TargetClosestFriendly            TargetType = 26
	TargetLootRecipients             TargetType = 27
	TargetFarthest                   TargetType = 28
	TargetVehiclePassenger           TargetType = 29
	TargetClosestUnspawnedGameObject TargetType = 30
	TargetHostileTopAggro            TargetType = 31

	// TargetTypeCount is one past the highest selector.
	TargetTypeCount TargetType = 32
)

var targetTypeNames = [TargetTypeCount]string{
	TargetNone:                       "none",
	TargetSelf:                       "self",
	TargetVictim:                     "victim",
	TargetHostileSecondAggro:         "hostile_second_aggro",
	TargetHostileLastAggro:           "hostile_last_aggro",
	TargetHostileRandom:              "hostile_random",
	TargetHostileRandomNotTop:        "hostile_random_not_top",
	TargetActionInvoker:              "action_invoker",
	TargetPosition:                   "position",
	TargetCreatureRange:              "creature_range",
	TargetCreatureGUID:               "creature_guid",
	TargetCreatureDistance:           "creature_distance",
	TargetStored:                     "stored",
	TargetGameObjectRange:            "gameobject_range",
	TargetGameObjectGUID:             "gameobject_guid",
	TargetGameObjectDistance:         "gameobject_distance",
	TargetInvokerParty:               "invoker_party",
	TargetPlayerRange:                "player_range",
	TargetPlayerDistance:             "player_distance",
	TargetClosestCreature:            "closest_creature",
	TargetClosestGameObject:          "closest_gameobject",
	TargetClosestPlayer:              "closest_player",
	TargetActionInvokerVehicle:       "action_invoker_vehicle",
	TargetOwnerOrSummoner:            "owner_or_summoner",
	TargetThreatList:                 "threat_list",
	TargetClosestEnemy:               "closest_enemy",
	TargetClosestFriendly:            "closest_friendly",
	TargetLootRecipients:             "loot_recipients",
	TargetFarthest:                   "farthest",
	TargetVehiclePassenger:           "vehicle_passenger",
	TargetClosestUnspawnedGameObject: "closest_unspawned_gameobject",
	TargetHostileTopAggro:            "hostile_top_aggro",
}

func (t TargetType) String() string {
	if t < TargetTypeCount {
		return targetTypeNames[t]
	}
	return fmt.Sprintf("target(%d)", uint32(t))
}

// Known reports whether t is a defined selector.
func (t TargetType) Known() bool { return t < TargetTypeCount }

// ParseTargetType maps a snake_case name back to its TargetType.
func ParseTargetType(name string) (TargetType, bool) {
	for i, n := range targetTypeNames {
		if n == name {
			return TargetType(i), true
		}
	}
	return 0, false
}
