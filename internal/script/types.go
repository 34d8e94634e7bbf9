package script

import (
	"fmt"
	"math"
)

// EncounterState is the persisted progress of one boss encounter.
type EncounterState int

const (
	NotStarted EncounterState = iota
	InProgress
	Fail
	Done
	Special
)

func (s EncounterState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case InProgress:
		return "InProgress"
	case Fail:
		return "Fail"
	case Done:
		return "Done"
	case Special:
		return "Special"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// QuestStatus mirrors the host quest log state for one quest.
type QuestStatus int

const (
	QuestNone QuestStatus = iota
	QuestIncomplete
	QuestComplete
	QuestRewarded
)

// ReactState controls how a creature responds to hostiles.
type ReactState int

const (
	ReactPassive ReactState = iota
	ReactDefensive
	ReactAggressive
)

// SummonType selects the despawn policy of a summoned creature.
type SummonType int

const (
	SummonManualDespawn SummonType = iota
	SummonTimedDespawn
	SummonCorpseTimedDespawn // despawn duration starts when the summon dies
)

// NpcFlag bits exposed to clients (interaction capabilities).
type NpcFlag uint32

const (
	NpcFlagGossip     NpcFlag = 0x01
	NpcFlagQuestGiver NpcFlag = 0x02
)

// UnitFlag bits controlling combat interaction.
type UnitFlag uint32

const (
	UnitFlagNonAttackable UnitFlag = 0x02
	UnitFlagImmuneToNPC   UnitFlag = 0x200
)

// MotionType identifies the movement generator that finished in MovementInform.
type MotionType uint32

const (
	MotionIdle   MotionType = 0
	MotionPoint  MotionType = 8
	MotionEffect MotionType = 16 // knockback / jump
)

// GossipIcon is the icon shown next to a gossip option.
type GossipIcon uint8

const (
	GossipIconChat GossipIcon = 0
)

const (
	GossipSenderMain    uint32 = 1
	GossipActionInfoDef uint32 = 1000
	LootModeDefault     uint16 = 1
	LootModeNone        uint16 = 0
)

// Position is a world coordinate plus facing (radians).
type Position struct {
	X, Y, Z, O float64
}

// Near returns the point dist yards away along angle (absolute radians), keeping Z.
func (p Position) Near(dist, angle float64) Position {
	return Position{
		X: p.X + dist*math.Cos(angle),
		Y: p.Y + dist*math.Sin(angle),
		Z: p.Z,
		O: angle,
	}
}

// Dist2D returns the planar distance to q.
func (p Position) Dist2D(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
