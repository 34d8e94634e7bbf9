package blackmorass

import (
	"math"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/core/sched"
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

const groupRifts sched.Group = 1

type step int

const (
	stepOpenRift step = iota
	stepSummonKeeper
	stepStripAuras
	stepKillMedivh
	stepTeleportOut
)

func (s step) String() string {
	switch s {
	case stepOpenRift:
		return "open_rift"
	case stepSummonKeeper:
		return "summon_keeper"
	case stepStripAuras:
		return "strip_auras"
	case stepKillMedivh:
		return "kill_medivh"
	case stepTeleportOut:
		return "teleport_out"
	default:
		return "unknown"
	}
}

// task is the scheduler payload: a named step plus the rift it concerns.
type task struct {
	step step
	rift ecs.EntityID
}

func (i *Instance) fire(ctx *sched.Context[task]) {
	t := ctx.Payload()
	switch t.step {
	case stepOpenRift:
		i.openRift(ctx)
	case stepSummonKeeper:
		i.SummonPortalKeeper(i.Map.Creature(t.rift))
	case stepStripAuras:
		i.stripAuras()
	case stepKillMedivh:
		i.killMedivh()
	case stepTeleportOut:
		i.teleportOut()
	}
}

// ScheduleNextPortal replaces any pending rift chain with one firing after delay.
func (i *Instance) ScheduleNextPortal(delay time.Duration) {
	i.sched.CancelGroup(groupRifts)
	i.sched.Schedule(delay, groupRifts, task{step: stepOpenRift})
}

// nextPortalDelay is the cadence between rifts: slower near the end, and a
// quick retry while every position is taken.
func (i *Instance) nextPortalDelay() time.Duration {
	if len(i.riftPool) == 0 {
		return 4 * time.Second
	}
	return i.cadence()
}

func (i *Instance) cadence() time.Duration {
	if i.currentRift >= slowCadenceAt {
		return 2 * time.Minute
	}
	return 90 * time.Second
}

func (i *Instance) openRift(ctx *sched.Context[task]) {
	medivh := i.GetCreature(DataMedivh)
	if medivh == nil || !medivh.IsAlive() || i.currentRift >= maxRifts {
		return
	}

	if pos, ok := i.takeRiftPosition(); ok {
		i.currentRift++
		i.DoUpdateWorldState(WorldStateBMRift, i.currentRift)

		if rift := i.Map.SummonCreature(NpcTimeRift, pos); rift != nil {
			i.sched.Schedule(6*time.Second, sched.NoGroup, task{step: stepSummonKeeper, rift: rift.GUID()})
			i.log.Debug("time rift opened",
				zap.Uint32("rift", i.currentRift),
				zap.Stringer("guid", rift.GUID()),
				zap.Float64("x", pos.X),
				zap.Float64("y", pos.Y),
			)
		}
	}

	if i.currentRift < maxRifts {
		ctx.Repeat(i.nextPortalDelay())
	}
}

// takeRiftPosition removes a uniformly chosen free position from the pool.
func (i *Instance) takeRiftPosition() (script.Position, bool) {
	if len(i.riftPool) == 0 {
		return script.Position{}, false
	}
	idx := i.Map.Rand().Intn(len(i.riftPool))
	pos := i.riftPool[idx]
	i.riftPool = append(i.riftPool[:idx], i.riftPool[idx+1:]...)
	return pos, true
}

// returnRiftPosition puts a rift's home back into the pool. Only canonical
// positions are accepted and never twice.
func (i *Instance) returnRiftPosition(pos script.Position) {
	if len(i.riftPool) >= len(riftPositions) {
		return
	}
	canonical := false
	for _, p := range riftPositions {
		if p == pos {
			canonical = true
			break
		}
	}
	if !canonical {
		return
	}
	for _, p := range i.riftPool {
		if p == pos {
			return
		}
	}
	i.riftPool = append(i.riftPool, pos)
}

func (i *Instance) onRiftRemoved(rift script.Creature) {
	if i.currentRift < maxRifts && i.shieldPercent > 0 {
		// 1-2 free slots: other rifts are still open, keep the normal pace.
		if free := len(i.riftPool); free > 0 && free < 3 {
			i.ScheduleNextPortal(i.cadence())
		} else {
			i.ScheduleNextPortal(4 * time.Second)
		}
	}
	i.returnRiftPosition(rift.HomePosition())
}

// SummonPortalKeeper releases the creature guarding a rift. Rifts 6 and 12
// bring the sub-bosses (or a reskin once beaten), rift 18 the final boss.
func (i *Instance) SummonPortalKeeper(rift script.Creature) {
	if rift == nil {
		return
	}

	var entry uint32
	noLoot := false
	switch i.currentRift {
	case 6:
		entry, noLoot = i.subBossEntry(DataChronoLordDeja, NpcChronoLordDeja, NpcInfiniteChronoLord)
	case 12:
		entry, noLoot = i.subBossEntry(DataTemporus, NpcTemporus, NpcInfiniteTimereaver)
	case maxRifts:
		entry = NpcAeonus
	default:
		entry = riftGuards[i.Map.Rand().Intn(len(riftGuards))]
	}

	pos := rift.NearPosition(keeperDistance, 2*math.Pi*i.Map.Rand().Float64())
	summon := rift.SummonCreature(entry, pos, script.SummonCorpseTimedDespawn, 3*time.Minute)
	if summon == nil {
		return
	}
	if noLoot {
		summon.SetLootMode(script.LootModeNone)
	}

	if summon.Entry() != NpcAeonus {
		rift.CastSpell(summon, SpellRiftChannel, false)
	} else {
		summon.SetReactState(script.ReactDefensive)
		i.sched.CancelGroup(groupRifts)
	}
	i.log.Debug("rift keeper summoned",
		zap.Uint32("rift", i.currentRift),
		zap.Uint32("entry", entry),
		zap.Bool("no_loot", noLoot),
	)
}

// subBossEntry picks the named boss, or its replacement once the boss is
// done: a distinct elite on heroic, the same boss without loot otherwise.
func (i *Instance) subBossEntry(bossID, boss, heroicReplacement uint32) (uint32, bool) {
	if i.BossState(bossID) != script.Done {
		return boss, false
	}
	if i.Map.IsHeroic() {
		return heroicReplacement, false
	}
	return boss, true
}
