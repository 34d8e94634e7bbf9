package blackmorass

import (
	"time"

	"github.com/l1jgo/encounter/internal/core/sched"
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// damageShield lowers the shield. At zero the controlling NPC dies in four
// timed steps, the last of which cancels all remaining work.
func (i *Instance) damageShield(amount uint32) {
	if i.shieldPercent <= 0 {
		return
	}

	if int64(amount) >= int64(i.shieldPercent) {
		i.shieldPercent = 0
	} else {
		i.shieldPercent -= int32(amount)
	}
	i.DoUpdateWorldState(WorldStateBMShield, uint32(i.shieldPercent))

	if i.shieldPercent > 0 {
		return
	}

	medivh := i.GetCreature(DataMedivh)
	if medivh == nil || !medivh.IsAlive() || !medivh.IsAIEnabled() {
		return
	}
	i.log.Info("shield broken")

	medivh.SetImmuneToNPC(true)
	medivh.Talk(SayMedivhDeath)
	i.forEachTracked(func(c script.Creature) {
		c.InterruptNonMeleeSpells()
	})

	i.sched.Schedule(4*time.Second, sched.NoGroup, task{step: stepStripAuras})
}

func (i *Instance) stripAuras() {
	if medivh := i.GetCreature(DataMedivh); medivh != nil {
		medivh.RemoveAllAuras()
	}
	i.sched.Schedule(500*time.Millisecond, sched.NoGroup, task{step: stepKillMedivh})
}

func (i *Instance) killMedivh() {
	if medivh := i.GetCreature(DataMedivh); medivh != nil {
		medivh.KillSelf()
		i.despawnEncounterNPCs(NpcTimeRift, NpcDPEmitterStalker, NpcDPCrystalStalker, NpcDPBeamStalker)
	}
	i.sched.Schedule(2*time.Second, sched.NoGroup, task{step: stepTeleportOut})
}

func (i *Instance) teleportOut() {
	i.forEachTracked(func(c script.Creature) {
		c.CastSpell(c, SpellTeleportVisual, true)
		c.DespawnOrUnsummon(1200*time.Millisecond, 0)
	})
	i.sched.CancelAll()
	i.log.Info("encounter failed, summons teleported out", zap.Uint32("rift", i.currentRift))
}

func (i *Instance) forEachTracked(fn func(script.Creature)) {
	for _, guid := range i.trackedGUIDs() {
		if c := i.Map.Creature(guid); c != nil {
			fn(c)
		}
	}
}
