// Package blackmorass scripts the timed-rift dungeon: rifts open one after
// another around the controlling NPC, each releasing a keeper, until the final
// boss arrives or the NPC's shield is worn down.
package blackmorass

import (
	"sort"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/core/sched"
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// Instance is the per-instance controller. Accessed only from the game loop.
type Instance struct {
	*script.Base

	log   *zap.Logger
	sched *sched.Scheduler[task]

	riftPool      []script.Position
	currentRift   uint32
	shieldPercent int32
	encounterNPCs map[ecs.EntityID]uint32 // guid → entry
}

// Register binds the controller to the dungeon map.
func Register(reg *script.Registry) error {
	return reg.AddInstanceScript(ScriptName, MapID, New)
}

// New is the registry factory.
func New(m script.InstanceMap, log *zap.Logger) script.InstanceScript {
	return newInstance(m, log)
}

func newInstance(m script.InstanceMap, log *zap.Logger) *Instance {
	inst := &Instance{
		Base:          script.NewBase(m, dataHeader, int(EncounterCount), objectData),
		log:           log,
		riftPool:      append(make([]script.Position, 0, len(riftPositions)), riftPositions[:]...),
		shieldPercent: 100,
		encounterNPCs: make(map[ecs.EntityID]uint32, 32),
	}
	inst.sched = sched.New(inst.fire)
	return inst
}

// CurrentRift returns the number of rifts opened in this attempt.
func (i *Instance) CurrentRift() uint32 { return i.currentRift }

// ShieldPercent returns the remaining shield of the controlling NPC.
func (i *Instance) ShieldPercent() int32 { return i.shieldPercent }

// AvailableRiftPositions returns a copy of the free rift positions.
func (i *Instance) AvailableRiftPositions() []script.Position {
	out := make([]script.Position, len(i.riftPool))
	copy(out, i.riftPool)
	return out
}

// Tracked reports whether guid belongs to the encounter.
func (i *Instance) Tracked(guid ecs.EntityID) bool {
	_, ok := i.encounterNPCs[guid]
	return ok
}

// CleanupInstance returns the encounter to its initial state.
func (i *Instance) CleanupInstance() {
	i.currentRift = 0
	i.shieldPercent = 100

	i.riftPool = i.riftPool[:0]
	i.sched.CancelAll()
	i.riftPool = append(i.riftPool, riftPositions[:]...)

	i.Map.LoadGrid(-2023.0, 7121.0)
	if medivh := i.GetCreature(DataMedivh); medivh != nil {
		medivh.DespawnOrUnsummon(0, 3*time.Second)
	}
	i.log.Info("encounter reset")
}

func (i *Instance) Update(dt time.Duration) {
	i.sched.Update(dt)
}

// OnPlayerEnter resets an unfinished attempt for the first regular player in
// and shows the rift frame to the entrant.
func (i *Instance) OnPlayerEnter(p script.Player) {
	if !p.IsGameMaster() && i.Map.PlayersCountExceptGMs() <= 1 && i.BossState(DataAeonus) != script.Done {
		i.CleanupInstance()
	}

	active := uint32(0)
	if i.currentRift > 0 {
		active = 1
	}
	p.SendUpdateWorldState(WorldStateBM, active)
	p.SendUpdateWorldState(WorldStateBMShield, uint32(i.shieldPercent))
	p.SendUpdateWorldState(WorldStateBMRift, i.currentRift)
}

// OnPlayerLeave resets an unfinished attempt once the last regular player is gone.
func (i *Instance) OnPlayerLeave(p script.Player) {
	if p.IsGameMaster() {
		return
	}
	if i.Map.PlayersCountExceptGMs() == 0 && i.BossState(DataAeonus) != script.Done {
		i.CleanupInstance()
	}
}

func (i *Instance) OnCreatureCreate(c script.Creature) {
	if trackedEntries[c.Entry()] {
		i.encounterNPCs[c.GUID()] = c.Entry()
	}
	i.Base.OnCreatureCreate(c)
}

func (i *Instance) OnCreatureRemove(c script.Creature) {
	if c.Entry() == NpcTimeRift {
		i.onRiftRemoved(c)
	}
	delete(i.encounterNPCs, c.GUID())
	i.Base.OnCreatureRemove(c)
}

func (i *Instance) SetBossState(id uint32, state script.EncounterState) bool {
	if !i.Base.SetBossState(id, state) {
		return false
	}
	if state != script.Done {
		return true
	}

	switch id {
	case DataAeonus:
		if medivh := i.GetCreature(DataMedivh); medivh != nil {
			medivh.DoAction(ActionOutro)
		}
		i.Map.DoForAllPlayers(func(p script.Player) {
			for _, quest := range [...]uint32{QuestOpeningPortal, QuestMasterTouch} {
				if p.QuestStatus(quest) == script.QuestIncomplete {
					p.AreaExploredOrEventHappens(quest)
				}
			}
		})
		i.log.Info("final boss defeated")
	case DataChronoLordDeja, DataTemporus:
		i.despawnEncounterNPCs(NpcRiftKeeperWarlock, NpcRiftKeeperMage, NpcRiftLord, NpcRiftLord2, NpcTimeRift)
		// Only a running chain is pushed back; once the last rift is out there is none.
		if len(i.sched.PendingIn(groupRifts)) > 0 {
			i.ScheduleNextPortal(2*time.Minute + 30*time.Second)
		}
		i.log.Info("sub-boss defeated, rifts paused", zap.Uint32("boss", id))
	}
	return true
}

func (i *Instance) SetData(key, value uint32) {
	switch key {
	case DataMedivh:
		i.startEvent()
	case DataDamageShield:
		i.damageShield(value)
	default:
		i.Base.SetData(key, value)
	}
}

func (i *Instance) Data(key uint32) uint32 {
	switch key {
	case DataShieldPercent:
		return uint32(i.shieldPercent)
	case DataRiftNumber:
		return i.currentRift
	default:
		return i.Base.Data(key)
	}
}

// startEvent runs when the controlling NPC begins channelling the portal.
func (i *Instance) startEvent() {
	i.DoUpdateWorldState(WorldStateBM, 1)
	i.DoUpdateWorldState(WorldStateBMShield, uint32(i.shieldPercent))
	i.DoUpdateWorldState(WorldStateBMRift, i.currentRift)

	i.ScheduleNextPortal(3 * time.Second)

	for _, guid := range i.trackedGUIDs() {
		if i.encounterNPCs[guid] != NpcDPBeamStalker {
			continue
		}
		if c := i.Map.Creature(guid); c != nil && !c.IsAlive() {
			c.Respawn()
		}
		break
	}
	i.log.Info("rift event started")
}

// trackedGUIDs snapshots the tracked set in guid order; despawning while
// iterating the snapshot is safe.
func (i *Instance) trackedGUIDs(entries ...uint32) []ecs.EntityID {
	guids := make([]ecs.EntityID, 0, len(i.encounterNPCs))
	for guid, entry := range i.encounterNPCs {
		if len(entries) > 0 && !containsEntry(entries, entry) {
			continue
		}
		guids = append(guids, guid)
	}
	sort.Slice(guids, func(a, b int) bool { return guids[a] < guids[b] })
	return guids
}

func (i *Instance) despawnEncounterNPCs(entries ...uint32) {
	for _, guid := range i.trackedGUIDs(entries...) {
		if c := i.Map.Creature(guid); c != nil {
			c.DespawnOrUnsummon(0, 0)
		}
	}
}

func containsEntry(entries []uint32, entry uint32) bool {
	for _, e := range entries {
		if e == entry {
			return true
		}
	}
	return false
}
