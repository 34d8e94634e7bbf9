package blackmorass

import "github.com/l1jgo/encounter/internal/script"

const (
	MapID      uint32 = 269
	ScriptName        = "instance_the_black_morass"
	dataHeader        = "BM"
)

// Boss encounter ids.
const (
	DataChronoLordDeja uint32 = iota
	DataTemporus
	DataAeonus
	EncounterCount
)

// Instance data keys.
const (
	DataMedivh        uint32 = 10
	DataRiftNumber    uint32 = 11
	DataShieldPercent uint32 = 12
	DataDamageShield  uint32 = 13
)

// World states shown on the client frame.
const (
	WorldStateBM       uint32 = 2541
	WorldStateBMShield uint32 = 2540
	WorldStateBMRift   uint32 = 2784
)

const (
	QuestOpeningPortal uint32 = 10297
	QuestMasterTouch   uint32 = 9836
)

// Creature entries.
const (
	NpcMedivh               uint32 = 15608
	NpcTimeRift             uint32 = 17838
	NpcChronoLordDeja       uint32 = 17879
	NpcInfiniteChronoLord   uint32 = 21697
	NpcTemporus             uint32 = 17880
	NpcInfiniteTimereaver   uint32 = 21698
	NpcAeonus               uint32 = 17881
	NpcRiftKeeperWarlock    uint32 = 21104
	NpcRiftKeeperMage       uint32 = 21148
	NpcRiftLord             uint32 = 17839
	NpcRiftLord2            uint32 = 21140
	NpcInfiniteAssassin     uint32 = 17835
	NpcInfiniteWhelp        uint32 = 21818
	NpcInfiniteChronomancer uint32 = 17892
	NpcInfiniteExecutioner  uint32 = 18994
	NpcInfiniteVanquisher   uint32 = 18995
	NpcDPEmitterStalker     uint32 = 18582
	NpcDPCrystalStalker     uint32 = 18553
	NpcDPBeamStalker        uint32 = 18555
)

const (
	SpellRiftChannel    uint32 = 31387
	SpellTeleportVisual uint32 = 7791
)

const (
	SayMedivhDeath uint8 = 4
	ActionOutro    int32 = 1
)

const (
	maxRifts       = 18
	slowCadenceAt  = 13
	keeperDistance = 10.0
)

// riftPositions are the four places a time rift can open.
var riftPositions = [4]script.Position{
	{X: -2030.8318, Y: 7024.9443, Z: 23.071817, O: 3.14159},
	{X: -1961.7335, Y: 7029.5280, Z: 21.811401, O: 2.12931},
	{X: -1887.6950, Y: 7106.5570, Z: 22.049500, O: 4.95673},
	{X: -1930.9106, Y: 7183.5970, Z: 23.007639, O: 3.59537},
}

// RiftPositions returns a copy of the canonical rift positions.
func RiftPositions() []script.Position {
	out := make([]script.Position, len(riftPositions))
	copy(out, riftPositions[:])
	return out
}

var objectData = []script.ObjectData{
	{Entry: NpcMedivh, DataID: DataMedivh},
}

// riftGuards are the interchangeable keepers summoned at ordinary rift counts.
var riftGuards = [4]uint32{NpcRiftKeeperWarlock, NpcRiftKeeperMage, NpcRiftLord, NpcRiftLord2}

// trackedEntries lists every creature the controller follows for bulk despawns.
var trackedEntries = map[uint32]bool{
	NpcTimeRift:             true,
	NpcChronoLordDeja:       true,
	NpcInfiniteChronoLord:   true,
	NpcTemporus:             true,
	NpcInfiniteTimereaver:   true,
	NpcAeonus:               true,
	NpcRiftKeeperWarlock:    true,
	NpcRiftKeeperMage:       true,
	NpcRiftLord:             true,
	NpcRiftLord2:            true,
	NpcInfiniteAssassin:     true,
	NpcInfiniteWhelp:        true,
	NpcInfiniteChronomancer: true,
	NpcInfiniteExecutioner:  true,
	NpcInfiniteVanquisher:   true,
	NpcDPEmitterStalker:     true,
	NpcDPCrystalStalker:     true,
	NpcDPBeamStalker:        true,
}
