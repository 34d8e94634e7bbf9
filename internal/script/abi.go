package script

import (
	"math/rand"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
)

// Creature is the host's view of a live creature. Methods never fail; calls on
// a creature that left the world are ignored by the host.
type Creature interface {
	GUID() ecs.EntityID
	Entry() uint32
	IsAlive() bool
	IsAIEnabled() bool
	Health() uint32
	Position() Position
	HomePosition() Position

	// DespawnOrUnsummon removes the creature after delay. A non-zero respawn
	// keeps it registered and brings it back after that duration.
	DespawnOrUnsummon(delay, respawn time.Duration)
	Respawn()
	KillSelf()
	UpdateEntry(entry uint32)

	SummonCreature(entry uint32, pos Position, kind SummonType, despawn time.Duration) Creature
	NearPosition(dist, angle float64) Position

	CastSpell(target Creature, spellID uint32, triggered bool)
	InterruptNonMeleeSpells()
	RemoveAllAuras()

	SetImmuneToNPC(immune bool)
	SetReactState(state ReactState)
	SetLootMode(mode uint16)
	HasNpcFlag(flag NpcFlag) bool
	RemoveNpcFlag(flag NpcFlag)
	SetUnitFlag(flag UnitFlag)

	// Talk broadcasts a creature text group; DoAction forwards to the AI.
	Talk(group uint8)
	DoAction(action int32)

	// InstanceData returns the owning instance's data store, or nil outside an instance.
	InstanceData() InstanceData
}

// Player is the host's view of a player inside the instance.
type Player interface {
	GUID() ecs.EntityID
	Name() string
	IsGameMaster() bool
	InVehicle() bool

	QuestStatus(questID uint32) QuestStatus
	AreaExploredOrEventHappens(questID uint32)

	SendUpdateWorldState(id, value uint32)

	AddGossipItem(icon GossipIcon, text string, sender, action uint32)
	SendGossipMenu(textID uint32, source ecs.EntityID)
	CloseGossipMenu()
}

// InstanceMap is the host map an instance script is bound to.
type InstanceMap interface {
	ID() uint32
	InstanceID() uint32
	IsHeroic() bool

	// Creature returns nil when guid is unknown or already removed.
	Creature(guid ecs.EntityID) Creature
	SummonCreature(entry uint32, pos Position) Creature
	LoadGrid(x, y float64)

	DoForAllPlayers(fn func(Player))
	PlayersCountExceptGMs() int

	// UpdateWorldState pushes a world state value to every player in the map.
	UpdateWorldState(id, value uint32)
	SaveInstanceData(data string)

	Rand() *rand.Rand
}

// InstanceData is the key/value surface shared between scripts of one instance.
type InstanceData interface {
	Data(key uint32) uint32
	SetData(key, value uint32)
	BossState(id uint32) EncounterState
}

// InstanceScript is implemented by per-instance controllers. The host calls
// every method from the game loop goroutine.
type InstanceScript interface {
	InstanceData

	Update(dt time.Duration)
	OnPlayerEnter(p Player)
	OnPlayerLeave(p Player)
	OnCreatureCreate(c Creature)
	OnCreatureRemove(c Creature)
	SetBossState(id uint32, state EncounterState) bool

	Save() string
	Load(data string) error
}

// CreatureScript adds gossip hooks and an AI factory to creatures whose
// template names the script.
type CreatureScript interface {
	Name() string
	OnGossipHello(p Player, c Creature) bool
	OnGossipSelect(p Player, c Creature, sender, action uint32) bool
	NewAI(c Creature) CreatureAI
}

// CreatureAI receives per-creature engine events.
type CreatureAI interface {
	Reset()
	// DamageTaken may lower *damage before the host applies it.
	DamageTaken(attacker Creature, damage *uint32)
	MovementInform(motion MotionType, pointID uint32)
	DoAction(action int32)
	UpdateAI(dt time.Duration)
}

// NullAI is embedded by AIs that only care about a few hooks.
type NullAI struct{}

func (NullAI) Reset() {}
func (NullAI) DamageTaken(Creature, *uint32) {}
func (NullAI) MovementInform(MotionType, uint32) {}
func (NullAI) DoAction(int32) {}
func (NullAI) UpdateAI(time.Duration) {}
