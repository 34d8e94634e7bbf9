package world

import (
	"testing"
	"time"

	"github.com/l1jgo/encounter/internal/core/event"
	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMap uint32 = 900

const testCreatures = `
creatures:
  - entry: 1
    name: Guard
    health: 100
  - entry: 2
    name: Boss
    health: 500
    boss_id: 0
  - entry: 3
    name: Talker
    health: 100
    npc_flags: 1
    script_name: test_talker
`

// recordingScript is a Base that remembers the hooks the host called.
type recordingScript struct {
	*script.Base
	created []uint32
	removed []uint32
	entered []string
	left    []string
	ticks   time.Duration
}

func (r *recordingScript) OnCreatureCreate(c script.Creature) {
	r.created = append(r.created, c.Entry())
	r.Base.OnCreatureCreate(c)
}

func (r *recordingScript) OnCreatureRemove(c script.Creature) {
	r.removed = append(r.removed, c.Entry())
	r.Base.OnCreatureRemove(c)
}

func (r *recordingScript) OnPlayerEnter(p script.Player) {
	r.entered = append(r.entered, p.Name())
}

func (r *recordingScript) OnPlayerLeave(p script.Player) {
	r.left = append(r.left, p.Name())
}

func (r *recordingScript) Update(dt time.Duration) { r.ticks += dt }

type talkerScript struct{}

type talkerAI struct {
	script.NullAI
	c      script.Creature
	resets int
	moves  []uint32
}

func (talkerScript) Name() string { return "test_talker" }

func (talkerScript) OnGossipHello(p script.Player, c script.Creature) bool {
	p.AddGossipItem(script.GossipIconChat, "hello", script.GossipSenderMain, script.GossipActionInfoDef)
	p.SendGossipMenu(42, c.GUID())
	return true
}

func (talkerScript) OnGossipSelect(p script.Player, c script.Creature, sender, action uint32) bool {
	p.CloseGossipMenu()
	return true
}

func (talkerScript) NewAI(c script.Creature) script.CreatureAI { return &talkerAI{c: c} }

func (a *talkerAI) Reset() { a.resets++ }

func (a *talkerAI) DamageTaken(_ script.Creature, damage *uint32) {
	if *damage >= a.c.Health() {
		*damage = a.c.Health() - 1
	}
}

func (a *talkerAI) MovementInform(_ script.MotionType, point uint32) {
	a.moves = append(a.moves, point)
}

func newTestState(t *testing.T) *State {
	t.Helper()
	table, err := data.ParseCreatureTable([]byte(testCreatures))
	require.NoError(t, err)

	reg := script.NewRegistry(zap.NewNop())
	require.NoError(t, reg.AddInstanceScript("instance_test", testMap, func(m script.InstanceMap, _ *zap.Logger) script.InstanceScript {
		return &recordingScript{Base: script.NewBase(m, "T", 1, nil)}
	}))
	require.NoError(t, reg.AddCreatureScript(talkerScript{}))

	s := NewState(zap.NewNop(), reg, Options{
		Creatures: table,
		Spawns: []data.SpawnEntry{
			{Entry: 1, MapID: testMap, X: 1, Y: 2, RespawnDelay: 10},
			{Entry: 1, MapID: testMap + 1},
		},
	})
	return s
}

func recorder(inst *Instance) *recordingScript {
	return inst.Script().(*recordingScript)
}

func TestCreateInstanceSpawnsStaticCreatures(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap, Seed: 1})
	require.NoError(t, err)
	rec := recorder(inst)

	assert.Equal(t, "instance_test", inst.ScriptName())
	assert.Equal(t, []uint32{1}, rec.created)
	guards := inst.CreaturesByEntry(1)
	require.Len(t, guards, 1)
	assert.Equal(t, script.Position{X: 1, Y: 2}, guards[0].HomePosition())
	assert.Equal(t, uint32(100), guards[0].Health())
}

func TestCreateInstanceRestoresSavedData(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap, SavedData: "T 3"})
	require.NoError(t, err)
	assert.Equal(t, script.Done, inst.Script().BossState(0))

	_, err = s.CreateInstance(InstanceConfig{MapID: testMap, SavedData: "X 3"})
	assert.Error(t, err)
}

func TestUnscriptedMapGetsBaseScript(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: 1})
	require.NoError(t, err)
	assert.Empty(t, inst.ScriptName())
	assert.IsType(t, &script.Base{}, inst.Script())
}

func TestDespawnWithoutRespawnRemovesCreature(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)
	rec := recorder(inst)

	c := inst.Spawn(1, script.Position{})
	guid := c.GUID()
	c.DespawnOrUnsummon(0, 0)

	assert.Nil(t, inst.Creature(guid))
	assert.False(t, c.InWorld())
	assert.Equal(t, []uint32{1}, rec.removed)
	assert.Equal(t, 1, s.ECS().Pending())

	// Calls on a removed creature are ignored.
	c.DespawnOrUnsummon(0, 0)
	c.Respawn()
	assert.Equal(t, []uint32{1}, rec.removed)
	assert.False(t, c.IsAlive())

	s.ECS().FlushDestroyQueue()
	assert.False(t, s.ECS().Alive(guid))
}

func TestDespawnWithRespawnHidesThenReturns(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)
	rec := recorder(inst)

	c := inst.CreaturesByEntry(1)[0]
	c.DespawnOrUnsummon(0, 3*time.Second)

	assert.True(t, c.Hidden())
	assert.False(t, c.IsAlive())
	assert.NotNil(t, inst.Creature(c.GUID()), "hidden creatures stay registered")
	assert.Empty(t, rec.removed)

	inst.Advance(2900*time.Millisecond, 100*time.Millisecond)
	assert.False(t, c.IsAlive())
	inst.Advance(200*time.Millisecond, 100*time.Millisecond)
	assert.True(t, c.IsAlive())
}

func TestDelayedDespawn(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	c := inst.Spawn(1, script.Position{})
	c.DespawnOrUnsummon(1200*time.Millisecond, 0)
	assert.True(t, c.DespawnPending())

	inst.Advance(time.Second, 100*time.Millisecond)
	assert.True(t, c.InWorld())
	inst.Advance(300*time.Millisecond, 100*time.Millisecond)
	assert.False(t, c.InWorld())
}

func TestCorpseTimedSummonDespawnsAfterDeath(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	owner := inst.Spawn(1, script.Position{})
	summon := owner.SummonCreature(1, script.Position{X: 5}, script.SummonCorpseTimedDespawn, time.Minute)
	require.NotNil(t, summon)
	sc := inst.Lookup(summon.GUID())
	assert.Equal(t, owner.GUID(), sc.Summoner())

	inst.Advance(5*time.Minute, time.Second)
	assert.True(t, sc.IsAlive(), "corpse timer only starts on death")

	sc.KillSelf()
	inst.Advance(59*time.Second, time.Second)
	assert.True(t, sc.InWorld())
	inst.Advance(2*time.Second, time.Second)
	assert.False(t, sc.InWorld())
}

func TestStaticSpawnRespawnsAfterDeath(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	c := inst.CreaturesByEntry(1)[0]
	c.KillSelf()
	assert.False(t, c.IsAlive())
	inst.Advance(10*time.Second, time.Second)
	assert.True(t, c.IsAlive())
	assert.Equal(t, c.MaxHealth(), c.Health())
}

func TestBossDeathCompletesEncounter(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	boss := inst.Spawn(2, script.Position{})
	assert.Equal(t, uint32(200), inst.DealDamage(nil, boss.GUID(), 200))
	assert.Equal(t, uint32(300), boss.Health())
	assert.Equal(t, uint32(300), inst.DealDamage(nil, boss.GUID(), 1000))

	assert.False(t, boss.IsAlive())
	assert.Equal(t, script.Done, inst.Script().BossState(0))
	assert.Equal(t, "T 3", inst.SavedData())
}

func TestAIClampsDamage(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	talker := inst.Spawn(3, script.Position{})
	inst.DealDamage(nil, talker.GUID(), 5000)
	assert.True(t, talker.IsAlive())
	assert.Equal(t, uint32(1), talker.Health())

	inst.MovementInform(talker.GUID(), script.MotionPoint, 7)
	ai := talker.AI().(*talkerAI)
	assert.Equal(t, []uint32{7}, ai.moves)
	assert.Equal(t, 1, ai.resets)
}

func TestPlayersAndWorldStates(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)
	rec := recorder(inst)

	alice := NewPlayer("alice", false)
	gm := NewPlayer("gm", true)
	inst.AddPlayer(alice)
	inst.AddPlayer(gm)
	assert.Equal(t, 1, inst.PlayersCountExceptGMs())
	assert.False(t, alice.GUID().IsZero())

	inst.UpdateWorldState(2541, 1)
	v, ok := alice.WorldState(2541)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v)
	require.Len(t, gm.Outbox(), 1)
	assert.Equal(t, byte(packet.S_OPCODE_UPDATE_WORLD_STATE), gm.Outbox()[0][0])

	inst.RemovePlayer(alice)
	assert.Zero(t, inst.PlayersCountExceptGMs())
	assert.Nil(t, alice.Instance())
	assert.Equal(t, []string{"alice", "gm"}, rec.entered)
	assert.Equal(t, []string{"alice"}, rec.left)
}

func TestGossipRoundTrip(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)

	p := NewPlayer("bob", false)
	inst.AddPlayer(p)
	talker := inst.Spawn(3, script.Position{})
	guard := inst.Spawn(1, script.Position{})

	assert.False(t, inst.GossipHello(p, guard.GUID()))
	require.True(t, inst.GossipHello(p, talker.GUID()))
	assert.True(t, p.GossipOpen())

	r := packet.NewReader(p.DrainOutbox()[0])
	assert.Equal(t, byte(packet.S_OPCODE_GOSSIP_MESSAGE), r.Opcode())
	assert.Equal(t, uint64(talker.GUID()), r.ReadQ())
	assert.Equal(t, uint32(42), r.ReadD())
	assert.Equal(t, byte(1), r.ReadC())

	require.True(t, inst.GossipSelect(p, talker.GUID(), script.GossipSenderMain, script.GossipActionInfoDef))
	assert.False(t, p.GossipOpen())
}

func TestHostEventsReachSubscribers(t *testing.T) {
	s := newTestState(t)
	var spawned, removed int
	var states []uint32
	event.Subscribe(s.Bus(), func(event.CreatureSpawned) { spawned++ })
	event.Subscribe(s.Bus(), func(event.CreatureRemoved) { removed++ })
	event.Subscribe(s.Bus(), func(e event.WorldStateChanged) { states = append(states, e.StateID) })

	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)
	c := inst.Spawn(1, script.Position{})
	c.DespawnOrUnsummon(0, 0)
	inst.UpdateWorldState(10, 1)

	s.Bus().SwapBuffers()
	s.Bus().DispatchAll()
	assert.Equal(t, 2, spawned)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []uint32{10}, states)
}

func TestDestroyInstance(t *testing.T) {
	s := newTestState(t)
	inst, err := s.CreateInstance(InstanceConfig{MapID: testMap})
	require.NoError(t, err)
	rec := recorder(inst)
	inst.AddPlayer(NewPlayer("carol", false))

	s.DestroyInstance(inst.InstanceID())
	assert.Nil(t, s.Instance(inst.InstanceID()))
	assert.Zero(t, inst.CreatureCount())
	assert.Equal(t, []string{"carol"}, rec.left)
}
