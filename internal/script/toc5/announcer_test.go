package toc5

import (
	"testing"

	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/script"
	"github.com/l1jgo/encounter/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCreatures = `
creatures:
  - {entry: 35004, name: Jaeren Sunsworn, health: 100, npc_flags: 1, script_name: npc_announcer_toc5}
  - {entry: 35005, name: Arelas Brightstar, health: 100, npc_flags: 1, script_name: npc_announcer_toc5}
`

type menu struct {
	source  uint64
	textID  uint32
	options []packet.GossipOption
}

func readMenu(t *testing.T, raw []byte) menu {
	t.Helper()
	r := packet.NewReader(raw)
	require.Equal(t, packet.S_OPCODE_GOSSIP_MESSAGE, r.Opcode())
	m := menu{source: r.ReadQ(), textID: r.ReadD()}
	n := int(r.ReadC())
	for i := 0; i < n; i++ {
		r.ReadC() // index
		o := packet.GossipOption{Icon: r.ReadC(), Sender: r.ReadD(), Action: r.ReadD()}
		o.Text = r.ReadS()
		m.options = append(m.options, o)
	}
	return m
}

type fixture struct {
	host *world.Instance
	tc   *Instance
	p    *world.Player
}

func newFixture(t *testing.T, team uint32) *fixture {
	t.Helper()
	table, err := data.ParseCreatureTable([]byte(testCreatures))
	require.NoError(t, err)
	reg := script.NewRegistry(zap.NewNop())
	require.NoError(t, Register(reg, zap.NewNop()))

	s := world.NewState(zap.NewNop(), reg, world.Options{Creatures: table})
	host, err := s.CreateInstance(world.InstanceConfig{MapID: MapID})
	require.NoError(t, err)
	tc := host.Script().(*Instance)
	tc.SetData(DataTeamInInstance, team)

	p := world.NewPlayer("alice", false)
	host.AddPlayer(p)
	return &fixture{host: host, tc: tc, p: p}
}

func (f *fixture) announcer() *world.Creature {
	return f.host.Spawn(NpcJaeren, script.Position{X: 746.8, Y: 618.4, Z: 411.1})
}

func TestResetPicksAnnouncerByTeam(t *testing.T) {
	f := newFixture(t, TeamAlliance)
	c := f.announcer()
	assert.Equal(t, NpcArelas, c.Entry())
	assert.NotZero(t, c.UnitFlags()&uint32(script.UnitFlagNonAttackable))
	assert.True(t, c.HasNpcFlag(script.NpcFlagGossip))

	for _, team := range []uint32{TeamHorde, TeamNeutral} {
		f := newFixture(t, team)
		c := f.announcer()
		assert.Equal(t, NpcJaeren, c.Entry())
		assert.NotZero(t, c.UnitFlags()&uint32(script.UnitFlagNonAttackable))
	}
}

func TestGossipHelloByProgress(t *testing.T) {
	act := func(a uint32) uint32 { return script.GossipActionInfoDef + a }
	tests := []struct {
		name     string
		team     uint32
		progress uint32
		mounted  bool
		wantText uint32
		wantActs []uint32
	}{
		{name: "horde on foot", team: TeamHorde, progress: ProgressInitial, wantText: 15043},
		{name: "alliance on foot", team: TeamAlliance, progress: ProgressInitial, wantText: 14757},
		{name: "mounted", team: TeamHorde, progress: ProgressInitial, mounted: true, wantText: 14688, wantActs: []uint32{act(1338), act(1341)}},
		{name: "champions dead", team: TeamHorde, progress: ProgressChampionsDead, wantText: 14737, wantActs: []uint32{act(1339)}},
		{name: "argent challenge died", team: TeamAlliance, progress: ProgressArgentChallengeDied, wantText: 14738, wantActs: []uint32{act(1340)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.team)
			f.tc.SetData(DataInstanceProgress, tt.progress)
			f.p.SetInVehicle(tt.mounted)
			c := f.announcer()
			f.p.DrainOutbox()

			require.True(t, f.host.GossipHello(f.p, c.GUID()))
			out := f.p.DrainOutbox()
			require.Len(t, out, 1)
			m := readMenu(t, out[0])
			assert.Equal(t, uint64(c.GUID()), m.source)
			assert.Equal(t, tt.wantText, m.textID)

			var acts []uint32
			for _, o := range m.options {
				assert.Equal(t, byte(script.GossipIconChat), o.Icon)
				assert.Equal(t, script.GossipSenderMain, o.Sender)
				assert.NotEmpty(t, o.Text)
				acts = append(acts, o.Action)
			}
			assert.Equal(t, tt.wantActs, acts)
		})
	}
}

func TestGossipHelloSilentStages(t *testing.T) {
	for _, progress := range []uint32{ProgressIntroDone, ProgressChampionsUnmounted, ProgressArgentSoldiersDied, ProgressDone} {
		f := newFixture(t, TeamHorde)
		f.tc.SetData(DataInstanceProgress, progress)
		c := f.announcer()
		f.p.DrainOutbox()

		assert.True(t, f.host.GossipHello(f.p, c.GUID()))
		assert.Empty(t, f.p.DrainOutbox(), "progress %d", progress)
	}
}

func TestGossipHelloRequiresGossipFlag(t *testing.T) {
	f := newFixture(t, TeamHorde)
	c := f.announcer()
	c.RemoveNpcFlag(script.NpcFlagGossip)
	f.p.DrainOutbox()

	assert.True(t, f.host.GossipHello(f.p, c.GUID()))
	assert.Empty(t, f.p.DrainOutbox())
}

func TestGossipSelectStartsStage(t *testing.T) {
	tests := []struct {
		action   uint32
		wantSkip bool
	}{
		{action: 1338},
		{action: 1341, wantSkip: true},
		{action: 1339},
		{action: 1340},
	}
	for _, tt := range tests {
		f := newFixture(t, TeamHorde)
		c := f.announcer()
		f.p.DrainOutbox()

		require.True(t, f.host.GossipSelect(f.p, c.GUID(), script.GossipSenderMain, script.GossipActionInfoDef+tt.action))
		assert.Equal(t, 1, f.tc.StagesStarted())
		assert.Equal(t, tt.wantSkip, f.tc.SkipIntro())
		assert.False(t, c.HasNpcFlag(script.NpcFlagGossip))

		out := f.p.DrainOutbox()
		require.Len(t, out, 1)
		assert.Equal(t, packet.S_OPCODE_GOSSIP_COMPLETE, out[0][0])
	}
}

func TestGossipSelectUnknownActionOnlyCloses(t *testing.T) {
	f := newFixture(t, TeamHorde)
	c := f.announcer()
	f.p.DrainOutbox()

	require.True(t, f.host.GossipSelect(f.p, c.GUID(), script.GossipSenderMain, script.GossipActionInfoDef+1))
	assert.Zero(t, f.tc.StagesStarted())
	assert.True(t, c.HasNpcFlag(script.NpcFlagGossip))
	out := f.p.DrainOutbox()
	require.Len(t, out, 1)
	assert.Equal(t, packet.S_OPCODE_GOSSIP_COMPLETE, out[0][0])

	// Without the gossip flag nothing happens, not even a close.
	c.RemoveNpcFlag(script.NpcFlagGossip)
	f.host.GossipSelect(f.p, c.GUID(), script.GossipSenderMain, script.GossipActionInfoDef+1338)
	assert.Zero(t, f.tc.StagesStarted())
	assert.Empty(t, f.p.DrainOutbox())
}

func TestDamageNeverKills(t *testing.T) {
	f := newFixture(t, TeamHorde)
	c := f.announcer()

	assert.Equal(t, uint32(99), f.host.DealDamage(nil, c.GUID(), 5000))
	assert.True(t, c.IsAlive())
	assert.Equal(t, uint32(1), c.Health())

	assert.Zero(t, f.host.DealDamage(nil, c.GUID(), 1))
	assert.True(t, c.IsAlive())
}

func TestKnockbackKillsAfterArgentChallenge(t *testing.T) {
	f := newFixture(t, TeamHorde)
	c := f.announcer()

	f.host.MovementInform(c.GUID(), script.MotionEffect, 0)
	assert.True(t, c.IsAlive(), "too early in the tournament")

	require.True(t, f.tc.SetBossState(BossGrandChampions, script.Done))
	require.True(t, f.tc.SetBossState(BossArgentChallenge, script.Done))
	assert.Equal(t, ProgressArgentChallengeDied, f.tc.Data(DataInstanceProgress))

	f.host.MovementInform(c.GUID(), script.MotionPoint, 0)
	assert.True(t, c.IsAlive(), "only effect motion counts")

	f.host.MovementInform(c.GUID(), script.MotionEffect, 0)
	assert.False(t, c.IsAlive())
}

func TestProgressNeverGoesBack(t *testing.T) {
	f := newFixture(t, TeamHorde)
	require.True(t, f.tc.SetBossState(BossArgentChallenge, script.Done))
	f.tc.SetData(DataInstanceProgress, ProgressIntroDone)
	assert.Equal(t, ProgressArgentChallengeDied, f.tc.Data(DataInstanceProgress))

	require.True(t, f.tc.SetBossState(BossBlackKnight, script.Done))
	assert.Equal(t, ProgressDone, f.tc.Data(DataInstanceProgress))
	assert.Equal(t, "TC 0 3 3", f.tc.Save())
}
