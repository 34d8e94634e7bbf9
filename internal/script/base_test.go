package script

import (
	"math/rand"
	"testing"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubMap records saves and world states; it has no creatures or players.
type stubMap struct {
	saves  []string
	states map[uint32]uint32
}

func newStubMap() *stubMap { return &stubMap{states: make(map[uint32]uint32)} }

func (m *stubMap) ID() uint32 { return 1 }
func (m *stubMap) InstanceID() uint32 { return 7 }
func (m *stubMap) IsHeroic() bool { return false }
func (m *stubMap) Creature(ecs.EntityID) Creature { return nil }
func (m *stubMap) SummonCreature(uint32, Position) Creature { return nil }
func (m *stubMap) LoadGrid(float64, float64) {}
func (m *stubMap) DoForAllPlayers(func(Player)) {}
func (m *stubMap) PlayersCountExceptGMs() int { return 0 }
func (m *stubMap) UpdateWorldState(id, value uint32) { m.states[id] = value }
func (m *stubMap) SaveInstanceData(data string) { m.saves = append(m.saves, data) }
func (m *stubMap) Rand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestSetBossStateRejectsNoopAndUnknown(t *testing.T) {
	m := newStubMap()
	b := NewBase(m, "XX", 2, nil)

	assert.True(t, b.SetBossState(0, InProgress))
	assert.False(t, b.SetBossState(0, InProgress))
	assert.False(t, b.SetBossState(5, Done))
	assert.True(t, b.SetBossState(1, Done))

	assert.Equal(t, []string{"XX 1 0", "XX 1 3"}, m.saves)
	assert.Equal(t, NotStarted, b.BossState(9))
}

func TestLoadResetsInterruptedEncounters(t *testing.T) {
	b := NewBase(newStubMap(), "BM", 3, nil)
	require.NoError(t, b.Load("BM 3 1 4"))

	assert.Equal(t, Done, b.BossState(0))
	assert.Equal(t, NotStarted, b.BossState(1))
	assert.Equal(t, NotStarted, b.BossState(2))
	assert.Equal(t, "BM 3 0 0", b.Save())
}

func TestLoadRejectsMalformedData(t *testing.T) {
	b := NewBase(newStubMap(), "BM", 2, nil)
	for _, data := range []string{"", "TC 0 0", "BM 0", "BM 0 x", "BM 0 9"} {
		assert.Error(t, b.Load(data), data)
	}
	assert.Equal(t, "BM 0 0", b.Save())
}

func TestDataStore(t *testing.T) {
	b := NewBase(newStubMap(), "BM", 0, nil)
	assert.Zero(t, b.Data(4))
	b.SetData(4, 11)
	assert.Equal(t, uint32(11), b.Data(4))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	factory := func(m InstanceMap, _ *zap.Logger) InstanceScript { return NewBase(m, "A", 0, nil) }

	require.NoError(t, reg.AddInstanceScript("instance_a", 10, factory))
	assert.Error(t, reg.AddInstanceScript("instance_b", 10, factory))
	assert.Error(t, reg.AddInstanceScript("instance_a", 11, factory))

	s, ok := reg.NewInstanceScript(10, newStubMap())
	require.True(t, ok)
	assert.Equal(t, "A", s.Save())

	_, ok = reg.NewInstanceScript(12, newStubMap())
	assert.False(t, ok)
	assert.Equal(t, "instance_a", reg.InstanceScriptName(10))
	assert.Nil(t, reg.CreatureScript(""))
}
