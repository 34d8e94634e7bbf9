package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/l1jgo/encounter/internal/core/event"
	coresys "github.com/l1jgo/encounter/internal/core/system"
	"github.com/l1jgo/encounter/internal/persist"
	"github.com/l1jgo/encounter/internal/script"
	"github.com/l1jgo/encounter/internal/script/blackmorass"
	"github.com/l1jgo/encounter/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingStore struct{ calls int }

func (f *failingStore) SaveBatch(context.Context, []persist.InstanceSave) error {
	f.calls++
	return errors.New("db down")
}

func newLoop(t *testing.T, store InstanceStore, interval int) (*coresys.Runner, *world.State, *PersistenceSystem) {
	t.Helper()
	reg := script.NewRegistry(zap.NewNop())
	require.NoError(t, blackmorass.Register(reg))
	ws := world.NewState(zap.NewNop(), reg, world.Options{})

	persistSys := NewPersistenceSystem(ws.Bus(), store, zap.NewNop(), interval)
	runner := coresys.NewRunner()
	// registration order differs from phase order on purpose
	runner.Register(NewCleanupSystem(ws.ECS()))
	runner.Register(persistSys)
	runner.Register(NewInstanceSystem(ws))
	runner.Register(NewEventSystem(ws.Bus()))
	return runner, ws, persistSys
}

func TestSavesReachStoreNextTick(t *testing.T) {
	store := NewMemoryStore()
	runner, ws, persistSys := newLoop(t, store, 1)

	inst, err := ws.CreateInstance(world.InstanceConfig{MapID: blackmorass.MapID})
	require.NoError(t, err)
	require.True(t, inst.Script().SetBossState(blackmorass.DataChronoLordDeja, script.Done))

	// Emitted outside the loop: delivered by the first tick's PreUpdate.
	runner.Tick(200 * time.Millisecond)
	require.Contains(t, store.Saves, inst.InstanceID())
	assert.Equal(t, "BM 3 0 0", store.Saves[inst.InstanceID()].Data)
	assert.Equal(t, blackmorass.MapID, store.Saves[inst.InstanceID()].MapID)
	assert.Zero(t, persistSys.Dirty())
}

func TestLatestSaveWins(t *testing.T) {
	store := NewMemoryStore()
	runner, ws, _ := newLoop(t, store, 5)

	inst, err := ws.CreateInstance(world.InstanceConfig{MapID: blackmorass.MapID})
	require.NoError(t, err)
	inst.Script().SetBossState(blackmorass.DataChronoLordDeja, script.Done)
	inst.Script().SetBossState(blackmorass.DataTemporus, script.Done)

	for i := 0; i < 4; i++ {
		runner.Tick(200 * time.Millisecond)
	}
	assert.Empty(t, store.Saves, "flushes only every fifth tick")

	runner.Tick(200 * time.Millisecond)
	assert.Equal(t, "BM 3 3 0", store.Saves[inst.InstanceID()].Data)
}

func TestFailedFlushKeepsSavesPending(t *testing.T) {
	store := &failingStore{}
	runner, ws, persistSys := newLoop(t, store, 1)

	inst, err := ws.CreateInstance(world.InstanceConfig{MapID: blackmorass.MapID})
	require.NoError(t, err)
	inst.Script().SetBossState(blackmorass.DataAeonus, script.Done)

	runner.Tick(200 * time.Millisecond)
	runner.Tick(200 * time.Millisecond)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 1, persistSys.Dirty())
}

func TestFailedFlushLogsError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := event.NewBus()
	persistSys := NewPersistenceSystem(bus, &failingStore{}, zap.New(core), 1)

	event.Emit(bus, event.InstanceSaved{InstanceID: 4, MapID: blackmorass.MapID, Data: "BM 3 0 0"})
	bus.SwapBuffers()
	bus.DispatchAll()
	persistSys.Flush()

	entries := logs.FilterMessage("instance save failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["count"])
	assert.Equal(t, "db down", entries[0].ContextMap()["error"])
}

func TestCleanupFlushesRemovedCreatures(t *testing.T) {
	runner, ws, _ := newLoop(t, NewMemoryStore(), 1)
	inst, err := ws.CreateInstance(world.InstanceConfig{MapID: blackmorass.MapID})
	require.NoError(t, err)

	c := inst.Spawn(blackmorass.NpcTimeRift, blackmorass.RiftPositions()[0])
	c.DespawnOrUnsummon(0, 0)
	require.Equal(t, 1, ws.ECS().Pending())

	runner.Tick(200 * time.Millisecond)
	assert.Zero(t, ws.ECS().Pending())
	assert.False(t, ws.ECS().Alive(c.GUID()))
}

func TestInstanceSystemAdvancesScripts(t *testing.T) {
	runner, ws, _ := newLoop(t, NewMemoryStore(), 1)
	inst, err := ws.CreateInstance(world.InstanceConfig{MapID: blackmorass.MapID, Seed: 3})
	require.NoError(t, err)
	inst.Spawn(blackmorass.NpcMedivh, script.Position{X: -2023, Y: 7121})
	inst.Script().SetData(blackmorass.DataMedivh, 0)

	for i := 0; i < 15; i++ {
		runner.Tick(200 * time.Millisecond)
	}
	assert.Equal(t, uint32(1), inst.Script().Data(blackmorass.DataRiftNumber))
	assert.Equal(t, 3*time.Second, inst.Elapsed())

	// drain the events of the tick that opened the rift
	runner.Tick(200 * time.Millisecond)
	var changed []uint32
	event.Subscribe(ws.Bus(), func(e event.WorldStateChanged) { changed = append(changed, e.StateID) })
	inst.UpdateWorldState(1, 1)
	runner.Tick(200 * time.Millisecond)
	assert.Equal(t, []uint32{1}, changed)
}
