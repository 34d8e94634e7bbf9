package system

import (
	"context"
	"sort"
	"time"

	"github.com/l1jgo/encounter/internal/core/event"
	coresys "github.com/l1jgo/encounter/internal/core/system"
	"github.com/l1jgo/encounter/internal/persist"
	"go.uber.org/zap"
)

// InstanceStore is the storage PersistenceSystem writes to.
// *persist.InstanceRepo implements it.
type InstanceStore interface {
	SaveBatch(ctx context.Context, saves []persist.InstanceSave) error
}

// PersistenceSystem collects InstanceSaved events and writes the latest save
// of each instance every interval ticks. Phase 5 (Persist).
type PersistenceSystem struct {
	store     InstanceStore
	log       *zap.Logger
	dirty     map[uint32]persist.InstanceSave
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistenceSystem(bus *event.Bus, store InstanceStore, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &PersistenceSystem{
		store:    store,
		log:      log,
		dirty:    make(map[uint32]persist.InstanceSave),
		interval: intervalTicks,
	}
	event.Subscribe(bus, s.onInstanceSaved)
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) onInstanceSaved(e event.InstanceSaved) {
	s.dirty[e.InstanceID] = persist.InstanceSave{InstanceID: e.InstanceID, MapID: e.MapID, Data: e.Data}
}

// Dirty returns the number of instances waiting to be written.
func (s *PersistenceSystem) Dirty() int { return len(s.dirty) }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes every pending save now. Failed saves stay pending for the next
// flush. Also called on graceful shutdown.
func (s *PersistenceSystem) Flush() {
	if len(s.dirty) == 0 {
		return
	}
	saves := make([]persist.InstanceSave, 0, len(s.dirty))
	for _, sv := range s.dirty {
		saves = append(saves, sv)
	}
	sort.Slice(saves, func(a, b int) bool { return saves[a].InstanceID < saves[b].InstanceID })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveBatch(ctx, saves); err != nil {
		s.log.Error("instance save failed", zap.Int("count", len(saves)), zap.Error(err))
		return
	}
	clear(s.dirty)
	s.log.Debug("instance saves written", zap.Int("count", len(saves)))
}

// MemoryStore keeps saves in memory when no database is configured.
type MemoryStore struct {
	Saves map[uint32]persist.InstanceSave
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Saves: make(map[uint32]persist.InstanceSave)}
}

func (m *MemoryStore) SaveBatch(_ context.Context, saves []persist.InstanceSave) error {
	for _, sv := range saves {
		m.Saves[sv.InstanceID] = sv
	}
	return nil
}
