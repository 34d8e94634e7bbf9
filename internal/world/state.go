package world

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/core/event"
	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// State is the reference host: every live instance plus the shared entity
// pool, data tables and script registry.
// Accessed only from the game loop goroutine, so no locks.
type State struct {
	log       *zap.Logger
	ecs       *ecs.World
	bus       *event.Bus
	registry  *script.Registry
	creatures *data.CreatureTable
	spawns    []data.SpawnEntry

	instances      map[uint32]*Instance
	nextInstanceID uint32
}

// Options configure NewState. Zero values are valid.
type Options struct {
	Creatures *data.CreatureTable
	Spawns    []data.SpawnEntry
	Bus       *event.Bus
	ECS       *ecs.World
}

func NewState(log *zap.Logger, reg *script.Registry, opts Options) *State {
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.ECS == nil {
		opts.ECS = ecs.NewWorld()
	}
	return &State{
		log:            log,
		ecs:            opts.ECS,
		bus:            opts.Bus,
		registry:       reg,
		creatures:      opts.Creatures,
		spawns:         opts.Spawns,
		instances:      make(map[uint32]*Instance),
		nextInstanceID: 1,
	}
}

// Bus returns the host event bus.
func (s *State) Bus() *event.Bus { return s.bus }

// ECS returns the shared entity world.
func (s *State) ECS() *ecs.World { return s.ecs }

// InstanceConfig describes a new instance.
type InstanceConfig struct {
	MapID  uint32
	Heroic bool
	Seed   int64
	// SavedData restores boss states written by an earlier run.
	SavedData string
}

// CreateInstance builds an instance of MapID with its registered script (or
// a bare script.Base), restores saved data and places the static spawns.
func (s *State) CreateInstance(cfg InstanceConfig) (*Instance, error) {
	id := s.nextInstanceID
	s.nextInstanceID++

	inst := &Instance{
		id:          id,
		mapID:       cfg.MapID,
		heroic:      cfg.Heroic,
		world:       s,
		log:         s.log.With(zap.Uint32("map", cfg.MapID), zap.Uint32("instance", id)),
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		creatures:   ecs.NewStore[Creature](),
		worldStates: make(map[uint32]uint32),
	}
	s.ecs.Register(inst.creatures)

	if sc, ok := s.registry.NewInstanceScript(cfg.MapID, inst); ok {
		inst.script = sc
		inst.scriptName = s.registry.InstanceScriptName(cfg.MapID)
	} else {
		inst.script = script.NewBase(inst, "", 0, nil)
	}

	if cfg.SavedData != "" {
		if err := inst.script.Load(cfg.SavedData); err != nil {
			return nil, fmt.Errorf("load instance %d data: %w", id, err)
		}
	}

	for _, sp := range s.spawns {
		if sp.MapID != cfg.MapID {
			continue
		}
		c := inst.Spawn(sp.Entry, script.Position{X: sp.X, Y: sp.Y, Z: sp.Z, O: sp.O})
		c.respawnDelay = time.Duration(sp.RespawnDelay) * time.Second
	}

	s.instances[id] = inst
	inst.log.Info("instance created",
		zap.String("script", inst.scriptName),
		zap.Bool("heroic", cfg.Heroic),
		zap.Int("creatures", inst.creatures.Len()),
	)
	return inst, nil
}

// Instance returns the instance with id, or nil.
func (s *State) Instance(id uint32) *Instance { return s.instances[id] }

// Instances returns all instances ordered by id.
func (s *State) Instances() []*Instance {
	out := make([]*Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

// DestroyInstance removes every creature and player and forgets the instance.
func (s *State) DestroyInstance(id uint32) {
	inst, ok := s.instances[id]
	if !ok {
		return
	}
	for _, p := range inst.Players() {
		inst.RemovePlayer(p)
	}
	inst.creatures.Each(func(_ ecs.EntityID, c *Creature) {
		inst.removeCreature(c)
	})
	delete(s.instances, id)
	inst.log.Info("instance destroyed")
}

// Update ticks every instance in id order.
func (s *State) Update(dt time.Duration) {
	for _, inst := range s.Instances() {
		inst.Update(dt)
	}
}
