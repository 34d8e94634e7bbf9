package system

import (
	"time"

	coresys "github.com/l1jgo/encounter/internal/core/system"
	"github.com/l1jgo/encounter/internal/world"
)

// InstanceSystem ticks every instance: creature timers, AIs, then scripts.
// Phase 2 (Update).
type InstanceSystem struct {
	world *world.State
}

func NewInstanceSystem(ws *world.State) *InstanceSystem {
	return &InstanceSystem{world: ws}
}

func (s *InstanceSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *InstanceSystem) Update(dt time.Duration) {
	s.world.Update(dt)
}
