package system

import "time"

// Phase orders systems within one tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: client packets, scenario input
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: instances, creature timers, scripts
	PhasePostUpdate              // 3
	PhaseOutput                  // 4: flush player outboxes
	PhasePersist                 // 5: batch instance saves
	PhaseCleanup                 // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhasePreUpdate:
		return "PreUpdate"
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	case PhaseOutput:
		return "Output"
	case PhasePersist:
		return "Persist"
	case PhaseCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// System is one step of the tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
