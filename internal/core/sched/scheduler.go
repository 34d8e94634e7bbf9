package sched

import (
	"sort"
	"time"
)

// Group tags tasks for bulk cancellation. NoGroup tasks are only removed by CancelAll.
type Group uint32

const NoGroup Group = 0

// Scheduler is a cooperative, tick-driven task arena.
// Accessed only from the game loop goroutine, so no locks.
// T is the task payload; callers use a small value type naming the step to run.
type Scheduler[T any] struct {
	now   time.Duration
	seq   uint64
	tasks []*task[T]
	fire  func(*Context[T])
}

type task[T any] struct {
	due     time.Duration
	seq     uint64
	group   Group
	payload T
}

// Entry is a read-only view of a pending task.
type Entry[T any] struct {
	Due     time.Duration // absolute scheduler time
	Group   Group
	Payload T
}

// New creates a scheduler whose due tasks are handed to fire.
func New[T any](fire func(*Context[T])) *Scheduler[T] {
	return &Scheduler[T]{
		tasks: make([]*task[T], 0, 16),
		fire:  fire,
	}
}

// Now returns the scheduler clock (sum of all Update deltas).
func (s *Scheduler[T]) Now() time.Duration { return s.now }

// Len returns the number of pending tasks.
func (s *Scheduler[T]) Len() int { return len(s.tasks) }

// Schedule enqueues payload to fire after delay, tagged with group.
func (s *Scheduler[T]) Schedule(delay time.Duration, group Group, payload T) {
	s.push(&task[T]{group: group, payload: payload}, delay)
}

func (s *Scheduler[T]) push(t *task[T], delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t.due = s.now + delay
	t.seq = s.seq
	s.tasks = append(s.tasks, t)
}

// CancelGroup drops every pending task tagged with group.
func (s *Scheduler[T]) CancelGroup(group Group) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.group != group {
			kept = append(kept, t)
		}
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept
}

// CancelAll drops every pending task.
func (s *Scheduler[T]) CancelAll() {
	clear(s.tasks)
	s.tasks = s.tasks[:0]
}

// Pending returns pending tasks ordered by due time, then schedule order.
func (s *Scheduler[T]) Pending() []Entry[T] {
	ordered := make([]*task[T], len(s.tasks))
	copy(ordered, s.tasks)
	sortTasks(ordered)
	out := make([]Entry[T], len(ordered))
	for i, t := range ordered {
		out[i] = Entry[T]{Due: t.due, Group: t.group, Payload: t.payload}
	}
	return out
}

// PendingIn returns the pending tasks of one group, ordered like Pending.
func (s *Scheduler[T]) PendingIn(group Group) []Entry[T] {
	var out []Entry[T]
	for _, e := range s.Pending() {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

// Update advances the clock by dt and fires every task that is due.
// Tasks created while firing fire in the same call if they are already due.
func (s *Scheduler[T]) Update(dt time.Duration) {
	s.now += dt
	for {
		t := s.popDue()
		if t == nil {
			return
		}
		ctx := &Context[T]{t: t}
		s.fire(ctx)
		if ctx.repeat {
			s.push(t, ctx.repeatDelay)
		}
	}
}

func (s *Scheduler[T]) popDue() *task[T] {
	best := -1
	for i, t := range s.tasks {
		if t.due > s.now {
			continue
		}
		if best < 0 || less(t, s.tasks[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	t := s.tasks[best]
	s.tasks = append(s.tasks[:best], s.tasks[best+1:]...)
	return t
}

func less[T any](a, b *task[T]) bool {
	if a.due != b.due {
		return a.due < b.due
	}
	return a.seq < b.seq
}

func sortTasks[T any](ts []*task[T]) {
	sort.Slice(ts, func(i, j int) bool { return less(ts[i], ts[j]) })
}

// Context is handed to the fire function for the task being run.
type Context[T any] struct {
	t           *task[T]
	repeat      bool
	repeatDelay time.Duration
}

func (c *Context[T]) Payload() T   { return c.t.payload }
func (c *Context[T]) Group() Group { return c.t.group }

// Repeat re-enqueues this task after delay once the fire function returns.
// The last call wins.
func (c *Context[T]) Repeat(delay time.Duration) {
	c.repeat = true
	c.repeatDelay = delay
}

// SetGroup retags the task; only meaningful together with Repeat.
func (c *Context[T]) SetGroup(g Group) {
	c.t.group = g
}
