package script

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// InstanceFactory builds the controller for one new instance of a map.
// Factories must not keep state between calls.
type InstanceFactory func(m InstanceMap, log *zap.Logger) InstanceScript

type instanceEntry struct {
	name    string
	mapID   uint32
	factory InstanceFactory
}

// Registry holds every script known to the process. It is filled once at
// startup by each script package's Register function and read-only afterwards.
type Registry struct {
	instances map[uint32]*instanceEntry
	creatures map[string]CreatureScript
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		instances: make(map[uint32]*instanceEntry),
		creatures: make(map[string]CreatureScript),
		log:       log,
	}
}

// AddInstanceScript binds a controller factory to mapID.
func (r *Registry) AddInstanceScript(name string, mapID uint32, factory InstanceFactory) error {
	if prev, ok := r.instances[mapID]; ok {
		return fmt.Errorf("map %d already scripted by %s", mapID, prev.name)
	}
	for _, e := range r.instances {
		if e.name == name {
			return fmt.Errorf("instance script %s already registered for map %d", name, e.mapID)
		}
	}
	r.instances[mapID] = &instanceEntry{name: name, mapID: mapID, factory: factory}
	r.log.Debug("registered instance script", zap.String("name", name), zap.Uint32("map", mapID))
	return nil
}

// AddCreatureScript registers s under s.Name().
func (r *Registry) AddCreatureScript(s CreatureScript) error {
	name := s.Name()
	if _, ok := r.creatures[name]; ok {
		return fmt.Errorf("creature script %s already registered", name)
	}
	r.creatures[name] = s
	r.log.Debug("registered creature script", zap.String("name", name))
	return nil
}

// NewInstanceScript builds the controller for mapID. The second result is
// false when no script is bound to the map.
func (r *Registry) NewInstanceScript(mapID uint32, m InstanceMap) (InstanceScript, bool) {
	e, ok := r.instances[mapID]
	if !ok {
		return nil, false
	}
	return e.factory(m, r.log.With(zap.String("script", e.name), zap.Uint32("instance", m.InstanceID()))), true
}

// InstanceScriptName returns the script bound to mapID, or "".
func (r *Registry) InstanceScriptName(mapID uint32) string {
	if e, ok := r.instances[mapID]; ok {
		return e.name
	}
	return ""
}

// CreatureScript returns the script registered under name, or nil.
func (r *Registry) CreatureScript(name string) CreatureScript {
	if name == "" {
		return nil
	}
	return r.creatures[name]
}

// Names lists all registered script names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.instances)+len(r.creatures))
	for _, e := range r.instances {
		names = append(names, e.name)
	}
	for n := range r.creatures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
