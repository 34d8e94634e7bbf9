package event

import "github.com/l1jgo/encounter/internal/core/ecs"

// Host events emitted by world.Instance.

type CreatureSpawned struct {
	InstanceID uint32
	GUID       ecs.EntityID
	Entry      uint32
}

type CreatureRemoved struct {
	InstanceID uint32
	GUID       ecs.EntityID
	Entry      uint32
}

type WorldStateChanged struct {
	InstanceID uint32
	StateID    uint32
	Value      uint32
}

// InstanceSaved carries the save string handed over by the instance script.
type InstanceSaved struct {
	InstanceID uint32
	MapID      uint32
	Data       string
}

type PlayerEntered struct {
	InstanceID uint32
	Player     ecs.EntityID
	Name       string
}

type PlayerLeft struct {
	InstanceID uint32
	Player     ecs.EntityID
	Name       string
}
