package world

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/core/event"
	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/script"
	"go.uber.org/zap"
)

// Instance is one dungeon instance. It implements script.InstanceMap and
// owns the creatures, players and world states of the map.
// Accessed only from the game loop goroutine.
type Instance struct {
	id     uint32
	mapID  uint32
	heroic bool

	world *State
	log   *zap.Logger
	rng   *rand.Rand

	script     script.InstanceScript
	scriptName string

	creatures   *ecs.Store[Creature]
	players     []*Player
	worldStates map[uint32]uint32
	saved       string
	gridsLoaded int
	elapsed     time.Duration
}

func (i *Instance) ID() uint32 { return i.mapID }
func (i *Instance) InstanceID() uint32 { return i.id }
func (i *Instance) IsHeroic() bool { return i.heroic }
func (i *Instance) Rand() *rand.Rand { return i.rng }

// Script returns the instance script bound to this map.
func (i *Instance) Script() script.InstanceScript { return i.script }

// ScriptName returns the registered script name, "" for the default script.
func (i *Instance) ScriptName() string { return i.scriptName }

// Elapsed returns the total time this instance has been ticked.
func (i *Instance) Elapsed() time.Duration { return i.elapsed }

// Creature returns the creature with guid. Removed creatures resolve to nil.
func (i *Instance) Creature(guid ecs.EntityID) script.Creature {
	c := i.creature(guid)
	if c == nil {
		return nil
	}
	return c
}

// Lookup is Creature returning the concrete host type.
func (i *Instance) Lookup(guid ecs.EntityID) *Creature { return i.creature(guid) }

func (i *Instance) creature(guid ecs.EntityID) *Creature {
	c, ok := i.creatures.Get(guid)
	if !ok || c.removed {
		return nil
	}
	return c
}

// CreaturesByEntry returns the registered creatures with entry in guid order.
// With no entries every creature is returned.
func (i *Instance) CreaturesByEntry(entries ...uint32) []*Creature {
	out := make([]*Creature, 0, 8)
	i.creatures.Each(func(_ ecs.EntityID, c *Creature) {
		if len(entries) == 0 {
			out = append(out, c)
			return
		}
		for _, e := range entries {
			if c.entry == e {
				out = append(out, c)
				return
			}
		}
	})
	return out
}

// CreatureCount returns the number of registered creatures.
func (i *Instance) CreatureCount() int { return i.creatures.Len() }

func (i *Instance) SummonCreature(entry uint32, pos script.Position) script.Creature {
	c := i.spawn(entry, pos, &summonInfo{kind: script.SummonManualDespawn})
	if c == nil {
		return nil
	}
	return c
}

// Spawn places a static creature, as the spawn list does on creation.
func (i *Instance) Spawn(entry uint32, pos script.Position) *Creature {
	return i.spawn(entry, pos, nil)
}

func (i *Instance) spawn(entry uint32, pos script.Position, summon *summonInfo) *Creature {
	guid := i.world.ecs.CreateEntity()
	c := newCreature(guid, i.template(entry), i, pos)
	c.summon = summon
	if summon != nil && summon.kind == script.SummonTimedDespawn {
		c.despawnTimer = summon.despawn
	}
	i.creatures.Set(guid, c)

	if name := c.tmpl.ScriptName; name != "" {
		if cs := i.world.registry.CreatureScript(name); cs != nil {
			c.script = cs
			c.ai = cs.NewAI(c)
		} else {
			i.log.Warn("creature script not registered", zap.String("script", name), zap.Uint32("entry", entry))
		}
	}
	if c.ai == nil {
		c.ai = idleAI{}
	}
	c.ai.Reset()

	i.script.OnCreatureCreate(c)
	event.Emit(i.world.bus, event.CreatureSpawned{InstanceID: i.id, GUID: guid, Entry: c.entry})
	return c
}

// template falls back to a one-hit creature for entries missing from the table.
func (i *Instance) template(entry uint32) *data.CreatureTemplate {
	if t := i.world.creatures.Get(entry); t != nil {
		return t
	}
	return &data.CreatureTemplate{Entry: entry, Name: fmt.Sprintf("creature %d", entry), Health: 1}
}

func (i *Instance) removeCreature(c *Creature) {
	if c.removed {
		return
	}
	c.removed = true
	c.alive = false
	c.despawnTimer = 0
	c.respawnTimer = 0

	i.script.OnCreatureRemove(c)
	i.creatures.Remove(c.guid)
	i.world.ecs.MarkForDestruction(c.guid)
	event.Emit(i.world.bus, event.CreatureRemoved{InstanceID: i.id, GUID: c.guid, Entry: c.entry})
}

// LoadGrid activates the grid around x,y. Everything is always loaded here.
func (i *Instance) LoadGrid(x, y float64) {
	i.gridsLoaded++
	i.log.Debug("grid loaded", zap.Float64("x", x), zap.Float64("y", y))
}

// GridLoads returns how many times a script asked for a grid load.
func (i *Instance) GridLoads() int { return i.gridsLoaded }

// DoForAllPlayers visits players in arrival order.
func (i *Instance) DoForAllPlayers(fn func(script.Player)) {
	for _, p := range append([]*Player(nil), i.players...) {
		fn(p)
	}
}

func (i *Instance) PlayersCountExceptGMs() int {
	n := 0
	for _, p := range i.players {
		if !p.gm {
			n++
		}
	}
	return n
}

// Players returns the players in arrival order.
func (i *Instance) Players() []*Player { return append([]*Player(nil), i.players...) }

func (i *Instance) UpdateWorldState(id, value uint32) {
	i.worldStates[id] = value
	for _, p := range i.players {
		p.SendUpdateWorldState(id, value)
	}
	event.Emit(i.world.bus, event.WorldStateChanged{InstanceID: i.id, StateID: id, Value: value})
}

// WorldState returns the last broadcast value of a world state.
func (i *Instance) WorldState(id uint32) (uint32, bool) {
	v, ok := i.worldStates[id]
	return v, ok
}

func (i *Instance) SaveInstanceData(data string) {
	i.saved = data
	event.Emit(i.world.bus, event.InstanceSaved{InstanceID: i.id, MapID: i.mapID, Data: data})
}

// SavedData returns the last save string handed over by the script.
func (i *Instance) SavedData() string { return i.saved }

// AddPlayer moves p into the instance. The script sees the player already
// counted in PlayersCountExceptGMs.
func (i *Instance) AddPlayer(p *Player) {
	if p.inst != nil {
		p.inst.RemovePlayer(p)
	}
	if p.guid.IsZero() || !i.world.ecs.Alive(p.guid) {
		p.guid = i.world.ecs.CreateEntity()
	}
	p.inst = i
	i.players = append(i.players, p)

	event.Emit(i.world.bus, event.PlayerEntered{InstanceID: i.id, Player: p.guid, Name: p.name})
	i.script.OnPlayerEnter(p)
	i.log.Info("player entered", zap.String("player", p.name), zap.Bool("gm", p.gm))
}

// RemovePlayer takes p out of the instance before notifying the script.
func (i *Instance) RemovePlayer(p *Player) {
	idx := -1
	for n, q := range i.players {
		if q == p {
			idx = n
			break
		}
	}
	if idx < 0 {
		return
	}
	i.players = append(i.players[:idx], i.players[idx+1:]...)
	p.inst = nil

	event.Emit(i.world.bus, event.PlayerLeft{InstanceID: i.id, Player: p.guid, Name: p.name})
	i.script.OnPlayerLeave(p)
	i.log.Info("player left", zap.String("player", p.name))
}

// DealDamage applies damage from attacker to the creature with guid after the
// target's AI had a chance to lower it. It returns the damage applied.
func (i *Instance) DealDamage(attacker script.Creature, guid ecs.EntityID, amount uint32) uint32 {
	c := i.creature(guid)
	if c == nil || !c.IsAlive() {
		return 0
	}
	c.ai.DamageTaken(attacker, &amount)
	if amount >= c.health {
		amount = c.health
		c.KillSelf()
		return amount
	}
	c.health -= amount
	return amount
}

// MovementInform reports a finished movement generator to the creature's AI.
func (i *Instance) MovementInform(guid ecs.EntityID, motion script.MotionType, pointID uint32) {
	if c := i.creature(guid); c != nil && c.IsAlive() {
		c.ai.MovementInform(motion, pointID)
	}
}

// GossipHello opens the creature's gossip for p. It returns false when the
// creature has no script or the script declined.
func (i *Instance) GossipHello(p *Player, guid ecs.EntityID) bool {
	c := i.creature(guid)
	if c == nil || c.script == nil || !c.IsAlive() {
		return false
	}
	return c.script.OnGossipHello(p, c)
}

// GossipSelect forwards a chosen gossip option to the creature's script.
func (i *Instance) GossipSelect(p *Player, guid ecs.EntityID, sender, action uint32) bool {
	c := i.creature(guid)
	if c == nil || c.script == nil || !c.IsAlive() {
		return false
	}
	return c.script.OnGossipSelect(p, c, sender, action)
}

// Update ticks creature timers, creature AIs, then the instance script.
func (i *Instance) Update(dt time.Duration) {
	i.elapsed += dt
	i.creatures.Each(func(_ ecs.EntityID, c *Creature) {
		c.tick(dt)
	})
	i.creatures.Each(func(_ ecs.EntityID, c *Creature) {
		if c.IsAlive() && c.IsAIEnabled() {
			c.ai.UpdateAI(dt)
		}
	})
	i.script.Update(dt)
}

// Advance ticks the instance in steps of at most step until d has elapsed.
func (i *Instance) Advance(d, step time.Duration) {
	if step <= 0 {
		step = d
	}
	for d > 0 {
		dt := step
		if d < dt {
			dt = d
		}
		i.Update(dt)
		d -= dt
	}
}
