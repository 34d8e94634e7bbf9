package world

import (
	"fmt"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/data"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/script"
)

// SpellCast is one recorded CastSpell call.
type SpellCast struct {
	Caster    ecs.EntityID
	Target    ecs.EntityID // zero when cast without a target
	Spell     uint32
	Triggered bool
}

type summonInfo struct {
	kind    script.SummonType
	despawn time.Duration
	owner   ecs.EntityID
}

// Creature is a creature living in one Instance. It implements script.Creature.
// Accessed only from the game loop goroutine.
type Creature struct {
	guid  ecs.EntityID
	entry uint32
	tmpl  *data.CreatureTemplate
	inst  *Instance

	pos  script.Position
	home script.Position

	health    uint32
	maxHealth uint32
	alive     bool
	hidden    bool // despawned, waiting for respawn
	removed   bool // left the world, every call is ignored

	npcFlags   uint32
	unitFlags  uint32
	react      script.ReactState
	lootMode   uint16
	aiDisabled bool

	auras   []uint32
	casting uint32 // non-melee spell in progress

	summon       *summonInfo
	respawnDelay time.Duration // static spawns only

	// Timers count down in Instance.Update.
	despawnTimer   time.Duration
	despawnRespawn time.Duration
	respawnTimer   time.Duration

	ai     script.CreatureAI
	script script.CreatureScript

	talks   []uint8
	actions []int32
	casts   []SpellCast
}

// idleAI drives creatures without a creature script.
type idleAI struct{ script.NullAI }

func newCreature(guid ecs.EntityID, tmpl *data.CreatureTemplate, inst *Instance, pos script.Position) *Creature {
	c := &Creature{
		guid:     guid,
		entry:    tmpl.Entry,
		tmpl:     tmpl,
		inst:     inst,
		pos:      pos,
		home:     pos,
		lootMode: script.LootModeDefault,
		react:    script.ReactAggressive,
	}
	c.applyTemplate(tmpl)
	c.health = c.maxHealth
	c.alive = true
	return c
}

func (c *Creature) applyTemplate(tmpl *data.CreatureTemplate) {
	c.tmpl = tmpl
	c.entry = tmpl.Entry
	c.maxHealth = tmpl.Health
	if c.maxHealth == 0 {
		c.maxHealth = 1
	}
	c.npcFlags = tmpl.NpcFlags
	c.unitFlags = tmpl.UnitFlags
}

func (c *Creature) GUID() ecs.EntityID { return c.guid }
func (c *Creature) Entry() uint32 { return c.entry }
func (c *Creature) Name() string { return c.tmpl.Name }
func (c *Creature) IsAlive() bool { return c.alive && !c.hidden && !c.removed }
func (c *Creature) IsAIEnabled() bool { return c.ai != nil && !c.aiDisabled && !c.removed }
func (c *Creature) Health() uint32 { return c.health }
func (c *Creature) MaxHealth() uint32 { return c.maxHealth }
func (c *Creature) Position() script.Position { return c.pos }
func (c *Creature) HomePosition() script.Position { return c.home }

// InWorld reports whether the creature is still registered with its instance.
func (c *Creature) InWorld() bool { return !c.removed }

// Hidden reports a despawned creature waiting for its respawn timer.
func (c *Creature) Hidden() bool { return c.hidden }

// SetAIEnabled toggles the AI, as the host does for possessed or evading creatures.
func (c *Creature) SetAIEnabled(enabled bool) { c.aiDisabled = !enabled }

func (c *Creature) DespawnOrUnsummon(delay, respawn time.Duration) {
	if c.removed {
		return
	}
	if delay > 0 {
		c.despawnTimer = delay
		c.despawnRespawn = respawn
		return
	}
	c.despawnNow(respawn)
}

func (c *Creature) despawnNow(respawn time.Duration) {
	c.despawnTimer = 0
	if respawn > 0 {
		c.alive = false
		c.hidden = true
		c.casting = 0
		c.auras = nil
		c.respawnTimer = respawn
		return
	}
	c.inst.removeCreature(c)
}

func (c *Creature) Respawn() {
	if c.removed || c.IsAlive() {
		return
	}
	c.alive = true
	c.hidden = false
	c.health = c.maxHealth
	c.respawnTimer = 0
	c.despawnTimer = 0
	c.pos = c.home
	c.auras = nil
	c.casting = 0
	if c.ai != nil {
		c.ai.Reset()
	}
}

// KillSelf kills the creature. A corpse-timed summon starts its despawn timer
// and a creature bound to a boss completes that encounter.
func (c *Creature) KillSelf() {
	if !c.IsAlive() {
		return
	}
	c.alive = false
	c.health = 0
	c.casting = 0
	c.auras = nil

	switch {
	case c.summon != nil && c.summon.kind == script.SummonCorpseTimedDespawn:
		c.despawnTimer = c.summon.despawn
		c.despawnRespawn = 0
	case c.summon == nil && c.respawnDelay > 0:
		c.respawnTimer = c.respawnDelay
	}

	if c.tmpl.BossID != nil {
		c.inst.script.SetBossState(*c.tmpl.BossID, script.Done)
	}
}

func (c *Creature) UpdateEntry(entry uint32) {
	if c.removed || entry == c.entry {
		return
	}
	c.applyTemplate(c.inst.template(entry))
	if c.health > c.maxHealth {
		c.health = c.maxHealth
	}
}

func (c *Creature) SummonCreature(entry uint32, pos script.Position, kind script.SummonType, despawn time.Duration) script.Creature {
	if c.removed {
		return nil
	}
	s := c.inst.spawn(entry, pos, &summonInfo{kind: kind, despawn: despawn, owner: c.guid})
	if s == nil {
		return nil
	}
	return s
}

func (c *Creature) NearPosition(dist, angle float64) script.Position {
	return c.pos.Near(dist, angle)
}

func (c *Creature) CastSpell(target script.Creature, spellID uint32, triggered bool) {
	if !c.IsAlive() {
		return
	}
	cast := SpellCast{Caster: c.guid, Spell: spellID, Triggered: triggered}
	if target != nil {
		cast.Target = target.GUID()
		if t, ok := target.(*Creature); ok && t.IsAlive() {
			t.auras = append(t.auras, spellID)
		}
	}
	if !triggered {
		c.casting = spellID
	}
	c.casts = append(c.casts, cast)
}

func (c *Creature) InterruptNonMeleeSpells() { c.casting = 0 }

func (c *Creature) RemoveAllAuras() { c.auras = nil }

func (c *Creature) SetImmuneToNPC(immune bool) {
	if immune {
		c.unitFlags |= uint32(script.UnitFlagImmuneToNPC)
	} else {
		c.unitFlags &^= uint32(script.UnitFlagImmuneToNPC)
	}
}

func (c *Creature) SetReactState(state script.ReactState) { c.react = state }
func (c *Creature) SetLootMode(mode uint16) { c.lootMode = mode }
func (c *Creature) HasNpcFlag(flag script.NpcFlag) bool { return c.npcFlags&uint32(flag) != 0 }
func (c *Creature) RemoveNpcFlag(flag script.NpcFlag) { c.npcFlags &^= uint32(flag) }
func (c *Creature) SetUnitFlag(flag script.UnitFlag) { c.unitFlags |= uint32(flag) }

// Talk sends the text group to every player in the instance.
func (c *Creature) Talk(group uint8) {
	if c.removed {
		return
	}
	c.talks = append(c.talks, group)
	pkt := packet.MonsterSay(uint64(c.guid), c.entry, group)
	for _, p := range c.inst.players {
		p.send(pkt)
	}
}

func (c *Creature) DoAction(action int32) {
	if c.removed {
		return
	}
	c.actions = append(c.actions, action)
	if c.ai != nil {
		c.ai.DoAction(action)
	}
}

func (c *Creature) InstanceData() script.InstanceData {
	if c.inst == nil {
		return nil
	}
	return c.inst.script
}

// AI returns the creature's AI, nil for creatures outside the world.
func (c *Creature) AI() script.CreatureAI { return c.ai }

// Script returns the creature script bound by the template, or nil.
func (c *Creature) Script() script.CreatureScript { return c.script }

// Inspection accessors used by scenarios and tests.

func (c *Creature) Auras() []uint32 { return append([]uint32(nil), c.auras...) }
func (c *Creature) Casting() uint32 { return c.casting }
func (c *Creature) Casts() []SpellCast { return append([]SpellCast(nil), c.casts...) }
func (c *Creature) Talks() []uint8 { return append([]uint8(nil), c.talks...) }
func (c *Creature) Actions() []int32 { return append([]int32(nil), c.actions...) }
func (c *Creature) LootMode() uint16 { return c.lootMode }
func (c *Creature) ReactState() script.ReactState { return c.react }
func (c *Creature) NpcFlags() uint32 { return c.npcFlags }
func (c *Creature) UnitFlags() uint32 { return c.unitFlags }
func (c *Creature) ImmuneToNPC() bool { return c.unitFlags&uint32(script.UnitFlagImmuneToNPC) != 0 }
func (c *Creature) DespawnPending() bool { return c.despawnTimer > 0 }

// SummonKind returns the summon type and despawn duration; ok is false for static spawns.
func (c *Creature) SummonKind() (kind script.SummonType, despawn time.Duration, ok bool) {
	if c.summon == nil {
		return 0, 0, false
	}
	return c.summon.kind, c.summon.despawn, true
}

// Summoner returns the guid of the creature that summoned this one.
func (c *Creature) Summoner() ecs.EntityID {
	if c.summon == nil {
		return 0
	}
	return c.summon.owner
}

func (c *Creature) String() string {
	return fmt.Sprintf("%s(%d)[%s]", c.tmpl.Name, c.entry, c.guid)
}

// tick advances despawn and respawn timers.
func (c *Creature) tick(dt time.Duration) {
	if c.despawnTimer > 0 {
		c.despawnTimer -= dt
		if c.despawnTimer <= 0 {
			c.despawnNow(c.despawnRespawn)
			return
		}
	}
	if c.respawnTimer > 0 {
		c.respawnTimer -= dt
		if c.respawnTimer <= 0 {
			c.Respawn()
		}
	}
}
