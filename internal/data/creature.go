package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CreatureTemplate holds static data for a creature entry loaded from YAML.
type CreatureTemplate struct {
	Entry      uint32  `yaml:"entry"`
	Name       string  `yaml:"name"`
	Health     uint32  `yaml:"health"`
	NpcFlags   uint32  `yaml:"npc_flags"`
	UnitFlags  uint32  `yaml:"unit_flags"`
	ScriptName string  `yaml:"script_name"`
	BossID     *uint32 `yaml:"boss_id,omitempty"` // encounter completed when this creature dies
}

// SpawnEntry places a static creature when an instance of MapID is created.
type SpawnEntry struct {
	Entry        uint32  `yaml:"entry"`
	MapID        uint32  `yaml:"map_id"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Z            float64 `yaml:"z"`
	O            float64 `yaml:"o"`
	RespawnDelay int     `yaml:"respawn_delay"` // seconds, 0 = never
}

type creatureListFile struct {
	Creatures []CreatureTemplate `yaml:"creatures"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// CreatureTable holds all creature templates indexed by entry.
type CreatureTable struct {
	templates map[uint32]*CreatureTemplate
}

// LoadCreatureTable loads creature templates from a YAML file.
func LoadCreatureTable(path string) (*CreatureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature_template: %w", err)
	}
	return ParseCreatureTable(raw)
}

// ParseCreatureTable decodes creature templates from YAML bytes.
func ParseCreatureTable(raw []byte) (*CreatureTable, error) {
	var f creatureListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse creature_template: %w", err)
	}
	t := &CreatureTable{templates: make(map[uint32]*CreatureTemplate, len(f.Creatures))}
	for i := range f.Creatures {
		c := &f.Creatures[i]
		if _, dup := t.templates[c.Entry]; dup {
			return nil, fmt.Errorf("parse creature_template: duplicate entry %d", c.Entry)
		}
		t.templates[c.Entry] = c
	}
	return t, nil
}

// Get returns a creature template by entry, or nil if not found.
// A nil table returns nil for every entry.
func (t *CreatureTable) Get(entry uint32) *CreatureTemplate {
	if t == nil {
		return nil
	}
	return t.templates[entry]
}

// Count returns the number of loaded templates.
func (t *CreatureTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.templates)
}

// LoadSpawnList loads static spawns from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature_spawn: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse creature_spawn: %w", err)
	}
	return f.Spawns, nil
}
