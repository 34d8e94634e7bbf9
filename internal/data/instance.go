package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InstanceTemplate describes an instanced map the host can create.
type InstanceTemplate struct {
	MapID      uint32 `yaml:"map_id"`
	Name       string `yaml:"name"`
	MaxPlayers int    `yaml:"max_players"`
	Heroic     bool   `yaml:"heroic"` // heroic difficulty available
}

type instanceListFile struct {
	Instances []InstanceTemplate `yaml:"instances"`
}

// InstanceTable holds instance templates indexed by map id.
type InstanceTable struct {
	maps map[uint32]*InstanceTemplate
}

// LoadInstanceTable loads instance_template.yaml.
func LoadInstanceTable(path string) (*InstanceTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance_template: %w", err)
	}
	var f instanceListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse instance_template: %w", err)
	}
	t := &InstanceTable{maps: make(map[uint32]*InstanceTemplate, len(f.Instances))}
	for i := range f.Instances {
		it := &f.Instances[i]
		t.maps[it.MapID] = it
	}
	return t, nil
}

// Get returns the template for mapID, or nil if the map is not instanced.
func (t *InstanceTable) Get(mapID uint32) *InstanceTemplate {
	if t == nil {
		return nil
	}
	return t.maps[mapID]
}

// Count returns the number of instance templates.
func (t *InstanceTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.maps)
}
