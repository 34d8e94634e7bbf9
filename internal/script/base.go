package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/l1jgo/encounter/internal/core/ecs"
)

// ObjectData binds a creature entry to a data id so scripts can look the
// creature up with GetCreature(dataID).
type ObjectData struct {
	Entry  uint32
	DataID uint32
}

// Base is the default instance script: boss states, tracked objects and a
// generic key/value store. Controllers embed it and override the hooks they need.
// Maps without a registered controller get a bare Base from the host.
type Base struct {
	Map InstanceMap

	header     string
	bosses     []EncounterState
	objectData map[uint32]uint32       // entry → data id
	objects    map[uint32]ecs.EntityID // data id → guid
	values     map[uint32]uint32
}

// NewBase creates a Base for bossCount encounters saved under header.
func NewBase(m InstanceMap, header string, bossCount int, objects []ObjectData) *Base {
	b := &Base{
		Map:        m,
		header:     header,
		bosses:     make([]EncounterState, bossCount),
		objectData: make(map[uint32]uint32, len(objects)),
		objects:    make(map[uint32]ecs.EntityID, len(objects)),
		values:     make(map[uint32]uint32),
	}
	for _, o := range objects {
		b.objectData[o.Entry] = o.DataID
	}
	return b
}

func (b *Base) Update(time.Duration) {}
func (b *Base) OnPlayerEnter(Player) {}
func (b *Base) OnPlayerLeave(Player) {}

// OnCreatureCreate records creatures listed in the object data table.
func (b *Base) OnCreatureCreate(c Creature) {
	if id, ok := b.objectData[c.Entry()]; ok {
		b.objects[id] = c.GUID()
	}
}

// OnCreatureRemove forgets a tracked object if it is the one being removed.
func (b *Base) OnCreatureRemove(c Creature) {
	if id, ok := b.objectData[c.Entry()]; ok && b.objects[id] == c.GUID() {
		delete(b.objects, id)
	}
}

// GetCreature resolves a tracked object; nil when absent or despawned.
func (b *Base) GetCreature(dataID uint32) Creature {
	guid, ok := b.objects[dataID]
	if !ok {
		return nil
	}
	return b.Map.Creature(guid)
}

// ObjectGUID returns the guid recorded for dataID.
func (b *Base) ObjectGUID(dataID uint32) (ecs.EntityID, bool) {
	guid, ok := b.objects[dataID]
	return guid, ok
}

func (b *Base) BossCount() int { return len(b.bosses) }

// BossState returns NotStarted for unknown ids.
func (b *Base) BossState(id uint32) EncounterState {
	if int(id) >= len(b.bosses) {
		return NotStarted
	}
	return b.bosses[id]
}

// SetBossState stores a transition and persists the instance. It returns false
// when id is unknown or the state does not change, and controllers must not
// react to a rejected transition.
func (b *Base) SetBossState(id uint32, state EncounterState) bool {
	if int(id) >= len(b.bosses) {
		return false
	}
	if b.bosses[id] == state {
		return false
	}
	b.bosses[id] = state
	b.SaveToDB()
	return true
}

func (b *Base) Data(key uint32) uint32 { return b.values[key] }

func (b *Base) SetData(key, value uint32) { b.values[key] = value }

// DoUpdateWorldState broadcasts a world state to all players in the map.
func (b *Base) DoUpdateWorldState(id, value uint32) {
	b.Map.UpdateWorldState(id, value)
}

// SaveToDB hands the current save string to the host.
func (b *Base) SaveToDB() {
	b.Map.SaveInstanceData(b.Save())
}

// Save encodes the boss states as "<header> <state>...".
func (b *Base) Save() string {
	var sb strings.Builder
	sb.WriteString(b.header)
	for _, s := range b.bosses {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(int(s)))
	}
	return sb.String()
}

// Load restores boss states written by Save. Encounters saved mid-fight come
// back as NotStarted since nobody is fighting after a restart.
func (b *Base) Load(data string) error {
	fields := strings.Fields(data)
	if len(fields) == 0 {
		return fmt.Errorf("empty instance data")
	}
	if fields[0] != b.header {
		return fmt.Errorf("instance data header %q, want %q", fields[0], b.header)
	}
	states := fields[1:]
	if len(states) != len(b.bosses) {
		return fmt.Errorf("instance data has %d boss states, want %d", len(states), len(b.bosses))
	}
	loaded := make([]EncounterState, len(states))
	for i, f := range states {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("boss state %d: %w", i, err)
		}
		s := EncounterState(v)
		if s < NotStarted || s > Special {
			return fmt.Errorf("boss state %d: invalid value %d", i, v)
		}
		if s == InProgress || s == Special {
			s = NotStarted
		}
		loaded[i] = s
	}
	copy(b.bosses, loaded)
	return nil
}
