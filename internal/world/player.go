package world

import (
	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/script"
)

// Player is a player inside an Instance. It implements script.Player and
// collects every server packet addressed to it in an outbox.
type Player struct {
	guid      ecs.EntityID
	name      string
	gm        bool
	inVehicle bool
	inst      *Instance

	quests      map[uint32]script.QuestStatus
	worldStates map[uint32]uint32
	gossip      []packet.GossipOption
	menuOpen    bool
	outbox      [][]byte
}

// NewPlayer creates a player outside any instance. The guid is assigned on
// Instance.AddPlayer.
func NewPlayer(name string, gm bool) *Player {
	return &Player{
		name:        name,
		gm:          gm,
		quests:      make(map[uint32]script.QuestStatus),
		worldStates: make(map[uint32]uint32),
	}
}

func (p *Player) GUID() ecs.EntityID { return p.guid }
func (p *Player) Name() string { return p.name }
func (p *Player) IsGameMaster() bool { return p.gm }
func (p *Player) InVehicle() bool { return p.inVehicle }

// SetInVehicle mounts or dismounts the player.
func (p *Player) SetInVehicle(v bool) { p.inVehicle = v }

// Instance returns the instance the player is in, or nil.
func (p *Player) Instance() *Instance { return p.inst }

// SetQuestStatus puts a quest into the given state in the player's log.
func (p *Player) SetQuestStatus(questID uint32, status script.QuestStatus) {
	p.quests[questID] = status
}

func (p *Player) QuestStatus(questID uint32) script.QuestStatus {
	return p.quests[questID]
}

// AreaExploredOrEventHappens completes an incomplete quest objective.
func (p *Player) AreaExploredOrEventHappens(questID uint32) {
	if p.quests[questID] == script.QuestIncomplete {
		p.quests[questID] = script.QuestComplete
	}
}

func (p *Player) SendUpdateWorldState(id, value uint32) {
	p.worldStates[id] = value
	p.send(packet.UpdateWorldState(id, value))
}

// WorldState returns the last value the player received for id.
func (p *Player) WorldState(id uint32) (uint32, bool) {
	v, ok := p.worldStates[id]
	return v, ok
}

func (p *Player) AddGossipItem(icon script.GossipIcon, text string, sender, action uint32) {
	p.gossip = append(p.gossip, packet.GossipOption{
		Icon:   byte(icon),
		Text:   text,
		Sender: sender,
		Action: action,
	})
}

// SendGossipMenu flushes the pending items as one gossip menu.
func (p *Player) SendGossipMenu(textID uint32, source ecs.EntityID) {
	p.send(packet.GossipMessage(uint64(source), textID, p.gossip))
	p.gossip = p.gossip[:0]
	p.menuOpen = true
}

func (p *Player) CloseGossipMenu() {
	p.gossip = p.gossip[:0]
	p.menuOpen = false
	p.send(packet.GossipComplete())
}

// GossipOpen reports whether a gossip menu is currently shown.
func (p *Player) GossipOpen() bool { return p.menuOpen }

// Outbox returns the packets sent so far without clearing them.
func (p *Player) Outbox() [][]byte { return p.outbox }

// DrainOutbox returns and clears the packets sent so far.
func (p *Player) DrainOutbox() [][]byte {
	out := p.outbox
	p.outbox = nil
	return out
}

func (p *Player) send(pkt []byte) {
	p.outbox = append(p.outbox, pkt)
}
