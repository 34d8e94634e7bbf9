package handler

import (
	"github.com/l1jgo/encounter/internal/core/ecs"
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/world"
	"go.uber.org/zap"
)

// HandleGossipHello processes C_GOSSIP_HELLO: the player talks to a creature.
// The creature's script decides whether a menu is sent.
func HandleGossipHello(p *world.Player, r *packet.Reader, deps *Deps) {
	guid := ecs.EntityID(r.ReadQ())

	inst := p.Instance()
	if inst == nil {
		return
	}
	if !inst.GossipHello(p, guid) {
		deps.Log.Debug("gossip hello ignored",
			zap.String("player", p.Name()),
			zap.Stringer("npc", guid),
		)
	}
}

// HandleGossipSelect processes C_GOSSIP_SELECT: the player picks a menu option.
func HandleGossipSelect(p *world.Player, r *packet.Reader, deps *Deps) {
	guid := ecs.EntityID(r.ReadQ())
	sender := r.ReadD()
	action := r.ReadD()

	inst := p.Instance()
	if inst == nil {
		return
	}
	if !p.GossipOpen() {
		// Stale select after the menu was closed.
		deps.Log.Debug("gossip select without open menu",
			zap.String("player", p.Name()),
			zap.Uint32("action", action),
		)
		return
	}
	if !inst.GossipSelect(p, guid, sender, action) {
		p.CloseGossipMenu()
	}
}
