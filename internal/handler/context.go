package handler

import (
	"github.com/l1jgo/encounter/internal/net/packet"
	"github.com/l1jgo/encounter/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Log *zap.Logger
}

// RegisterAll registers all packet handlers into the registry. Sessions are
// *world.Player values.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	inWorld := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_GOSSIP_HELLO, inWorld,
		func(sess any, r *packet.Reader) {
			HandleGossipHello(sess.(*world.Player), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_GOSSIP_SELECT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleGossipSelect(sess.(*world.Player), r, deps)
		},
	)
}
