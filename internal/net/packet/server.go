package packet

// GossipOption is one selectable line of a gossip menu.
type GossipOption struct {
	Icon   byte
	Text   string
	Sender uint32
	Action uint32
}

// UpdateWorldState builds S_UPDATE_WORLD_STATE.
func UpdateWorldState(id, value uint32) []byte {
	w := NewWriter(S_OPCODE_UPDATE_WORLD_STATE)
	w.WriteD(id)
	w.WriteD(value)
	return w.Bytes()
}

// GossipMessage builds S_GOSSIP_MESSAGE: source guid, text id, then the options.
func GossipMessage(source uint64, textID uint32, options []GossipOption) []byte {
	w := NewWriter(S_OPCODE_GOSSIP_MESSAGE)
	w.WriteQ(source)
	w.WriteD(textID)
	w.WriteC(byte(len(options)))
	for i, o := range options {
		w.WriteC(byte(i))
		w.WriteC(o.Icon)
		w.WriteD(o.Sender)
		w.WriteD(o.Action)
		w.WriteS(o.Text)
	}
	return w.Bytes()
}

// GossipComplete builds S_GOSSIP_COMPLETE (closes the menu).
func GossipComplete() []byte {
	return NewWriter(S_OPCODE_GOSSIP_COMPLETE).Bytes()
}

// MonsterSay builds S_MONSTER_SAY for a creature text group.
func MonsterSay(source uint64, entry uint32, group byte) []byte {
	w := NewWriter(S_OPCODE_MONSTER_SAY)
	w.WriteQ(source)
	w.WriteD(entry)
	w.WriteC(group)
	return w.Bytes()
}

// GossipHello builds the client C_GOSSIP_HELLO packet.
func GossipHello(target uint64) []byte {
	w := NewWriter(C_OPCODE_GOSSIP_HELLO)
	w.WriteQ(target)
	return w.Bytes()
}

// GossipSelect builds the client C_GOSSIP_SELECT packet.
func GossipSelect(target uint64, sender, action uint32) []byte {
	w := NewWriter(C_OPCODE_GOSSIP_SELECT)
	w.WriteQ(target)
	w.WriteD(sender)
	w.WriteD(action)
	return w.Bytes()
}
