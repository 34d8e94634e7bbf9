package packet

// Client → server opcodes handled by the encounter host.
const (
	C_OPCODE_GOSSIP_HELLO  byte = 0x17
	C_OPCODE_GOSSIP_SELECT byte = 0x18
)

// Server → client opcodes.
const (
	S_OPCODE_UPDATE_WORLD_STATE byte = 0x2C
	S_OPCODE_GOSSIP_MESSAGE     byte = 0x7D
	S_OPCODE_GOSSIP_COMPLETE    byte = 0x7E
	S_OPCODE_MONSTER_SAY        byte = 0x81
)
