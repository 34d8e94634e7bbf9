package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterPadsToFourBytes(t *testing.T) {
	w := NewWriter(0x01)
	w.WriteC(2)
	assert.Equal(t, 2, w.Len())
	assert.Len(t, w.Bytes(), 4)

	w = NewWriter(0x01)
	w.WriteH(1)
	w.WriteC(0)
	assert.Len(t, w.Bytes(), 4)
}

func TestGossipMessageRoundTrip(t *testing.T) {
	data := GossipMessage(0xABCDEF, 14688, []GossipOption{
		{Icon: 0, Text: "我準備好了。", Sender: 1, Action: 2338},
		{Icon: 0, Text: "ready", Sender: 1, Action: 2341},
	})

	r := NewReader(data)
	require.Equal(t, S_OPCODE_GOSSIP_MESSAGE, r.Opcode())
	assert.Equal(t, uint64(0xABCDEF), r.ReadQ())
	assert.Equal(t, uint32(14688), r.ReadD())
	require.Equal(t, byte(2), r.ReadC())

	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, uint32(1), r.ReadD())
	assert.Equal(t, uint32(2338), r.ReadD())
	assert.Equal(t, "我準備好了。", r.ReadS())

	assert.Equal(t, byte(1), r.ReadC())
	r.ReadC()
	r.ReadD()
	assert.Equal(t, uint32(2341), r.ReadD())
	assert.Equal(t, "ready", r.ReadS())
}

func TestReaderPastEndReturnsZero(t *testing.T) {
	r := NewReader([]byte{S_OPCODE_UPDATE_WORLD_STATE, 1})
	assert.Equal(t, uint32(0), r.ReadD())
	assert.Equal(t, byte(1), r.ReadC())
	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, "", r.ReadS())
	assert.Zero(t, r.Remaining())
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got uint64
	reg.Register(C_OPCODE_GOSSIP_HELLO, []SessionState{StateInWorld}, func(sess any, r *Reader) {
		got = r.ReadQ()
	})
	reg.Register(C_OPCODE_GOSSIP_SELECT, []SessionState{StateInWorld}, func(sess any, r *Reader) {
		panic("boom")
	})

	require.NoError(t, reg.Dispatch(nil, StateInWorld, GossipHello(42)))
	assert.Equal(t, uint64(42), got)

	assert.Error(t, reg.Dispatch(nil, StateLoading, GossipHello(43)))
	assert.Equal(t, uint64(42), got)

	assert.Error(t, reg.Dispatch(nil, StateInWorld, GossipSelect(42, 1, 2)))
	assert.NoError(t, reg.Dispatch(nil, StateInWorld, []byte{0xFF}))
	assert.Error(t, reg.Dispatch(nil, StateInWorld, nil))
}
