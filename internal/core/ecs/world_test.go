package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolNeverHandsOutZero(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.True(t, p.Alive(id))
	assert.False(t, p.Alive(0))
}

func TestDestroyInvalidatesStaleIDs(t *testing.T) {
	w := NewWorld()
	store := NewStore[int]()
	w.Register(store)

	id := w.CreateEntity()
	v := 7
	store.Set(id, &v)

	w.MarkForDestruction(id)
	require.Equal(t, 1, w.Pending())
	w.FlushDestroyQueue()

	assert.False(t, w.Alive(id))
	assert.False(t, store.Has(id))

	reused := w.CreateEntity()
	assert.Equal(t, id.Index(), reused.Index())
	assert.NotEqual(t, id, reused)
	assert.False(t, w.Alive(id))
}

func TestStoreEachIsOrdered(t *testing.T) {
	w := NewWorld()
	store := NewStore[string]()
	var ids []EntityID
	for _, name := range []string{"a", "b", "c"} {
		id := w.CreateEntity()
		n := name
		store.Set(id, &n)
		ids = append(ids, id)
	}
	var seen []EntityID
	store.Each(func(id EntityID, _ *string) {
		seen = append(seen, id)
		store.Remove(id)
	})
	assert.Equal(t, ids, seen)
	assert.Zero(t, store.Len())
}
