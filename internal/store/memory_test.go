package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "users", "u1", Fields{"role": "user", "email": "a@b.c"}))
	require.NoError(t, m.Put(ctx, "users", "u1", Fields{"role": "admin"}))

	doc, ok, err := m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", doc.Key)
	assert.Equal(t, Fields{"role": "admin"}, doc.Fields)
}

func TestMemory_QueryFiltersAndKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	k1, err := m.Create(ctx, "soil_types", Fields{"name": "Loam", "addedByAdminUID": "a1"})
	require.NoError(t, err)
	_, err = m.Create(ctx, "soil_types", Fields{"name": "Clay", "addedByAdminUID": "a2"})
	require.NoError(t, err)
	k3, err := m.Create(ctx, "soil_types", Fields{"name": "Sand", "addedByAdminUID": "a1"})
	require.NoError(t, err)

	mine, err := m.Query(ctx, "soil_types", "addedByAdminUID", "a1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, k1, mine[0].Key)
	assert.Equal(t, k3, mine[1].Key)

	all, err := m.Query(ctx, "soil_types", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := m.Query(ctx, "distributors", "", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_QueryMatchesNonStringValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "soil_types", "s1", Fields{"pH": 6.5, "active": true}))

	hits, err := m.Query(ctx, "soil_types", "pH", "6.5")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = m.Query(ctx, "soil_types", "active", "true")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = m.Query(ctx, "soil_types", "missing", "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemory_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "distributors", "d1", Fields{"name": "Agro"}))

	require.NoError(t, m.Delete(ctx, "distributors", "d1"))
	require.NoError(t, m.Delete(ctx, "distributors", "d1"))
	require.NoError(t, m.Delete(ctx, "nothing", "d1"))

	_, ok, err := m.Get(ctx, "distributors", "d1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_DecodeAndFieldsOf(t *testing.T) {
	type rec struct {
		Name  string   `json:"name"`
		Crops []string `json:"crops"`
	}

	f, err := FieldsOf(rec{Name: "Loam", Crops: []string{"wheat", "maize"}})
	require.NoError(t, err)

	var got rec
	require.NoError(t, Document{Key: "k", Fields: f}.Decode(&got))
	assert.Equal(t, rec{Name: "Loam", Crops: []string{"wheat", "maize"}}, got)
}
