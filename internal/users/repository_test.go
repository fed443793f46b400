package users

import (
	"context"
	"testing"

	"rootify-backend/internal/models"
	"rootify-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	repo := NewRepository(s)

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, &models.UserRecord{
		UID: "u1", Email: "a@b.co", Role: models.RoleAdmin, Name: "Ada", PhoneNumber: "555", Region: "North",
	}))

	rec, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserRecord{UID: "u1", Email: "a@b.co", Role: models.RoleAdmin, Name: "Ada", PhoneNumber: "555", Region: "North"}, *rec)

	doc, ok, err := s.Get(ctx, Collection, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "555", doc.Fields["phone_number"])
}

func TestRepository_CreateOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())

	require.NoError(t, repo.Create(ctx, &models.UserRecord{UID: "u1", Role: models.RoleUser}))
	err := repo.Create(ctx, &models.UserRecord{UID: "u1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrExists)

	rec, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, rec.Role)
}

func TestRepository_UnknownRoleIsReturnedAsStored(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Put(ctx, Collection, "legacy", store.Fields{"email": "old@b.co", "role": "moderator"}))

	rec, err := NewRepository(s).Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, models.UserRole("moderator"), rec.Role)
	assert.False(t, rec.Role.Valid())
}

func TestRepository_CreateRequiresUID(t *testing.T) {
	assert.Error(t, NewRepository(store.NewMemory()).Create(context.Background(), &models.UserRecord{}))
}
