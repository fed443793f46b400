// Package users keeps one UserRecord per uid in the record store.
package users

import (
	"context"
	"errors"
	"fmt"

	"rootify-backend/internal/models"
	"rootify-backend/internal/store"
)

const Collection = "users"

var (
	ErrNotFound = errors.New("user record not found")
	ErrExists   = errors.New("user record already exists")
)

type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Get returns the record stored for uid. The role is returned as stored,
// even when it is not one the service recognizes.
func (r *Repository) Get(ctx context.Context, uid string) (*models.UserRecord, error) {
	doc, ok, err := r.store.Get(ctx, Collection, uid)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", uid, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	var rec models.UserRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	rec.UID = uid
	return &rec, nil
}

// Create writes the record for a uid seen for the first time. Records are
// never overwritten: there is no role-update path.
func (r *Repository) Create(ctx context.Context, rec *models.UserRecord) error {
	if rec.UID == "" {
		return fmt.Errorf("user record without uid")
	}
	_, ok, err := r.store.Get(ctx, Collection, rec.UID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", rec.UID, err)
	}
	if ok {
		return ErrExists
	}

	fields := store.Fields{
		"email":        rec.Email,
		"role":         string(rec.Role),
		"name":         rec.Name,
		"phone_number": rec.PhoneNumber,
		"region":       rec.Region,
	}
	if err := r.store.Put(ctx, Collection, rec.UID, fields); err != nil {
		return fmt.Errorf("create user %s: %w", rec.UID, err)
	}
	return nil
}
