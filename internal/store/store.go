// Package store is the keyed document store behind users, soil types and
// distributors. Documents are JSON objects addressed by (collection, key).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("document not found")

type Fields map[string]any

type Document struct {
	Key    string
	Fields Fields
}

// Store is the record store contract. Per-key operations are atomic.
type Store interface {
	Get(ctx context.Context, collection, key string) (Document, bool, error)
	// Put creates or overwrites the document at key.
	Put(ctx context.Context, collection, key string, fields Fields) error
	// Create stores fields under a freshly generated key and returns it.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Query returns documents whose field equals value, oldest first.
	// An empty field returns the whole collection.
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error
}

// Decode unmarshals the document fields into v.
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Key, err)
	}
	return nil
}

// FieldsOf converts a JSON-tagged struct into document fields.
func FieldsOf(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return decodeFields(raw)
}

func decodeFields(raw []byte) (Fields, error) {
	f := Fields{}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return f, nil
}

// matches compares a stored value against a query value the way Postgres
// compares `fields->>'k'` text.
func matches(stored any, value string) bool {
	switch v := stored.(type) {
	case nil:
		return false
	case string:
		return v == value
	default:
		raw, err := json.Marshal(v)
		return err == nil && string(raw) == value
	}
}
