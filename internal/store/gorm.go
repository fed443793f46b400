package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rootify-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores documents in the documents table with a jsonb body.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Get(ctx context.Context, collection, key string) (Document, bool, error) {
	var row models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	f, err := decodeFields([]byte(row.Fields))
	if err != nil {
		return Document{}, false, err
	}
	return Document{Key: row.Key, Fields: f}, true, nil
}

func (s *Gorm) Put(ctx context.Context, collection, key string, fields Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	row := models.Document{Collection: collection, Key: key, Fields: string(raw)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Gorm) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	key := uuid.NewString()
	if err := s.Put(ctx, collection, key, fields); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Gorm) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	if field != "" {
		q = q.Where("fields ->> ? = ?", field, value)
	}

	var rows []models.Document
	if err := q.Order("created_at, key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		f, err := decodeFields([]byte(row.Fields))
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Key: row.Key, Fields: f})
	}
	return docs, nil
}

func (s *Gorm) Delete(ctx context.Context, collection, key string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}
