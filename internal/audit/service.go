// Package audit records who created or deleted what.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"rootify-backend/internal/models"
)

// Entity types written to the log.
const (
	EntityUser        = "user"
	EntitySoilType    = "soil_type"
	EntityDistributor = "distributor"
)

type LogOptions struct {
	UserID      string
	UserName    string
	EntityType  string
	EntityKey   string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Filter struct {
	UserID     string
	EntityType string
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, l *models.AuditLog) error
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WriteLog stores one audit row. Callers log the error and carry on; a
// missing audit row never fails the operation being audited.
func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	// jsonb columns reject empty strings
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityKey:   opts.EntityKey,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := s.repo.Create(ctx, &log); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// List returns rows newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultListLimit
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}
	return s.repo.List(ctx, f)
}
