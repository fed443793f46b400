package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rootify-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate credential")
)

type CredentialRepository interface {
	ByUID(ctx context.Context, uid string) (*models.Credential, error)
	ByEmail(ctx context.Context, provider models.CredentialProvider, email string) (*models.Credential, error)
	Create(ctx context.Context, c *models.Credential) error
	Delete(ctx context.Context, uid string) error
}

type SessionRepository interface {
	Open(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	// DeleteExpired removes sessions that expired or were revoked before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GormCredentials persists credentials with gorm.
type GormCredentials struct {
	db *gorm.DB
}

func NewGormCredentials(db *gorm.DB) *GormCredentials {
	return &GormCredentials{db: db}
}

func (r *GormCredentials) ByUID(ctx context.Context, uid string) (*models.Credential, error) {
	var c models.Credential
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).Take(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormCredentials) ByEmail(ctx context.Context, provider models.CredentialProvider, email string) (*models.Credential, error) {
	var c models.Credential
	err := r.db.WithContext(ctx).
		Where("provider = ? AND email = ?", provider, email).
		Take(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormCredentials) Create(ctx context.Context, c *models.Credential) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *GormCredentials) Delete(ctx context.Context, uid string) error {
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&models.Credential{}).Error; err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// GormSessions persists sessions with gorm.
type GormSessions struct {
	db *gorm.DB
}

func NewGormSessions(db *gorm.DB) *GormSessions {
	return &GormSessions{db: db}
}

func (r *GormSessions) Open(ctx context.Context, s *models.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

func (r *GormSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormSessions) Revoke(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *GormSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", now, now).
		Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
