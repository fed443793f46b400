package identity

import (
	"context"
	"sync"
	"time"

	"rootify-backend/internal/models"
)

// MemoryCredentials is an in-process CredentialRepository.
type MemoryCredentials struct {
	mu    sync.RWMutex
	byUID map[string]models.Credential
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{byUID: make(map[string]models.Credential)}
}

func (r *MemoryCredentials) ByUID(_ context.Context, uid string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUID[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryCredentials) ByEmail(_ context.Context, provider models.CredentialProvider, email string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byUID {
		if c.Provider == provider && c.Email == email {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCredentials) Create(_ context.Context, c *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUID[c.UID]; ok {
		return ErrDuplicate
	}
	if c.Provider == models.ProviderPassword {
		for _, other := range r.byUID {
			if other.Provider == models.ProviderPassword && other.Email == c.Email {
				return ErrDuplicate
			}
		}
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.byUID[c.UID] = *c
	return nil
}

func (r *MemoryCredentials) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUID, uid)
	return nil
}

// MemorySessions is an in-process SessionRepository.
type MemorySessions struct {
	mu   sync.RWMutex
	byID map[string]models.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{byID: make(map[string]models.Session)}
}

func (r *MemorySessions) Open(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.byID[s.ID] = *s
	return nil
}

func (r *MemorySessions) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySessions) Revoke(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	s.RevokedAt = &at
	r.byID[id] = s
	return nil
}

func (r *MemorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		expired := !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
		revoked := s.RevokedAt != nil && s.RevokedAt.Before(now)
		if expired || revoked {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
