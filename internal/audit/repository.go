package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"rootify-backend/internal/models"

	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, l *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *GormRepository) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.UserID != "" {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC").Limit(f.Limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// MemoryRepository backs the log when the service runs without Postgres.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID uint
	logs   []models.AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, l *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	r.logs = append(r.logs, *l)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.AuditLog, 0)
	for _, l := range r.logs {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
