package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clubportal/internal/model"
)

// AuditLogRepository is append-only apart from the age-based purge.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	// ListRecent returns newest first; limit <= 0 returns every row.
	ListRecent(ctx context.Context, limit int) ([]model.AuditLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Omit("Actor").Create(entry).Error
}

func (r *auditLogRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	q := r.db.WithContext(ctx).Preload("Actor").Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AuditLog{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
