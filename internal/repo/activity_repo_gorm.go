package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/domain"
)

// ActivityRepo has no update or delete: the audit trail is append-only.
type ActivityRepo struct{ db *gorm.DB }

func NewActivityRepo(db *gorm.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) WithTx(tx *gorm.DB) *ActivityRepo { return &ActivityRepo{db: tx} }

func (r *ActivityRepo) Append(ctx context.Context, l *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	var logs []domain.ActivityLog
	err := r.db.WithContext(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&logs).Error
	return logs, err
}

func (r *ActivityRepo) ForAdminSince(ctx context.Context, adminID uint, since time.Time) ([]domain.ActivityLog, error) {
	var logs []domain.ActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ?", adminID, since).
		Order("timestamp desc, id desc").
		Find(&logs).Error
	return logs, err
}
