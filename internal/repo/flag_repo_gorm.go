package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/domain"
)

type FlagRepo struct{ db *gorm.DB }

func NewFlagRepo(db *gorm.DB) *FlagRepo { return &FlagRepo{db: db} }

func (r *FlagRepo) WithTx(tx *gorm.DB) *FlagRepo { return &FlagRepo{db: tx} }

func (r *FlagRepo) Create(ctx context.Context, f *domain.FlaggedContent) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FlagRepo) FindByID(ctx context.Context, id uint) (*domain.FlaggedContent, error) {
	var f domain.FlaggedContent
	err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// MarkReviewed closes an open flag. It only matches rows still unreviewed,
// so of two racing reviewers exactly one sees claimed == true.
func (r *FlagRepo) MarkReviewed(ctx context.Context, id, adminID uint, action string, at time.Time) (claimed bool, err error) {
	res := r.db.WithContext(ctx).Model(&domain.FlaggedContent{}).
		Where("id = ? AND reviewed = ?", id, false).
		Updates(map[string]any{
			"reviewed":    true,
			"reviewed_by": adminID,
			"reviewed_at": at,
			"action":      action,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *FlagRepo) ListPending(ctx context.Context, offset, limit int) ([]domain.FlaggedContent, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.FlaggedContent{}).Where("reviewed = ?", false)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var flags []domain.FlaggedContent
	if err := tx.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&flags).Error; err != nil {
		return nil, 0, err
	}
	return flags, total, nil
}

func (r *FlagRepo) Recent(ctx context.Context, limit int) ([]domain.FlaggedContent, error) {
	var flags []domain.FlaggedContent
	err := r.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&flags).Error
	return flags, err
}

func (r *FlagRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.FlaggedContent{}).Where("reviewed = ?", false).Count(&n).Error
	return n, err
}
