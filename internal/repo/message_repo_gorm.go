package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/domain"
)

type MessageRepo struct{ db *gorm.DB }

func NewMessageRepo(db *gorm.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) WithTx(tx *gorm.DB) *MessageRepo { return &MessageRepo{db: tx} }

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindVisible is the normal read path: soft-deleted messages are absent.
func (r *MessageRepo) FindVisible(ctx context.Context, id uint) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).Where("id = ? AND deleted = ?", id, false).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAny includes soft-deleted rows; moderation needs the sender of a
// message even after it was hidden.
func (r *MessageRepo) FindAny(ctx context.Context, id uint) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID uint, offset, limit int) ([]domain.Message, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("deleted = ? AND (sender_id = ? OR receiver_id = ?)", false, userID, userID)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var msgs []domain.Message
	if err := tx.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	return res.RowsAffected > 0, res.Error
}

func (r *MessageRepo) CountVisible(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("deleted = ?", false).Count(&n).Error
	return n, err
}

// CreatedSince returns creation timestamps only; bucketing happens in Go so
// the query stays portable across drivers.
func (r *MessageRepo) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var ts []time.Time
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("deleted = ? AND created_at >= ?", false, since).
		Order("created_at").
		Pluck("created_at", &ts).Error
	return ts, err
}

type SenderCount struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Count    int64  `json:"messagesSent"`
}

func (r *MessageRepo) TopSenders(ctx context.Context, limit int) ([]SenderCount, error) {
	var rows []SenderCount
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("users.id AS user_id, users.username AS username, COUNT(messages.id) AS count").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.deleted = ?", false).
		Group("users.id, users.username").
		Order("count DESC, users.id").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type Connection struct {
	SenderID   uint  `json:"source"`
	ReceiverID uint  `json:"target"`
	Count      int64 `json:"count"`
}

func (r *MessageRepo) Connections(ctx context.Context) ([]Connection, error) {
	var rows []Connection
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("sender_id, receiver_id, COUNT(id) AS count").
		Where("receiver_id IS NOT NULL AND deleted = ?", false).
		Group("sender_id, receiver_id").
		Order("count DESC, sender_id, receiver_id").
		Scan(&rows).Error
	return rows, err
}
