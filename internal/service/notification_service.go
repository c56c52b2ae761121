package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/core/metrics"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
)

const (
	defaultNotificationLimit = 10
	maxNotificationLimit     = 100
)

type NotificationService struct {
	repo *repo.NotificationRepo
	log  *zap.Logger
}

func NewNotificationService(r *repo.NotificationRepo, l *zap.Logger) *NotificationService {
	return &NotificationService{repo: r, log: l.Named("notification")}
}

// Notify stores a message for userID. It fails only when the store does.
func (s *NotificationService) Notify(ctx context.Context, userID uint, typ, message string) (*domain.Notification, error) {
	if userID == 0 || strings.TrimSpace(typ) == "" || strings.TrimSpace(message) == "" {
		return nil, domain.Invalid("notification needs user, type and message")
	}
	n := &domain.Notification{UserID: userID, Type: typ, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, domain.StoreErr("create notification", err)
	}
	return n, nil
}

// TryNotify is the best-effort form used after a primary write has
// committed: failures are logged and counted, never returned.
func (s *NotificationService) TryNotify(ctx context.Context, userID uint, typ, message string) {
	if _, err := s.Notify(context.WithoutCancel(ctx), userID, typ, message); err != nil {
		metrics.NotificationFailures.WithLabelValues(typ).Inc()
		s.log.Warn("notification dropped",
			zap.Uint("user_id", userID), zap.String("type", typ), zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]domain.Notification, error) {
	out, err := s.repo.ListByUser(ctx, userID, unreadOnly, clampLimit(limit, defaultNotificationLimit, maxNotificationLimit))
	if err != nil {
		return nil, domain.StoreErr("list notifications", err)
	}
	return nonNil(out), nil
}

// MarkRead is idempotent. It reports false when the notification does not
// exist or belongs to someone else.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (bool, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, domain.StoreErr("find notification", err)
	}
	if n == nil || n.UserID != userID {
		return false, nil
	}
	if n.IsRead {
		return true, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return false, domain.StoreErr("mark notification read", err)
	}
	return true, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, domain.StoreErr("mark all read", err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, domain.StoreErr("count unread", err)
	}
	return n, nil
}

// Delete is the maintenance path; normal flows never remove notifications.
func (s *NotificationService) Delete(ctx context.Context, id uint) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, domain.StoreErr("delete notification", err)
	}
	if ok {
		s.log.Info("notification deleted", zap.Uint("id", id))
	}
	return ok, nil
}

func (s *NotificationService) ListAll(ctx context.Context, limit int) ([]domain.Notification, error) {
	out, err := s.repo.ListAll(ctx, clampLimit(limit, 50, maxNotificationLimit))
	if err != nil {
		return nil, domain.StoreErr("list all notifications", err)
	}
	return nonNil(out), nil
}
