package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/core/metrics"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
)

const maxAuditBackoff = 250 * time.Millisecond

// AuditService appends admin actions to the activity log.
type AuditService struct {
	repo    *repo.ActivityRepo
	log     *zap.Logger
	retries int
	backoff time.Duration
	Now     func() time.Time
}

func NewAuditService(r *repo.ActivityRepo, cfg config.Audit, l *zap.Logger) *AuditService {
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	return &AuditService{
		repo:    r,
		log:     l.Named("audit"),
		retries: retries,
		backoff: time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		Now:     time.Now,
	}
}

// Record never fails the caller. The insert is retried with linear backoff
// capped at maxAuditBackoff; once the caller's context is done the remaining
// attempts run back to back. An entry lost after the last attempt is logged
// and counted in audit_write_failures_total.
func (s *AuditService) Record(ctx context.Context, adminID uint, action string) {
	wctx := context.WithoutCancel(ctx)
	expired := false
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		entry := &domain.ActivityLog{UserID: adminID, Action: action, Timestamp: s.Now().UTC()}
		if err = s.repo.Append(wctx, entry); err == nil {
			return
		}
		s.log.Warn("audit write failed",
			zap.Int("attempt", attempt), zap.Uint("admin_id", adminID), zap.Error(err))
		if attempt < s.retries && s.backoff > 0 && !expired {
			expired = !sleepCtx(ctx.Done(), min(time.Duration(attempt)*s.backoff, maxAuditBackoff))
		}
	}
	metrics.AuditFailures.Inc()
	s.log.Error("audit entry lost",
		zap.Uint("admin_id", adminID), zap.String("action", action), zap.Error(err))
}

// sleepCtx reports false when done fired before d elapsed.
func sleepCtx(done <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}

// RecordTx writes the entry inside tx so it commits or rolls back together
// with the action it documents.
func (s *AuditService) RecordTx(ctx context.Context, tx *gorm.DB, adminID uint, action string, details *string) error {
	entry := &domain.ActivityLog{UserID: adminID, Action: action, Details: details, Timestamp: s.Now().UTC()}
	if err := s.repo.WithTx(tx).Append(ctx, entry); err != nil {
		return domain.StoreErr("append audit entry", err)
	}
	return nil
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	logs, err := s.repo.Recent(ctx, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, domain.StoreErr("recent audit entries", err)
	}
	return nonNil(logs), nil
}

func (s *AuditService) ForAdmin(ctx context.Context, adminID uint, since time.Time) ([]domain.ActivityLog, error) {
	logs, err := s.repo.ForAdminSince(ctx, adminID, since)
	if err != nil {
		return nil, domain.StoreErr("audit entries for admin", err)
	}
	return nonNil(logs), nil
}
