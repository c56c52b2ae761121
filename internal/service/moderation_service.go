package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/core/metrics"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
)

const (
	maxReasonLen      = 255
	maxSuspensionDays = 3650
)

type ReviewResult struct {
	Flag        *domain.FlaggedContent `json:"flag"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
}

// ModerationService runs the flag → review → action → audit → notify
// workflow and the direct account actions (ban, unban, suspend).
type ModerationService struct {
	db       *gorm.DB
	users    *repo.UserRepo
	messages *repo.MessageRepo
	flags    *repo.FlagRepo
	auth     *AuthService
	audit    *AuditService
	notes    *NotificationService
	cfg      config.Moderation
	log      *zap.Logger
	Now      func() time.Time
}

func NewModerationService(
	db *gorm.DB,
	authSvc *AuthService,
	audit *AuditService,
	notes *NotificationService,
	cfg config.Moderation,
	l *zap.Logger,
) *ModerationService {
	return &ModerationService{
		db:       db,
		users:    repo.NewUserRepo(db),
		messages: repo.NewMessageRepo(db),
		flags:    repo.NewFlagRepo(db),
		auth:     authSvc,
		audit:    audit,
		notes:    notes,
		cfg:      cfg,
		log:      l.Named("moderation"),
		Now:      time.Now,
	}
}

// SubmitFlag records a report against a visible message. The flag is the
// primary write; notifying the reporter and the admins is best-effort.
func (s *ModerationService) SubmitFlag(ctx context.Context, messageID, reporterID uint, reason string) (*domain.FlaggedContent, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("reason is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return nil, domain.Invalid("reason exceeds %d characters", maxReasonLen)
	}
	m, err := s.messages.FindVisible(ctx, messageID)
	if err != nil {
		return nil, domain.StoreErr("find message", err)
	}
	if m == nil || (m.ReceiverID != nil && reporterID != m.SenderID && reporterID != *m.ReceiverID) {
		return nil, domain.NotFound("message %d", messageID)
	}

	f := &domain.FlaggedContent{
		MessageID: m.ID,
		UserID:    reporterID,
		Reason:    reason,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.flags.Create(ctx, f); err != nil {
		return nil, domain.StoreErr("create flag", err)
	}
	metrics.FlagsSubmitted.Inc()
	s.log.Info("message flagged",
		zap.Uint("flag_id", f.ID), zap.Uint("message_id", m.ID), zap.Uint("reporter_id", reporterID))

	s.notes.TryNotify(ctx, reporterID, domain.NotifyFlaggedContent,
		fmt.Sprintf("You have successfully flagged message ID %d. Reason: %s", m.ID, reason))
	if s.cfg.NotifyAdminsOnFlag {
		admins, err := s.users.ListAdmins(ctx)
		if err != nil {
			s.log.Warn("admin fan-out skipped", zap.Uint("flag_id", f.ID), zap.Error(err))
		}
		for _, a := range admins {
			s.notes.TryNotify(ctx, a.ID, domain.NotifyAdminAlert,
				fmt.Sprintf("Message ID %d flagged. Reason: %s", m.ID, reason))
		}
	}
	return f, nil
}

// ReviewFlag applies one review action. Claiming the flag, the action's own
// mutation and the audit entry commit together or not at all; of concurrent
// reviewers exactly one succeeds and the rest get ErrAlreadyReviewed.
func (s *ModerationService) ReviewFlag(ctx context.Context, flagID, adminID uint, action string) (*ReviewResult, error) {
	admin, err := s.auth.RequireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	act, err := domain.ParseReviewAction(action)
	if err != nil {
		return nil, err
	}

	var (
		flag *domain.FlaggedContent
		msg  *domain.Message
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flags := s.flags.WithTx(tx)
		messages := s.messages.WithTx(tx)

		f, err := flags.FindByID(ctx, flagID)
		if err != nil {
			return domain.StoreErr("find flag", err)
		}
		if f == nil {
			return domain.NotFound("flag %d", flagID)
		}
		if f.Reviewed {
			return domain.ErrAlreadyReviewed
		}
		m, err := messages.FindAny(ctx, f.MessageID)
		if err != nil {
			return domain.StoreErr("find message", err)
		}
		if m == nil {
			return domain.NotFound("message %d", f.MessageID)
		}

		now := s.Now().UTC()
		claimed, err := flags.MarkReviewed(ctx, f.ID, admin.ID, act.String(), now)
		if err != nil {
			return domain.StoreErr("mark flag reviewed", err)
		}
		if !claimed {
			return domain.ErrAlreadyReviewed
		}

		switch act {
		case domain.ActionDelete:
			if _, err := messages.SoftDelete(ctx, m.ID); err != nil {
				return domain.StoreErr("delete message", err)
			}
		case domain.ActionBan:
			if _, err := s.users.WithTx(tx).SetBanned(ctx, m.SenderID, true); err != nil {
				return domain.StoreErr("ban sender", err)
			}
		case domain.ActionWarn, domain.ActionIgnore:
		}

		details := fmt.Sprintf("flag %d, reason: %s", f.ID, f.Reason)
		if err := s.audit.RecordTx(ctx, tx, admin.ID,
			fmt.Sprintf("Action '%s' on message %d", act, m.ID), &details); err != nil {
			return err
		}

		f.Reviewed = true
		f.ReviewedBy = &admin.ID
		f.ReviewedAt = &now
		f.Action = act.String()
		flag, msg = f, m
		return nil
	})
	if err != nil {
		metrics.ReviewsApplied.WithLabelValues(act.String(), reviewOutcome(err)).Inc()
		if !isDomainErr(err) {
			err = domain.StoreErr("review transaction", err)
		}
		return nil, err
	}
	metrics.ReviewsApplied.WithLabelValues(act.String(), "ok").Inc()
	s.log.Info("flag reviewed",
		zap.Uint("flag_id", flag.ID), zap.Uint("admin_id", admin.ID), zap.String("action", act.String()))

	s.notifyReview(ctx, admin, flag, msg, act)
	return &ReviewResult{Flag: flag, Action: act.String(), Description: act.Outcome()}, nil
}

func (s *ModerationService) notifyReview(ctx context.Context, admin *domain.User, f *domain.FlaggedContent, m *domain.Message, act domain.ReviewAction) {
	s.notes.TryNotify(ctx, admin.ID, domain.NotifyAdminAction,
		fmt.Sprintf("Action taken: %s on message ID %d", act.Outcome(), m.ID))
	s.notes.TryNotify(ctx, f.UserID, domain.NotifyFlagResolved,
		fmt.Sprintf("Your flag on message ID %d has been reviewed. Outcome: %s", m.ID, act.Outcome()))

	switch act {
	case domain.ActionDelete:
		s.notes.TryNotify(ctx, m.SenderID, domain.NotifyMessageDeleted,
			fmt.Sprintf("Your message ID %d was removed by a moderator. Reason: %s", m.ID, f.Reason))
	case domain.ActionWarn:
		s.notes.TryNotify(ctx, m.SenderID, domain.NotifyWarning,
			fmt.Sprintf("You received a warning for message ID %d. Reason: %s", m.ID, f.Reason))
	case domain.ActionBan:
		s.notes.TryNotify(ctx, m.SenderID, domain.NotifyBan,
			fmt.Sprintf("Your account has been banned because of message ID %d. Reason: %s", m.ID, f.Reason))
	case domain.ActionIgnore:
	}
}

// PendingFlags lists unreviewed flags, newest first.
func (s *ModerationService) PendingFlags(ctx context.Context, adminID uint, offset, limit int) ([]domain.FlaggedContent, int64, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	flags, total, err := s.flags.ListPending(ctx, clampOffset(offset), clampLimit(limit, 20, 100))
	if err != nil {
		return nil, 0, domain.StoreErr("list pending flags", err)
	}
	return nonNil(flags), total, nil
}

func (s *ModerationService) BanUser(ctx context.Context, adminID, userID uint) (*domain.User, error) {
	admin, target, err := s.accountTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.SetBanned(ctx, target.ID, true); err != nil {
		return nil, domain.StoreErr("ban user", err)
	}
	target.IsBanned = true
	s.log.Info("user banned", zap.Uint("admin_id", admin.ID), zap.Uint("user_id", target.ID))

	s.audit.Record(ctx, admin.ID, fmt.Sprintf("Banned user %s", target.Username))
	s.notes.TryNotify(ctx, target.ID, domain.NotifyBan, "Your account has been banned by an administrator.")
	return target, nil
}

func (s *ModerationService) UnbanUser(ctx context.Context, adminID, userID uint) (*domain.User, error) {
	admin, target, err := s.accountTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.SetBanned(ctx, target.ID, false); err != nil {
		return nil, domain.StoreErr("unban user", err)
	}
	target.IsBanned = false
	s.log.Info("user unbanned", zap.Uint("admin_id", admin.ID), zap.Uint("user_id", target.ID))

	s.audit.Record(ctx, admin.ID, fmt.Sprintf("Unbanned user %s", target.Username))
	return target, nil
}

// SuspendUser blocks authentication for days days; days <= 0 uses the
// configured default.
func (s *ModerationService) SuspendUser(ctx context.Context, adminID, userID uint, days int) (*domain.User, error) {
	if days <= 0 {
		days = s.cfg.DefaultSuspensionDays
		if days <= 0 {
			days = 30
		}
	}
	if days > maxSuspensionDays {
		return nil, domain.Invalid("suspension cannot exceed %d days", maxSuspensionDays)
	}
	admin, target, err := s.accountTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}
	until := s.Now().UTC().AddDate(0, 0, days)
	if _, err := s.users.SetSuspendedUntil(ctx, target.ID, &until); err != nil {
		return nil, domain.StoreErr("suspend user", err)
	}
	target.SuspendedUntil = &until
	s.log.Info("user suspended",
		zap.Uint("admin_id", admin.ID), zap.Uint("user_id", target.ID), zap.Time("until", until))

	s.audit.Record(ctx, admin.ID, fmt.Sprintf("Suspended user %s for %d days", target.Username, days))
	s.notes.TryNotify(ctx, target.ID, domain.NotifySuspend,
		fmt.Sprintf("Your account has been suspended until %s.", until.Format("2006-01-02")))
	return target, nil
}

// SetRole grants or revokes the admin role. Admins cannot change their own
// role, so the last admin cannot lock everyone out by demoting themselves.
func (s *ModerationService) SetRole(ctx context.Context, adminID, userID uint, role string) (*domain.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, domain.Invalid("role must be %q or %q", domain.RoleUser, domain.RoleAdmin)
	}
	admin, target, err := s.accountTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}
	if _, err := s.users.SetRole(ctx, target.ID, role); err != nil {
		return nil, domain.StoreErr("set role", err)
	}
	prev := target.Role
	target.Role = role
	s.log.Info("user role changed", zap.Uint("admin_id", admin.ID), zap.Uint("user_id", target.ID),
		zap.String("from", prev), zap.String("to", role))

	s.audit.Record(ctx, admin.ID, fmt.Sprintf("Changed role of user %s from %s to %s", target.Username, prev, role))
	s.notes.TryNotify(ctx, target.ID, domain.NotifyRoleChange,
		fmt.Sprintf("Your account role is now %s.", role))
	return target, nil
}

func (s *ModerationService) accountTarget(ctx context.Context, adminID, userID uint) (*domain.User, *domain.User, error) {
	admin, err := s.auth.RequireAdmin(ctx, adminID)
	if err != nil {
		return nil, nil, err
	}
	if userID == admin.ID {
		return nil, nil, domain.Invalid("admins cannot act on their own account")
	}
	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, domain.StoreErr("find user", err)
	}
	if target == nil {
		return nil, nil, domain.NotFound("user %d", userID)
	}
	return admin, target, nil
}

func reviewOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return "already_reviewed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrAlreadyReviewed, domain.ErrStore,
		domain.ErrUnauthorized, domain.ErrValidation, domain.ErrInvalidAction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
