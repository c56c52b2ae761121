package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/core/cache"
	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
)

type Overview struct {
	TotalUsers       int64 `json:"totalUsers"`
	MessagesSent     int64 `json:"messagesSent"`
	ActiveUsers      int64 `json:"activeUsers"`
	ActiveWindowDays int   `json:"activeWindowDays"`
	BannedUsers      int64 `json:"bannedUsers"`
	SuspendedUsers   int64 `json:"suspendedUsers"`
	PendingFlags     int64 `json:"pendingFlags"`
}

type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int64  `json:"count"`
}

type Dashboard struct {
	Overview
	RecentFlags []domain.FlaggedContent `json:"recentFlags"`
	RecentUsers []domain.User           `json:"recentUsers"`
}

// AnalyticsService is read-only. Every query tolerates an empty store.
type AnalyticsService struct {
	users    *repo.UserRepo
	messages *repo.MessageRepo
	flags    *repo.FlagRepo
	audit    *AuditService
	auth     *AuthService
	cache    *cache.Cache // nil when redis is not configured
	cfg      config.Analytics
	log      *zap.Logger
	Now      func() time.Time
}

func NewAnalyticsService(
	users *repo.UserRepo,
	messages *repo.MessageRepo,
	flags *repo.FlagRepo,
	audit *AuditService,
	authSvc *AuthService,
	c *cache.Cache,
	cfg config.Analytics,
	l *zap.Logger,
) *AnalyticsService {
	if cfg.ActiveWindowDays <= 0 {
		cfg.ActiveWindowDays = 7
	}
	return &AnalyticsService{
		users: users, messages: messages, flags: flags,
		audit: audit, auth: authSvc, cache: c, cfg: cfg,
		log: l.Named("analytics"),
		Now: time.Now,
	}
}

// Overview is served from the read cache when one is configured.
func (s *AnalyticsService) Overview(ctx context.Context, adminID uint) (*Overview, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("analytics:overview:%d", s.cfg.ActiveWindowDays)
	ttl := time.Duration(s.cfg.CacheTTLSec) * time.Second
	if ttl <= 0 {
		return s.overview(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, key, ttl, s.overview)
}

func (s *AnalyticsService) overview(ctx context.Context) (*Overview, error) {
	now := s.Now().UTC()
	o := &Overview{ActiveWindowDays: s.cfg.ActiveWindowDays}
	steps := []struct {
		op  string
		dst *int64
		fn  func() (int64, error)
	}{
		{"count users", &o.TotalUsers, func() (int64, error) { return s.users.Count(ctx) }},
		{"count messages", &o.MessagesSent, func() (int64, error) { return s.messages.CountVisible(ctx) }},
		{"count active users", &o.ActiveUsers, func() (int64, error) {
			return s.users.CountActiveSince(ctx, now.AddDate(0, 0, -s.cfg.ActiveWindowDays))
		}},
		{"count banned users", &o.BannedUsers, func() (int64, error) { return s.users.CountBanned(ctx) }},
		{"count suspended users", &o.SuspendedUsers, func() (int64, error) { return s.users.CountSuspendedAt(ctx, now) }},
		{"count pending flags", &o.PendingFlags, func() (int64, error) { return s.flags.CountPending(ctx) }},
	}
	for _, st := range steps {
		n, err := st.fn()
		if err != nil {
			return nil, domain.StoreErr(st.op, err)
		}
		*st.dst = n
	}
	return o, nil
}

// MessagesTrend returns one entry per UTC day, oldest first, including days
// with no messages.
func (s *AnalyticsService) MessagesTrend(ctx context.Context, adminID uint, days int) ([]DayCount, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	days = clampLimit(days, 30, 365)
	today := s.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	stamps, err := s.messages.CreatedSince(ctx, start)
	if err != nil {
		return nil, domain.StoreErr("messages since", err)
	}
	out := make([]DayCount, days)
	index := make(map[string]int, days)
	for i := range out {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DayCount{Date: d}
		index[d] = i
	}
	for _, ts := range stamps {
		if i, ok := index[ts.UTC().Format(time.DateOnly)]; ok {
			out[i].Count++
		}
	}
	return out, nil
}

func (s *AnalyticsService) TopSenders(ctx context.Context, adminID uint, limit int) ([]repo.SenderCount, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	rows, err := s.messages.TopSenders(ctx, clampLimit(limit, 10, 100))
	if err != nil {
		return nil, domain.StoreErr("top senders", err)
	}
	return nonNil(rows), nil
}

func (s *AnalyticsService) RecentActivity(ctx context.Context, adminID uint, limit int) ([]domain.ActivityLog, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.audit.Recent(ctx, limit)
}

// Connections lists who talks to whom, one row per (sender, receiver) pair.
func (s *AnalyticsService) Connections(ctx context.Context, adminID uint) ([]repo.Connection, error) {
	if _, err := s.auth.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	rows, err := s.messages.Connections(ctx)
	if err != nil {
		return nil, domain.StoreErr("connections", err)
	}
	return nonNil(rows), nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context, adminID uint) (*Dashboard, error) {
	o, err := s.Overview(ctx, adminID)
	if err != nil {
		return nil, err
	}
	flags, err := s.flags.Recent(ctx, 5)
	if err != nil {
		return nil, domain.StoreErr("recent flags", err)
	}
	users, err := s.users.Recent(ctx, 5)
	if err != nil {
		return nil, domain.StoreErr("recent users", err)
	}
	return &Dashboard{Overview: *o, RecentFlags: nonNil(flags), RecentUsers: nonNil(users)}, nil
}
