package service

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/core/database"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
	"go-gin-chat-moderation/pkg/utils"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// newTestDB opens a file-backed sqlite store with a single connection, so
// transactions serialise the way row locks do on a server database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "moderation.db") + "?_busy_timeout=5000"
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fixture struct {
	db        *gorm.DB
	logs      *observer.ObservedLogs
	jwt       *auth.JWTer
	auth      *AuthService
	notes     *NotificationService
	audit     *AuditService
	messages  *MessageService
	mod       *ModerationService
	analytics *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	utils.Cost = bcrypt.MinCost
	t.Cleanup(func() { utils.Cost = bcrypt.DefaultCost })

	db := newTestDB(t)
	core, logs := observer.New(zap.DebugLevel)
	l := zap.New(core)
	clock := func() time.Time { return testNow }

	users := repo.NewUserRepo(db)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}

	f := &fixture{db: db, logs: logs, jwt: jwter}
	f.auth = NewAuthService(users, jwter, l)
	f.auth.Now = clock
	f.notes = NewNotificationService(repo.NewNotificationRepo(db), l)
	f.audit = NewAuditService(repo.NewActivityRepo(db), config.Audit{Retries: 3}, l)
	f.audit.Now = clock
	f.messages = NewMessageService(repo.NewMessageRepo(db), users, l)
	f.mod = NewModerationService(db, f.auth, f.audit, f.notes,
		config.Moderation{NotifyAdminsOnFlag: true, DefaultSuspensionDays: 30}, l)
	f.mod.Now = clock
	f.analytics = NewAnalyticsService(users, repo.NewMessageRepo(db), repo.NewFlagRepo(db),
		f.audit, f.auth, nil, config.Analytics{ActiveWindowDays: 7}, l)
	f.analytics.Now = clock
	return f
}

func (f *fixture) user(t *testing.T, name, role string) *domain.User {
	t.Helper()
	return f.userWithID(t, 0, name, role)
}

func (f *fixture) userWithID(t *testing.T, id uint, name, role string) *domain.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := &domain.User{
		ID: id, Username: name, Email: name + "@example.com",
		FirstName: name, LastName: "Test", PasswordHash: hash, Role: role,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) message(t *testing.T, id, sender uint, content string) *domain.Message {
	t.Helper()
	m := &domain.Message{ID: id, SenderID: sender, Content: content, CreatedAt: testNow}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, dst any, id uint) {
	t.Helper()
	require.NoError(t, f.db.First(dst, id).Error)
}

var ctx = context.Background()

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
