// Package app wires config, store, cache and services into the route
// registry both binaries serve.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/core/cache"
	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/core/database"
	"go-gin-chat-moderation/internal/repo"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/handler"
	"go-gin-chat-moderation/internal/transport/http/router"
)

type App struct {
	DB       *gorm.DB
	Cache    *cache.Cache // nil without redis.addr
	JWT      *auth.JWTer
	Auth     *service.AuthService
	Registry *router.Registry
	Opts     router.EngineOpts
}

// New opens the store (migrating it when configured) and builds every
// service. The returned cleanup closes the store and the cache.
func New(cfg *config.Config, l *zap.Logger) (*App, func(), error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()
		if err != nil {
			// the cache is optional; analytics falls back to the store
			l.Warn("redis unavailable, analytics cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
			c = nil
		}
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	users := repo.NewUserRepo(db)
	messages := repo.NewMessageRepo(db)
	flags := repo.NewFlagRepo(db)

	authSvc := service.NewAuthService(users, jwter, l)
	notes := service.NewNotificationService(repo.NewNotificationRepo(db), l)
	audit := service.NewAuditService(repo.NewActivityRepo(db), cfg.Audit, l)
	msgSvc := service.NewMessageService(messages, users, l)
	mod := service.NewModerationService(db, authSvc, audit, notes, cfg.Moderation, l)
	analytics := service.NewAnalyticsService(users, messages, flags, audit, authSvc, c, cfg.Analytics, l)

	reg := router.NewRegistry(
		handler.NewAuthHandler(authSvc, l),
		handler.NewMessageHandler(msgSvc, l),
		handler.NewModerationHandler(mod, l),
		handler.NewNotificationHandler(notes, l),
		handler.NewAnalyticsHandler(analytics, l),
	)

	cleanup := func() {
		if c != nil {
			_ = c.Close()
		}
		if err := database.Close(db); err != nil {
			l.Warn("db close", zap.Error(err))
		}
	}
	return &App{
		DB:       db,
		Cache:    c,
		JWT:      jwter,
		Auth:     authSvc,
		Registry: reg,
		Opts:     router.EngineOpts{RequestTimeout: time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second},
	}, cleanup, nil
}
