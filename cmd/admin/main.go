package main

import (
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/app"
	"go-gin-chat-moderation/internal/core/config"
	"go-gin-chat-moderation/internal/core/logger"
	"go-gin-chat-moderation/internal/core/server"
	"go-gin-chat-moderation/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate(cfg.Log.File))
	defer cleanup()
	defer logger.RedirectStdLog(log, zap.InfoLevel)()

	a, closeApp, err := app.New(cfg, log.Named("admin"))
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer closeApp()

	r := router.NewAdminEngine(log, a.JWT, a.Auth, a.Registry, a.Opts)

	// the admin server reuses the http timeouts of the user api
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	baseURL := server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)
	server.Run(srv, log, "admin api", 10*time.Second)
}
