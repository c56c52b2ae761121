package handler

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/ez"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	log       *zap.Logger
}

func NewAnalyticsHandler(a *service.AnalyticsService, l *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, log: l}
}

type trendQ struct {
	Days int `form:"days,default=30"`
}

type limitQ struct {
	Limit int `form:"limit"`
}

func (h *AnalyticsHandler) MountAdmin(admin *gin.RouterGroup) {
	root := ez.New(admin, h.log)
	// rollups can get large; compress them
	e := root.Group("/analytics", gzip.Gzip(gzip.DefaultCompression))

	ez.RegisterAction(e, ez.Action[struct{}, *service.Overview]{
		Method: http.MethodGet,
		Path:   "/overview",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Overview, error) {
			return h.analytics.Overview(c.Request.Context(), ez.UserID(c))
		},
	})

	ez.RegisterAction(e, ez.Action[trendQ, []service.DayCount]{
		Method: http.MethodGet,
		Path:   "/messages-trend",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *trendQ) ([]service.DayCount, error) {
			return h.analytics.MessagesTrend(c.Request.Context(), ez.UserID(c), in.Days)
		},
	})

	ez.RegisterAction(e, ez.Action[limitQ, []repo.SenderCount]{
		Method: http.MethodGet,
		Path:   "/top-senders",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *limitQ) ([]repo.SenderCount, error) {
			return h.analytics.TopSenders(c.Request.Context(), ez.UserID(c), in.Limit)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []repo.Connection]{
		Method: http.MethodGet,
		Path:   "/connections",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]repo.Connection, error) {
			return h.analytics.Connections(c.Request.Context(), ez.UserID(c))
		},
	})

	ez.RegisterAction(e, ez.Action[limitQ, []domain.ActivityLog]{
		Method: http.MethodGet,
		Path:   "/activity",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *limitQ) ([]domain.ActivityLog, error) {
			return h.analytics.RecentActivity(c.Request.Context(), ez.UserID(c), in.Limit)
		},
	})

	ez.RegisterAction(root, ez.Action[struct{}, *service.Dashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Dashboard, error) {
			return h.analytics.Dashboard(c.Request.Context(), ez.UserID(c))
		},
	})
}
