package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/core/server"
	"go-gin-chat-moderation/internal/transport/http/ez"
	mdw "go-gin-chat-moderation/internal/transport/http/middleware"
)

type EngineOpts struct {
	RequestTimeout time.Duration
}

func (o EngineOpts) timeout() time.Duration {
	if o.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return o.RequestTimeout
}

// base is the engine both processes share: request logging, recovery, CORS,
// the protective middleware chain, /health and /metrics.
func base(l *zap.Logger, opts EngineOpts) *gin.Engine {
	ez.RegisterValidators()
	r := server.NewRouter(l)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(50, 100),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(opts.timeout()),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func NewAPIEngine(l *zap.Logger, jwter *auth.JWTer, active mdw.ActiveChecker, reg *Registry, opts EngineOpts) *gin.Engine {
	r := base(l, opts)

	api := r.Group("/api/v1")
	private := api.Group("")
	private.Use(mdw.AuthJWT(jwter, ""), mdw.ActiveUser(active))

	reg.MountAllAPI(api, private)
	return r
}
