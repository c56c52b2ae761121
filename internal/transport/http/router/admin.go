package router

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/domain"
	mdw "go-gin-chat-moderation/internal/transport/http/middleware"
)

// NewAdminEngine requires an admin token on every /admin/v1 route; the
// services still re-check the role against the store.
func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, active mdw.ActiveChecker, reg *Registry, opts EngineOpts) *gin.Engine {
	r := base(l, opts)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin), mdw.ActiveUser(active))

	reg.MountAllAdmin(admin)
	return r
}
