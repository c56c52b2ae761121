package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/transport/http/ez"
	resp "go-gin-chat-moderation/internal/transport/http/response"
)

const KeyUser = "user"

type ActiveChecker interface {
	EnsureActive(ctx context.Context, userID uint) (*domain.User, error)
}

// ActiveUser runs after AuthJWT. A token stays valid until it expires, so
// bans and suspensions issued since login are enforced here.
func ActiveUser(chk ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := chk.EnsureActive(c.Request.Context(), ez.UserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.FromError(err))
			return
		}
		c.Set(KeyUser, u)
		c.Next()
	}
}
