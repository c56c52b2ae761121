package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/ez"
	mdw "go-gin-chat-moderation/internal/transport/http/middleware"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

func NewAuthHandler(a *service.AuthService, l *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: a, log: l}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userPage struct {
	Total int64         `json:"total"`
	Items []domain.User `json:"items"`
}

func (h *AuthHandler) MountAPI(public, private *gin.RouterGroup) {
	pub := ez.New(public, h.log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*domain.User, error) {
			return h.auth.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(pub, ez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return h.auth.Login(c.Request.Context(), in.Username, in.Password)
		},
	})

	priv := ez.New(private, h.log)
	ez.RegisterAction(priv, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			// ActiveUser already loaded the caller
			if u, ok := c.Get(mdw.KeyUser); ok {
				return u.(*domain.User), nil
			}
			return h.auth.EnsureActive(c.Request.Context(), ez.UserID(c))
		},
	})

	ez.RegisterAction(priv, ez.Action[service.ChangePasswordInput, gin.H]{
		Method: http.MethodPut,
		Path:   "/me/password",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.ChangePasswordInput) (gin.H, error) {
			if err := h.auth.ChangePassword(c.Request.Context(), ez.UserID(c), *in); err != nil {
				return nil, err
			}
			return gin.H{"changed": true}, nil
		},
	})
}

func (h *AuthHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)

	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // username/email substring
	}
	ez.RegisterAction(e, ez.Action[listQ, userPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listQ) (userPage, error) {
			users, total, err := h.auth.ListUsers(c.Request.Context(), ez.UserID(c), in.Q, in.Offset, in.Limit)
			if err != nil {
				return userPage{}, err
			}
			return userPage{Total: total, Items: users}, nil
		},
	})
}
