package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/ez"
)

// ModerationHandler serves flag submission on the user API and the review
// and account actions on the admin API.
type ModerationHandler struct {
	mod *service.ModerationService
	log *zap.Logger
}

func NewModerationHandler(m *service.ModerationService, l *zap.Logger) *ModerationHandler {
	return &ModerationHandler{mod: m, log: l}
}

type flagIn struct {
	MessageID uint   `json:"messageId" binding:"required"`
	Reason    string `json:"reason"    binding:"required,max=255"`
}

type reviewIn struct {
	Action string `json:"action" binding:"required,review_action"`
}

type suspendIn struct {
	Days int `json:"days" binding:"min=0"`
}

type roleIn struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

type flagPage struct {
	Total int64                   `json:"total"`
	Items []domain.FlaggedContent `json:"items"`
}

func (h *ModerationHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private, h.log)

	ez.RegisterAction(e, ez.Action[flagIn, *domain.FlaggedContent]{
		Method: http.MethodPost,
		Path:   "/flags",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *flagIn) (*domain.FlaggedContent, error) {
			return h.mod.SubmitFlag(c.Request.Context(), in.MessageID, ez.UserID(c), in.Reason)
		},
	})
}

func (h *ModerationHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)

	ez.RegisterAction(e, ez.Action[pageQ, flagPage]{
		Method: http.MethodGet,
		Path:   "/flags",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *pageQ) (flagPage, error) {
			flags, total, err := h.mod.PendingFlags(c.Request.Context(), ez.UserID(c), in.Offset, in.Limit)
			if err != nil {
				return flagPage{}, err
			}
			return flagPage{Total: total, Items: flags}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[reviewIn, *service.ReviewResult]{
		Method: http.MethodPost,
		Path:   "/flags/:id/review",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *reviewIn) (*service.ReviewResult, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.mod.ReviewFlag(c.Request.Context(), id, ez.UserID(c), in.Action)
		},
	})

	h.accountAction(e, "/users/:id/ban", h.mod.BanUser)
	h.accountAction(e, "/users/:id/unban", h.mod.UnbanUser)

	ez.RegisterAction(e, ez.Action[suspendIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/suspend",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *suspendIn) (*domain.User, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.mod.SuspendUser(c.Request.Context(), ez.UserID(c), id, in.Days)
		},
	})

	h.mountRole(e)
}

func (h *ModerationHandler) mountRole(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[roleIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *roleIn) (*domain.User, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.mod.SetRole(c.Request.Context(), ez.UserID(c), id, in.Role)
		},
	})
}

func (h *ModerationHandler) accountAction(e ez.EZ, path string, fn func(ctx context.Context, adminID, userID uint) (*domain.User, error)) {
	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodPost,
		Path:   path,
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return fn(c.Request.Context(), ez.UserID(c), id)
		},
	})
}
