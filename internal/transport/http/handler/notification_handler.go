package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/ez"
)

type NotificationHandler struct {
	notes *service.NotificationService
	log   *zap.Logger
}

func NewNotificationHandler(n *service.NotificationService, l *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notes: n, log: l}
}

type notifQ struct {
	UnreadOnly bool `form:"unread_only"`
	Limit      int  `form:"limit"`
}

func (h *NotificationHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private, h.log)

	ez.RegisterAction(e, ez.Action[notifQ, []domain.Notification]{
		Method: http.MethodGet,
		Path:   "/notifications",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *notifQ) ([]domain.Notification, error) {
			return h.notes.List(c.Request.Context(), ez.UserID(c), in.UnreadOnly, in.Limit)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/notifications/unread-count",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			n, err := h.notes.UnreadCount(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"count": n}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notifications/:id/read",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			ok, err := h.notes.MarkRead(c.Request.Context(), ez.UserID(c), id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ez.NotFound("notification not found")
			}
			return gin.H{"id": id, "read": true}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notifications/read-all",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			n, err := h.notes.MarkAllRead(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"updated": n}, nil
		},
	})
}

func (h *NotificationHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)

	ez.RegisterAction(e, ez.Action[notifQ, []domain.Notification]{
		Method: http.MethodGet,
		Path:   "/notifications",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *notifQ) ([]domain.Notification, error) {
			return h.notes.ListAll(c.Request.Context(), in.Limit)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/notifications/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			ok, err := h.notes.Delete(c.Request.Context(), id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ez.NotFound("notification not found")
			}
			return gin.H{"id": id}, nil
		},
	})
}
