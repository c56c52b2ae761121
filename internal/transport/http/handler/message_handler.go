package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/service"
	"go-gin-chat-moderation/internal/transport/http/ez"
)

type MessageHandler struct {
	messages *service.MessageService
	log      *zap.Logger
}

func NewMessageHandler(m *service.MessageService, l *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: m, log: l}
}

type sendIn struct {
	ReceiverID *uint  `json:"receiverId"`
	Content    string `json:"content" binding:"required,max=5000"`
}

type pageQ struct {
	Offset int `form:"offset,default=0"`
	Limit  int `form:"limit,default=20"`
}

type messagePage struct {
	Total int64            `json:"total"`
	Items []domain.Message `json:"items"`
}

func (h *MessageHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private, h.log)

	ez.RegisterAction(e, ez.Action[sendIn, *domain.Message]{
		Method: http.MethodPost,
		Path:   "/messages",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *sendIn) (*domain.Message, error) {
			return h.messages.Send(c.Request.Context(), ez.UserID(c), in.ReceiverID, in.Content)
		},
	})

	ez.RegisterAction(e, ez.Action[pageQ, messagePage]{
		Method: http.MethodGet,
		Path:   "/messages",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *pageQ) (messagePage, error) {
			msgs, total, err := h.messages.List(c.Request.Context(), ez.UserID(c), in.Offset, in.Limit)
			if err != nil {
				return messagePage{}, err
			}
			return messagePage{Total: total, Items: msgs}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Message]{
		Method: http.MethodGet,
		Path:   "/messages/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Message, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.messages.Get(c.Request.Context(), ez.UserID(c), id)
		},
	})
}
