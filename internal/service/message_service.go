package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
)

const maxMessageRunes = 5000

type MessageService struct {
	messages *repo.MessageRepo
	users    *repo.UserRepo
	log      *zap.Logger
}

func NewMessageService(messages *repo.MessageRepo, users *repo.UserRepo, l *zap.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, log: l.Named("message")}
}

// Send posts content from senderID. A nil receiverID is a public message.
func (s *MessageService) Send(ctx context.Context, senderID uint, receiverID *uint, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageRunes {
		return nil, domain.Invalid("content exceeds %d characters", maxMessageRunes)
	}
	if receiverID != nil {
		rcv, err := s.users.FindByID(ctx, *receiverID)
		if err != nil {
			return nil, domain.StoreErr("find receiver", err)
		}
		if rcv == nil {
			return nil, domain.NotFound("user %d", *receiverID)
		}
	}
	m := &domain.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, domain.StoreErr("create message", err)
	}
	return m, nil
}

// Get is the normal read path: deleted messages, and direct messages the
// viewer is not part of, are NotFound.
func (s *MessageService) Get(ctx context.Context, viewerID, id uint) (*domain.Message, error) {
	m, err := s.messages.FindVisible(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("find message", err)
	}
	if m == nil {
		return nil, domain.NotFound("message %d", id)
	}
	if m.ReceiverID != nil && viewerID != m.SenderID && viewerID != *m.ReceiverID {
		return nil, domain.NotFound("message %d", id)
	}
	return m, nil
}

func (s *MessageService) List(ctx context.Context, userID uint, offset, limit int) ([]domain.Message, int64, error) {
	msgs, total, err := s.messages.ListForUser(ctx, userID, clampOffset(offset), clampLimit(limit, 20, 100))
	if err != nil {
		return nil, 0, domain.StoreErr("list messages", err)
	}
	return nonNil(msgs), total, nil
}
