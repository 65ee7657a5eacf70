package data

import (
	"context"
	"fmt"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

// Messenger is the subset of the Feishu client used for delivery
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) (string, error)
	ReplyText(ctx context.Context, messageID, text string) (string, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// feishuRepo implements ChatRepo on top of the Feishu client
type feishuRepo struct {
	client Messenger
}

// NewFeishuRepo creates a new Feishu repository
func NewFeishuRepo(client Messenger) repo.ChatRepo {
	return &feishuRepo{client: client}
}

// SendReply replies to replyToID when set, otherwise posts into the chat
func (r *feishuRepo) SendReply(ctx context.Context, chatID, text, replyToID string) (domain.MessageRef, error) {
	var (
		msgID string
		err   error
	)
	if replyToID != "" {
		msgID, err = r.client.ReplyText(ctx, replyToID, text)
	} else {
		msgID, err = r.client.SendText(ctx, chatID, text)
	}
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChatID: chatID, MessageID: msgID}, nil
}

// DeleteMessage recalls a message; Feishu addresses messages by id alone
func (r *feishuRepo) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("%w: empty message id in chat %s", domain.ErrDeletionFailure, chatID)
	}
	return r.client.DeleteMessage(ctx, messageID)
}
