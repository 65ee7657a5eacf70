package repo

import (
	"context"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// ChatRepo is the chat platform interface used to deliver and retract replies
type ChatRepo interface {
	// SendReply sends text into chatID.
	// When replyToID is set the message is posted as a quoted reply to it.
	SendReply(ctx context.Context, chatID, text, replyToID string) (domain.MessageRef, error)

	// DeleteMessage deletes a message; deleting an already deleted message is an error
	DeleteMessage(ctx context.Context, chatID, messageID string) error
}
