package repo

import (
	"context"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// UtteranceRepo keeps the most recent eligible utterance per user.
// Process-local, not persisted.
type UtteranceRepo interface {
	// Record overwrites the user's slot
	Record(ctx context.Context, userID string, u domain.RecentUtterance)

	// Get returns the user's last utterance
	Get(ctx context.Context, userID string) (domain.RecentUtterance, bool)
}
