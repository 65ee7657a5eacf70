package data

import (
	"context"
	"sync"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

// utteranceRepo keeps one slot per user in memory
type utteranceRepo struct {
	mu    sync.Mutex
	items map[string]domain.RecentUtterance
}

// NewUtteranceRepo creates an in-memory recent-utterance store
func NewUtteranceRepo() repo.UtteranceRepo {
	return &utteranceRepo{items: make(map[string]domain.RecentUtterance)}
}

// Record overwrites the user's slot
func (r *utteranceRepo) Record(_ context.Context, userID string, u domain.RecentUtterance) {
	if u.Ref != nil {
		ref := *u.Ref
		u.Ref = &ref
	}
	r.mu.Lock()
	r.items[userID] = u
	r.mu.Unlock()
}

// Get returns the user's last utterance
func (r *utteranceRepo) Get(_ context.Context, userID string) (domain.RecentUtterance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[userID]
	return u, ok
}
