package service

import (
	"time"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
)

// RuntimeStatus exposes pool and scheduler figures to the admin server
type RuntimeStatus struct {
	Pool      *usecase.BackendPool
	Scheduler *usecase.EphemeralScheduler
}

// Backends returns the number of translation backends
func (s RuntimeStatus) Backends() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.Size()
}

// PendingDeletions returns the number of ephemeral replies not yet deleted
func (s RuntimeStatus) PendingDeletions() int {
	if s.Scheduler == nil {
		return 0
	}
	return s.Scheduler.Pending()
}

// NextDeletion returns when the next ephemeral reply expires
func (s RuntimeStatus) NextDeletion() (time.Time, bool) {
	if s.Scheduler == nil {
		return time.Time{}, false
	}
	return s.Scheduler.NextFireAt()
}
