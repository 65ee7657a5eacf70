package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// Deleter removes a message from a chat
type Deleter func(ctx context.Context, chatID, messageID string) error

// DeletionObserver is notified after every deletion attempt
type DeletionObserver func(err error)

// ScheduledDeletion is one pending fire-and-forget deletion
type ScheduledDeletion struct {
	ChatID    string
	MessageID string
	FireAt    time.Time
}

// EphemeralScheduler deletes replies after a delay. Deletions cannot be
// cancelled and are lost if the process exits first.
type EphemeralScheduler struct {
	deleter Deleter
	log     zerolog.Logger
	observe DeletionObserver

	// afterFunc is replaced in tests
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu      sync.Mutex
	pending map[*ScheduledDeletion]struct{}
	wg      sync.WaitGroup
}

// NewEphemeralScheduler creates a scheduler around deleter
func NewEphemeralScheduler(deleter Deleter, log zerolog.Logger) *EphemeralScheduler {
	return &EphemeralScheduler{
		deleter:   deleter,
		log:       log.With().Str("component", "ephemeral").Logger(),
		afterFunc: time.AfterFunc,
		pending:   make(map[*ScheduledDeletion]struct{}),
	}
}

// SetObserver registers a hook called after each deletion attempt
func (s *EphemeralScheduler) SetObserver(fn DeletionObserver) {
	s.observe = fn
}

// Schedule arranges deletion of messageID after delay. Failures are logged and
// discarded, never retried.
func (s *EphemeralScheduler) Schedule(chatID, messageID string, delay time.Duration) {
	job := &ScheduledDeletion{
		ChatID:    chatID,
		MessageID: messageID,
		FireAt:    time.Now().Add(delay),
	}

	s.mu.Lock()
	s.pending[job] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)

	s.afterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(job)
	})

	s.log.Debug().
		Str("chat_id", chatID).
		Str("message_id", messageID).
		Time("fire_at", job.FireAt).
		Msg("deletion scheduled")
}

func (s *EphemeralScheduler) fire(job *ScheduledDeletion) {
	s.mu.Lock()
	delete(s.pending, job)
	s.mu.Unlock()

	err := s.deleter(context.Background(), job.ChatID, job.MessageID)
	if err != nil && !errors.Is(err, domain.ErrDeletionFailure) {
		err = fmt.Errorf("%w: %w", domain.ErrDeletionFailure, err)
	}
	if s.observe != nil {
		s.observe(err)
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("chat_id", job.ChatID).
			Str("message_id", job.MessageID).
			Msg("scheduled deletion failed")
		return
	}
	s.log.Debug().
		Str("chat_id", job.ChatID).
		Str("message_id", job.MessageID).
		Msg("ephemeral reply deleted")
}

// Pending returns the number of deletions that have not fired yet
func (s *EphemeralScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// NextFireAt returns the earliest pending deletion time
func (s *EphemeralScheduler) NextFireAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	for job := range s.pending {
		if next.IsZero() || job.FireAt.Before(next) {
			next = job.FireAt
		}
	}
	return next, !next.IsZero()
}

// Wait blocks until every timer that has been scheduled has fired
func (s *EphemeralScheduler) Wait() {
	s.wg.Wait()
}
