package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

type deleteCall struct {
	chatID    string
	messageID string
}

type recordingDeleter struct {
	mu    sync.Mutex
	calls []deleteCall
	err   error
}

func (d *recordingDeleter) Delete(ctx context.Context, chatID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, deleteCall{chatID, messageID})
	return d.err
}

func TestEphemeralScheduler_DelayHonoured(t *testing.T) {
	del := &recordingDeleter{}
	s := NewEphemeralScheduler(del.Delete, zerolog.Nop())

	var gotDelay time.Duration
	var fire func()
	s.afterFunc = func(d time.Duration, f func()) *time.Timer {
		gotDelay = d
		fire = f
		return nil
	}

	s.Schedule("oc_chat", "om_reply", 60*time.Second)
	require.Equal(t, 60*time.Second, gotDelay)
	require.Equal(t, 1, s.Pending())
	require.Empty(t, del.calls, "nothing is deleted before the timer fires")

	fire()
	s.Wait()
	require.Equal(t, []deleteCall{{"oc_chat", "om_reply"}}, del.calls)
	require.Zero(t, s.Pending())
}

func TestEphemeralScheduler_FiresAfterDelay(t *testing.T) {
	del := &recordingDeleter{}
	s := NewEphemeralScheduler(del.Delete, zerolog.Nop())

	start := time.Now()
	s.Schedule("oc_chat", "om_1", 30*time.Millisecond)
	s.Schedule("oc_chat", "om_2", 10*time.Millisecond)
	s.Wait()

	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.ElementsMatch(t, []deleteCall{{"oc_chat", "om_1"}, {"oc_chat", "om_2"}}, del.calls)
}

func TestEphemeralScheduler_FailureIsSwallowed(t *testing.T) {
	del := &recordingDeleter{err: errBoom}
	s := NewEphemeralScheduler(del.Delete, zerolog.Nop())

	var observed []error
	var mu sync.Mutex
	s.SetObserver(func(err error) {
		mu.Lock()
		observed = append(observed, err)
		mu.Unlock()
	})

	require.NotPanics(t, func() {
		s.Schedule("oc_chat", "om_gone", time.Millisecond)
		s.Wait()
	})
	require.Len(t, del.calls, 1, "never retried")
	require.Len(t, observed, 1)
	require.ErrorIs(t, observed[0], domain.ErrDeletionFailure)
	require.ErrorIs(t, observed[0], errBoom)
}

func TestEphemeralScheduler_NextFireAt(t *testing.T) {
	s := NewEphemeralScheduler((&recordingDeleter{}).Delete, zerolog.Nop())
	fires := map[string]func(){}
	s.afterFunc = func(d time.Duration, f func()) *time.Timer {
		fires[d.String()] = f
		return nil
	}

	_, ok := s.NextFireAt()
	require.False(t, ok)

	before := time.Now()
	s.Schedule("oc_chat", "om_late", time.Hour)
	s.Schedule("oc_chat", "om_soon", time.Minute)

	next, ok := s.NextFireAt()
	require.True(t, ok)
	require.WithinDuration(t, before.Add(time.Minute), next, time.Second)

	fires[time.Minute.String()]()
	next, ok = s.NextFireAt()
	require.True(t, ok)
	require.WithinDuration(t, before.Add(time.Hour), next, time.Second)

	fires[time.Hour.String()]()
	s.Wait()
	_, ok = s.NextFireAt()
	require.False(t, ok)
}
