package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

// ErrEmptyPool is returned when a pool is built without backends
var ErrEmptyPool = errors.New("backend pool needs at least one translator")

// Endpoint is one slot of the backend rotation
type Endpoint struct {
	Index      int
	Translator repo.TranslatorRepo
}

// Name returns the backend name
func (e Endpoint) Name() string {
	return e.Translator.Name()
}

// TranslateObserver is notified after every backend call
type TranslateObserver func(backend string, err error)

// BackendPool rotates translation requests across interchangeable backends.
// The cursor is the only mutable state and always stays in [0, N).
type BackendPool struct {
	endpoints []Endpoint
	cursor    atomic.Int64
	observe   TranslateObserver
}

// NewBackendPool creates a pool; the first NextEndpoint call returns the first translator
func NewBackendPool(translators ...repo.TranslatorRepo) (*BackendPool, error) {
	if len(translators) == 0 {
		return nil, ErrEmptyPool
	}
	endpoints := make([]Endpoint, len(translators))
	for i, t := range translators {
		if t == nil {
			return nil, fmt.Errorf("translator %d is nil", i)
		}
		endpoints[i] = Endpoint{Index: i, Translator: t}
	}
	return &BackendPool{endpoints: endpoints}, nil
}

// SetObserver registers a hook called after each backend call
func (p *BackendPool) SetObserver(fn TranslateObserver) {
	p.observe = fn
}

// Size returns the number of endpoints
func (p *BackendPool) Size() int {
	return len(p.endpoints)
}

// Endpoints returns a copy of the rotation
func (p *BackendPool) Endpoints() []Endpoint {
	out := make([]Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

// NextEndpoint returns the endpoint under the cursor and advances it.
// N consecutive calls visit every endpoint exactly once, even under contention.
func (p *BackendPool) NextEndpoint() Endpoint {
	n := int64(len(p.endpoints))
	for {
		cur := p.cursor.Load()
		if p.cursor.CompareAndSwap(cur, (cur+1)%n) {
			return p.endpoints[cur]
		}
	}
}

// TranslateWith performs exactly one call against the given endpoint, no retry
// and no failover. Errors wrap domain.ErrBackendFailure.
func (p *BackendPool) TranslateWith(ctx context.Context, ep Endpoint, text string, lang domain.TargetLang) (string, error) {
	out, err := ep.Translator.Translate(ctx, text, lang)
	if err != nil && !errors.Is(err, domain.ErrBackendFailure) {
		err = fmt.Errorf("%w: %s: %w", domain.ErrBackendFailure, ep.Name(), err)
	}
	if p.observe != nil {
		p.observe(ep.Name(), err)
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

// Translate picks the next endpoint and translates text in the inferred direction
func (p *BackendPool) Translate(ctx context.Context, text string) (string, error) {
	return p.TranslateWith(ctx, p.NextEndpoint(), text, domain.Direction(text))
}
