package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// Mock implementations

type mockTranslator struct {
	name  string
	out   string
	err   error
	mu    sync.Mutex
	calls []string
}

func (m *mockTranslator) Name() string { return m.name }

func (m *mockTranslator) Translate(ctx context.Context, text string, lang domain.TargetLang) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text+"|"+string(lang))
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.out, nil
}

type mockUtteranceRepo struct {
	mu    sync.Mutex
	items map[string]domain.RecentUtterance
}

func newMockUtteranceRepo() *mockUtteranceRepo {
	return &mockUtteranceRepo{items: make(map[string]domain.RecentUtterance)}
}

func (m *mockUtteranceRepo) Record(ctx context.Context, userID string, u domain.RecentUtterance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = u
}

func (m *mockUtteranceRepo) Get(ctx context.Context, userID string) (domain.RecentUtterance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[userID]
	return u, ok
}

type mockPreferenceRepo struct {
	auto map[string]bool
	err  error
}

func (m *mockPreferenceRepo) AutoTranslate(ctx context.Context, userID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.auto[userID], nil
}

func (m *mockPreferenceRepo) ToggleAutoTranslate(ctx context.Context, userID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.auto == nil {
		m.auto = make(map[string]bool)
	}
	m.auto[userID] = !m.auto[userID]
	return m.auto[userID], nil
}

func (m *mockPreferenceRepo) Close() error { return nil }

var errBoom = errors.New("boom")
