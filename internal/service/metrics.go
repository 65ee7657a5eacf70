package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
)

var (
	// eventsTotal counts inbound events by how the gate and command surface handled them
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transbot_events_total",
			Help: "Inbound chat events by outcome.",
		},
		[]string{"outcome"},
	)

	// dispatchTotal counts resolver decisions per case
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transbot_dispatch_total",
			Help: "Dispatch resolver decisions by case and result.",
		},
		[]string{"case", "result"},
	)

	// translationsTotal counts backend calls by backend name and outcome
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transbot_translations_total",
			Help: "Translation backend calls by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	// deletionsTotal counts message deletions by kind and outcome
	deletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transbot_deletions_total",
			Help: "Message deletions by kind (ephemeral, trigger) and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, dispatchTotal, translationsTotal, deletionsTotal)
}

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// ObservePool records every backend call of pool
func ObservePool(pool *usecase.BackendPool) {
	pool.SetObserver(func(backend string, err error) {
		translationsTotal.WithLabelValues(backend, outcome(err)).Inc()
	})
}

// ObserveScheduler records every scheduled deletion attempt
func ObserveScheduler(s *usecase.EphemeralScheduler) {
	s.SetObserver(func(err error) {
		deletionsTotal.WithLabelValues("ephemeral", outcome(err)).Inc()
	})
}
