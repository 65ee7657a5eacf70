package biz

import (
	"github.com/rs/zerolog"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Pool      *usecase.BackendPool
	Resolver  *usecase.DispatchResolver
	Scheduler *usecase.EphemeralScheduler
}

// Identity is how the bot recognises mentions of itself
type Identity struct {
	Handle string // "@name"
	UserID string // platform id, may be empty
}

// NewUsecases wires the pool, resolver and scheduler over the repositories
func NewUsecases(
	translators []repo.TranslatorRepo,
	utterances repo.UtteranceRepo,
	preferences repo.PreferenceRepo,
	chat repo.ChatRepo,
	bot Identity,
	log zerolog.Logger,
) (*Usecases, error) {
	pool, err := usecase.NewBackendPool(translators...)
	if err != nil {
		return nil, err
	}

	return &Usecases{
		Pool:      pool,
		Resolver:  usecase.NewDispatchResolver(utterances, preferences, bot.Handle, bot.UserID),
		Scheduler: usecase.NewEphemeralScheduler(chat.DeleteMessage, log),
	}, nil
}
