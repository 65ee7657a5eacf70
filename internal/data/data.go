package data

import (
	"fmt"
	"net/http"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
	"github.com/deeplx-bot/feishu-translate-bot/internal/conf"
)

// Repositories contains all repositories
type Repositories struct {
	Translators []repo.TranslatorRepo
	Utterance   repo.UtteranceRepo
	Preference  repo.PreferenceRepo
}

// NewTranslators builds one DeepLX translator per endpoint, plus the
// OpenAI-compatible backend when a key is configured
func NewTranslators(cfg *conf.Config, client *http.Client) []repo.TranslatorRepo {
	var translators []repo.TranslatorRepo
	for _, endpoint := range cfg.DeepLXURLs {
		translators = append(translators, NewDeepLXRepo(endpoint, client))
	}
	if cfg.OpenAIAPIKey != "" {
		translators = append(translators, NewOpenAIRepo(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	return translators
}

// NewRepositories creates all repositories that do not depend on the chat platform
func NewRepositories(cfg *conf.Config) (*Repositories, error) {
	prefs, err := NewPreferenceRepo(cfg.PrefsDBPath)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	return &Repositories{
		Translators: NewTranslators(cfg, nil),
		Utterance:   NewUtteranceRepo(),
		Preference:  prefs,
	}, nil
}

// Close releases resources held by the repositories
func (r *Repositories) Close() error {
	if r.Preference != nil {
		return r.Preference.Close()
	}
	return nil
}
