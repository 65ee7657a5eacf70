package repo

import (
	"context"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// TranslatorRepo is a single translation backend
type TranslatorRepo interface {
	// Name identifies the backend in logs and metrics
	Name() string

	// Translate translates text into lang, source language is detected by the backend
	Translate(ctx context.Context, text string, lang domain.TargetLang) (string, error)
}
