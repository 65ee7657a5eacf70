package data

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

const defaultOpenAIModel = openai.GPT4oMini

var languageNames = map[domain.TargetLang]string{
	domain.LangEN: "English",
	domain.LangZH: "Simplified Chinese",
}

// openaiRepo implements TranslatorRepo on an OpenAI-compatible chat completion API
type openaiRepo struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIRepo creates an LLM-backed translator. An empty baseURL keeps the
// OpenAI default.
func NewOpenAIRepo(apiKey, baseURL, model string) repo.TranslatorRepo {
	if model == "" {
		model = defaultOpenAIModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &openaiRepo{
		client: openai.NewClientWithConfig(config),
		model:  model,
		name:   "openai:" + model,
	}
}

// Name returns the backend name
func (r *openaiRepo) Name() string {
	return r.name
}

// Translate asks the model for a translation only reply
func (r *openaiRepo) Translate(ctx context.Context, text string, lang domain.TargetLang) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translatePrompt(lang)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", domain.ErrBackendFailure, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", domain.ErrBackendFailure)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func translatePrompt(lang domain.TargetLang) string {
	name, ok := languageNames[lang]
	if !ok {
		name = string(lang)
	}
	return fmt.Sprintf(`You are a translation engine. Detect the language of the user's message and translate it into %s.
Reply with the translation only: no quotes, no explanations, no notes. Keep line breaks, @mentions, URLs and code unchanged.`, name)
}
