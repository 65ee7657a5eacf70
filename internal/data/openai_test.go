package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

func TestOpenAIRepo_Translate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "  你好 \n"},
			}},
		})
	}))
	defer srv.Close()

	tr := NewOpenAIRepo("sk-test", srv.URL+"/v1", "")
	require.Equal(t, "openai:"+openai.GPT4oMini, tr.Name())

	out, err := tr.Translate(context.Background(), "hello", domain.LangZH)
	require.NoError(t, err)
	require.Equal(t, "你好", out)

	require.Equal(t, openai.GPT4oMini, got.Model)
	require.Len(t, got.Messages, 2)
	require.Contains(t, got.Messages[0].Content, "Simplified Chinese")
	require.Equal(t, "hello", got.Messages[1].Content)
}

func TestOpenAIRepo_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIRepo("sk-bad", srv.URL+"/v1", "gpt-test").Translate(context.Background(), "hello", domain.LangZH)
	require.ErrorIs(t, err, domain.ErrBackendFailure)
}

func TestOpenAIRepo_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIRepo("sk-test", srv.URL+"/v1", "gpt-test").Translate(context.Background(), "hello", domain.LangEN)
	require.ErrorIs(t, err, domain.ErrBackendFailure)
}

func TestNewTranslators(t *testing.T) {
	cfg := testConfig()
	cfg.DeepLXURLs = []string{"https://a.example.com/translate", "https://b.example.com/translate"}
	require.Len(t, NewTranslators(cfg, nil), 2)

	cfg.OpenAIAPIKey = "sk-test"
	translators := NewTranslators(cfg, nil)
	require.Len(t, translators, 3)
	require.Equal(t, "deeplx:a.example.com", translators[0].Name())
	require.Equal(t, "openai:"+openai.GPT4oMini, translators[2].Name())
}
