package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

// deeplxRequest is the DeepLX request body
type deeplxRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// deeplxResponse is the part of the DeepLX response we use
type deeplxResponse struct {
	Code int    `json:"code"`
	Data string `json:"data"`
}

// deeplxRepo implements TranslatorRepo against one DeepLX endpoint
type deeplxRepo struct {
	url    string
	name   string
	client *http.Client
}

// NewDeepLXRepo creates a translator for a DeepLX endpoint.
// The HTTP client has no overall timeout; pass a client to override.
func NewDeepLXRepo(endpoint string, client *http.Client) repo.TranslatorRepo {
	if client == nil {
		client = &http.Client{}
	}
	name := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		name = "deeplx:" + u.Host
	}
	return &deeplxRepo{url: endpoint, name: name, client: client}
}

// Name returns the backend name
func (r *deeplxRepo) Name() string {
	return r.name
}

// Translate posts text to the endpoint and returns the data field
func (r *deeplxRepo) Translate(ctx context.Context, text string, lang domain.TargetLang) (string, error) {
	payload, err := json.Marshal(deeplxRequest{
		Text:       text,
		SourceLang: domain.SourceAuto,
		TargetLang: string(lang),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", domain.ErrBackendFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrBackendFailure, r.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrBackendFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: status %d: %s", domain.ErrBackendFailure, r.name, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed deeplxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrBackendFailure, err)
	}
	if strings.TrimSpace(parsed.Data) == "" {
		return "", fmt.Errorf("%w: %s: empty translation (code %d)", domain.ErrBackendFailure, r.name, parsed.Code)
	}
	return parsed.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
