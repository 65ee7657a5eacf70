package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
)

// TranslateServer exposes the backend pool as MCP tools
type TranslateServer struct {
	server *mcp.Server
	pool   *usecase.BackendPool
	log    zerolog.Logger
}

// NewTranslateServer creates the MCP server and registers its tools
func NewTranslateServer(pool *usecase.BackendPool, version string, log zerolog.Logger) *TranslateServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "transbot",
		Version: version,
	}, nil)

	s := &TranslateServer{
		server: server,
		pool:   pool,
		log:    log.With().Str("component", "mcp").Logger(),
	}
	s.registerTools()
	return s
}

func (s *TranslateServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "translate",
		Description: "Translate text between Chinese and English. Chinese input becomes English, anything else becomes Simplified Chinese unless target_lang is given.",
	}, s.handleTranslate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_backends",
		Description: "List the translation backends in rotation order.",
	}, s.handleListBackends)
}

// Server returns the underlying MCP server
func (s *TranslateServer) Server() *mcp.Server {
	return s.server
}

// Run starts the MCP server with stdio transport
func (s *TranslateServer) Run(ctx context.Context) error {
	s.log.Info().Msg("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// TranslateInput is the input for the translate tool
type TranslateInput struct {
	Text       string `json:"text" jsonschema:"the text to translate"`
	TargetLang string `json:"target_lang,omitempty" jsonschema:"EN or ZH; inferred from the text when empty"`
}

// TranslateOutput is the output for the translate tool
type TranslateOutput struct {
	Text       string `json:"text,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
	Backend    string `json:"backend,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *TranslateServer) handleTranslate(ctx context.Context, req *mcp.CallToolRequest, input TranslateInput) (*mcp.CallToolResult, TranslateOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, TranslateOutput{Error: "text is required"}, nil
	}

	lang, err := parseTargetLang(input.TargetLang, input.Text)
	if err != nil {
		return nil, TranslateOutput{Error: err.Error()}, nil
	}

	ep := s.pool.NextEndpoint()
	out, err := s.pool.TranslateWith(ctx, ep, input.Text, lang)
	if err != nil {
		s.log.Warn().Err(err).Str("backend", ep.Name()).Msg("translate tool failed")
		return nil, TranslateOutput{Backend: ep.Name(), Error: domain.FailureText}, nil
	}

	return nil, TranslateOutput{Text: out, TargetLang: string(lang), Backend: ep.Name()}, nil
}

func parseTargetLang(raw, text string) (domain.TargetLang, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return domain.Direction(text), nil
	case string(domain.LangEN):
		return domain.LangEN, nil
	case string(domain.LangZH):
		return domain.LangZH, nil
	default:
		return "", fmt.Errorf("unsupported target_lang %q", raw)
	}
}

// ListBackendsInput is empty - no input needed
type ListBackendsInput struct{}

// ListBackendsOutput contains backend names in rotation order
type ListBackendsOutput struct {
	Backends []string `json:"backends"`
}

func (s *TranslateServer) handleListBackends(ctx context.Context, req *mcp.CallToolRequest, input ListBackendsInput) (*mcp.CallToolResult, ListBackendsOutput, error) {
	var names []string
	for _, ep := range s.pool.Endpoints() {
		names = append(names, ep.Name())
	}
	return nil, ListBackendsOutput{Backends: names}, nil
}
