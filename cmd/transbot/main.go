// transbot: Feishu translation bot backed by DeepLX and OpenAI-compatible endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
	"github.com/deeplx-bot/feishu-translate-bot/internal/conf"
	"github.com/deeplx-bot/feishu-translate-bot/internal/data"
	"github.com/deeplx-bot/feishu-translate-bot/internal/infra/feishu"
	"github.com/deeplx-bot/feishu-translate-bot/internal/mcp"
	"github.com/deeplx-bot/feishu-translate-bot/internal/server"
	"github.com/deeplx-bot/feishu-translate-bot/internal/service"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transbot",
		Short: "Feishu translation bot",
		Long: `transbot translates chat messages between Chinese and English.

Commands:
  serve       Run the Feishu bot and the admin HTTP server
  translate   Translate text once through the configured backends
  mcp         Serve the translate tool over MCP stdio
  version     Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(),
		newTranslateCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "transbot: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file (if any) and the environment
func loadConfig() (*conf.Config, zerolog.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, zerolog.Nop(), fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := conf.NewLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	return cfg, log, nil
}

// newPool builds the round-robin pool over every configured backend
func newPool(cfg *conf.Config) (*usecase.BackendPool, error) {
	pool, err := usecase.NewBackendPool(data.NewTranslators(cfg, nil)...)
	if err != nil {
		return nil, err
	}
	service.ObservePool(pool)
	return pool, nil
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transbot version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text once through the configured backends",
		Long: `Translate the arguments (or stdin when none are given) with the next
backend in rotation. Chinese input becomes English, anything else becomes
Chinese, unless --to is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(raw))
			}
			if text == "" {
				return errors.New("nothing to translate")
			}

			lang := domain.Direction(text)
			switch strings.ToUpper(target) {
			case "":
			case string(domain.LangEN):
				lang = domain.LangEN
			case string(domain.LangZH):
				lang = domain.LangZH
			default:
				return fmt.Errorf("unsupported target language %q (use EN or ZH)", target)
			}

			pool, err := newPool(cfg)
			if err != nil {
				return err
			}
			out, err := pool.TranslateWith(cmd.Context(), pool.NextEndpoint(), text, lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Target language (EN or ZH), inferred from the text when empty")
	return cmd
}

// ---------------------------------------------------------------------------
// mcp
// ---------------------------------------------------------------------------

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the translate tool over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			pool, err := newPool(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcp.NewTranslateServer(pool, version, log).Run(ctx)
		},
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Feishu bot and the admin HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateBot(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
}

func runServe(ctx context.Context, cfg *conf.Config, log zerolog.Logger) error {
	repos, err := data.NewRepositories(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close repositories")
		}
	}()

	client := feishu.NewClient(cfg.AppID, cfg.AppSecret, log)
	if err := client.FetchBotInfo(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to fetch bot info, mentions match by name only")
	}

	handle := cfg.BotHandle()
	if handle == "" && client.BotName() != "" {
		handle = "@" + client.BotName()
	}
	log.Info().Str("handle", handle).Str("open_id", client.BotOpenID()).Msg("bot identity")

	chatRepo := data.NewFeishuRepo(client)

	uc, err := biz.NewUsecases(
		repos.Translators,
		repos.Utterance,
		repos.Preference,
		chatRepo,
		biz.Identity{Handle: handle, UserID: client.BotOpenID()},
		log,
	)
	if err != nil {
		return err
	}
	pool, scheduler := uc.Pool, uc.Scheduler
	service.ObservePool(pool)
	service.ObserveScheduler(scheduler)

	for _, ep := range pool.Endpoints() {
		log.Info().Int("index", ep.Index).Str("backend", ep.Name()).Msg("translation backend registered")
	}

	svc := service.NewTranslateService(
		cfg.ToAllowList(),
		uc.Resolver,
		pool,
		chatRepo,
		repos.Utterance,
		repos.Preference,
		scheduler,
		service.Options{
			DeleteDelay:        cfg.DeleteDelay(),
			PublicInfoCommands: cfg.PublicInfoCommands,
		},
		log,
	)

	errCh := make(chan error, 2)

	if cfg.HTTPAddr != "" {
		admin := server.NewHTTPServer(cfg.HTTPAddr, service.RuntimeStatus{Pool: pool, Scheduler: scheduler}, log)
		go func() {
			errCh <- admin.Start(ctx)
		}()
	}

	bot := server.NewFeishuServer(client, svc, log)
	go func() {
		errCh <- bot.Start(ctx)
	}()

	log.Info().
		Int("backends", pool.Size()).
		Dur("delete_after", cfg.DeleteDelay()).
		Msg("transbot started")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-ctx.Done()
	case <-ctx.Done():
	}
	log.Info().Int("pending_deletions", scheduler.Pending()).Msg("shutting down")
	return nil
}
