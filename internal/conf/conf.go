package conf

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

// Config represents application configuration
type Config struct {
	// Translation backends
	DeepLXURLsRaw string `envconfig:"DEEPL_API_URLS"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL"`

	// Access lists, comma separated
	AllowedChatIDsRaw  string `envconfig:"ALLOWED_CHAT_IDS"`
	AllowedUserIDsRaw  string `envconfig:"ALLOWED_USER_IDS"`
	PublicInfoCommands bool   `envconfig:"PUBLIC_INFO_COMMANDS" default:"false"`

	// Feishu configuration
	AppID     string `envconfig:"FEISHU_APP_ID"`
	AppSecret string `envconfig:"FEISHU_APP_SECRET"`
	BotName   string `envconfig:"BOT_NAME"`

	// Seconds before an ephemeral reply is deleted
	DeleteTime int `envconfig:"DELETE_TIME" default:"60"`

	// Empty keeps auto-translate flags in memory
	PrefsDBPath string `envconfig:"PREFS_DB_PATH"`

	// Admin HTTP listener, empty disables it
	HTTPAddr string `envconfig:"HTTP_ADDR" default:"127.0.0.1:9877"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	DeepLXURLs     []string `ignored:"true"`
	AllowedChatIDs []string `ignored:"true"`
	AllowedUserIDs []string `ignored:"true"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Field: "env", Message: err.Error()}
	}

	cfg.DeepLXURLs = SplitList(cfg.DeepLXURLsRaw)
	cfg.AllowedChatIDs = SplitList(cfg.AllowedChatIDsRaw)
	cfg.AllowedUserIDs = SplitList(cfg.AllowedUserIDsRaw)
	return &cfg, nil
}

// SplitList splits a comma separated value, dropping blanks and duplicates
func SplitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(items))
}

// DeleteDelay returns the ephemeral reply lifetime
func (c *Config) DeleteDelay() time.Duration {
	return time.Duration(c.DeleteTime) * time.Second
}

// BotHandle returns the "@name" form used to recognise mentions of the bot
func (c *Config) BotHandle() string {
	if c.BotName == "" {
		return ""
	}
	return "@" + strings.TrimPrefix(c.BotName, "@")
}

// ToAllowList converts the configured ids to the access gate
func (c *Config) ToAllowList() *domain.AllowList {
	return domain.NewAllowList(c.AllowedChatIDs, c.AllowedUserIDs)
}

// HasBackends checks if at least one translation backend is configured
func (c *Config) HasBackends() bool {
	return len(c.DeepLXURLs) > 0 || c.OpenAIAPIKey != ""
}

// Validate validates the configuration needed to translate
func (c *Config) Validate() error {
	if !c.HasBackends() {
		return &ConfigError{Field: "DEEPL_API_URLS", Message: "at least one endpoint (or OPENAI_API_KEY) required"}
	}
	for _, endpoint := range c.DeepLXURLs {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ConfigError{Field: "DEEPL_API_URLS", Message: fmt.Sprintf("invalid endpoint %q", endpoint)}
		}
	}
	if c.DeleteTime <= 0 {
		return &ConfigError{Field: "DELETE_TIME", Message: "must be positive"}
	}
	return nil
}

// ValidateBot validates the configuration needed to run the chat bot
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AppID == "" || c.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
