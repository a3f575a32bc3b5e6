package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultModel         = "gpt-4.1"
)

type TelegramConfig struct {
	Enabled        bool   `json:"enabled"`
	Token          string `json:"token"`
	PollTimeoutSec int    `json:"pollTimeoutSec,omitempty"`
	Workers        int    `json:"workers,omitempty"`
}

type SlackConfig struct {
	Enabled       bool   `json:"enabled"`
	BotToken      string `json:"botToken"`
	SigningSecret string `json:"signingSecret"`
	EventsPath    string `json:"eventsPath,omitempty"`
}

type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Slack    SlackConfig    `json:"slack"`
	Discord  DiscordConfig  `json:"discord"`
}

type LLMConfig struct {
	APIKey     string `json:"apiKey"`
	BaseURL    string `json:"baseUrl,omitempty"`
	Model      string `json:"model,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty"`
}

type GatewayConfig struct {
	Listen string `json:"listen,omitempty"`
}

type Config struct {
	// Admin is the one identity permitted every command.
	Admin    string         `json:"admin"`
	Gateway  GatewayConfig  `json:"gateway"`
	Channels ChannelsConfig `json:"channels"`
	LLM      LLMConfig      `json:"llm"`
}

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{Listen: ":8090"},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{Enabled: true},
		},
		LLM: LLMConfig{
			BaseURL: DefaultOpenAIBaseURL,
			Model:   DefaultModel,
		},
	}
}

// Load reads the JSON config file. A missing file is not an error:
// everything can be supplied via environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.LLM.BaseURL) == "" {
		cfg.LLM.BaseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		cfg.LLM.Model = DefaultModel
	}
	return cfg, nil
}

type envOverrides struct {
	Admin              string `env:"TWM_ADMIN"`
	TelegramToken      string `env:"TWM_TELEGRAM_TOKEN"`
	SlackBotToken      string `env:"TWM_SLACK_BOT_TOKEN"`
	SlackSigningSecret string `env:"TWM_SLACK_SIGNING_SECRET"`
	DiscordToken       string `env:"TWM_DISCORD_TOKEN"`
	OpenAIAPIKey       string `env:"TWM_OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"TWM_OPENAI_BASE_URL"`
	Model              string `env:"TWM_MODEL"`
}

// ApplyEnv overlays TWM_* environment variables on top of the file
// config. A set variable always wins over the file value.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if v := strings.TrimSpace(o.Admin); v != "" {
		c.Admin = v
	}
	if v := strings.TrimSpace(o.TelegramToken); v != "" {
		c.Channels.Telegram.Token = v
	}
	if v := strings.TrimSpace(o.SlackBotToken); v != "" {
		c.Channels.Slack.BotToken = v
	}
	if v := strings.TrimSpace(o.SlackSigningSecret); v != "" {
		c.Channels.Slack.SigningSecret = v
	}
	if v := strings.TrimSpace(o.DiscordToken); v != "" {
		c.Channels.Discord.Token = v
	}
	if v := strings.TrimSpace(o.OpenAIAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := strings.TrimSpace(o.OpenAIBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(o.Model); v != "" {
		c.LLM.Model = v
	}
	return nil
}

// Validate checks the credentials a gateway run cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Admin) == "" {
		missing = append(missing, "admin (TWM_ADMIN)")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "llm.apiKey (TWM_OPENAI_API_KEY)")
	}
	if c.Channels.Telegram.Enabled && strings.TrimSpace(c.Channels.Telegram.Token) == "" {
		missing = append(missing, "channels.telegram.token (TWM_TELEGRAM_TOKEN)")
	}
	if c.Channels.Slack.Enabled {
		if strings.TrimSpace(c.Channels.Slack.BotToken) == "" {
			missing = append(missing, "channels.slack.botToken (TWM_SLACK_BOT_TOKEN)")
		}
		if strings.TrimSpace(c.Channels.Slack.SigningSecret) == "" {
			missing = append(missing, "channels.slack.signingSecret (TWM_SLACK_SIGNING_SECRET)")
		}
	}
	if c.Channels.Discord.Enabled && strings.TrimSpace(c.Channels.Discord.Token) == "" {
		missing = append(missing, "channels.discord.token (TWM_DISCORD_TOKEN)")
	}
	if len(missing) > 0 {
		return errors.New("missing required config: " + strings.Join(missing, ", "))
	}
	return nil
}
