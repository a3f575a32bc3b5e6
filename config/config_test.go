package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.BaseURL != DefaultOpenAIBaseURL {
		t.Fatalf("baseURL=%q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != DefaultModel {
		t.Fatalf("model=%q", cfg.LLM.Model)
	}
	if !cfg.Channels.Telegram.Enabled {
		t.Fatalf("expected telegram enabled by default")
	}
}

func TestLoad_FileValuesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"admin":"alice","llm":{"model":"gpt-4o-mini"},"channels":{"telegram":{"enabled":true,"token":"tg-token"}}}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin != "alice" {
		t.Fatalf("admin=%q", cfg.Admin)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("model=%q", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != DefaultOpenAIBaseURL {
		t.Fatalf("baseURL=%q", cfg.LLM.BaseURL)
	}
	if cfg.Channels.Telegram.Token != "tg-token" {
		t.Fatalf("token=%q", cfg.Channels.Telegram.Token)
	}
}

func TestLoad_MalformedFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("TWM_ADMIN", "alice")
	t.Setenv("TWM_OPENAI_API_KEY", "sk-env")
	t.Setenv("TWM_TELEGRAM_TOKEN", "tg-env")
	t.Setenv("TWM_MODEL", "gpt-4o")

	cfg := Default()
	cfg.LLM.APIKey = "sk-file"
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Admin != "alice" {
		t.Fatalf("admin=%q", cfg.Admin)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Fatalf("apiKey=%q", cfg.LLM.APIKey)
	}
	if cfg.Channels.Telegram.Token != "tg-env" {
		t.Fatalf("token=%q", cfg.Channels.Telegram.Token)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("model=%q", cfg.LLM.Model)
	}
}

func TestApplyEnv_UnsetKeepsFileValue(t *testing.T) {
	t.Setenv("TWM_OPENAI_API_KEY", "")
	cfg := Default()
	cfg.Admin = "alice"
	cfg.LLM.APIKey = "sk-file"
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.LLM.APIKey != "sk-file" {
		t.Fatalf("apiKey=%q", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Admin = "alice"
	cfg.LLM.APIKey = "sk-test"
	cfg.Channels.Telegram.Token = "tg-token"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	t.Run("missing admin", func(t *testing.T) {
		c := *cfg
		c.Admin = ""
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), "admin") {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		c := *cfg
		c.LLM.APIKey = ""
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), "TWM_OPENAI_API_KEY") {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("enabled slack needs secrets", func(t *testing.T) {
		c := *cfg
		c.Channels.Slack.Enabled = true
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), "slack") {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("disabled channel needs nothing", func(t *testing.T) {
		c := *cfg
		c.Channels.Telegram.Enabled = false
		c.Channels.Telegram.Token = ""
		if err := c.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})
}
