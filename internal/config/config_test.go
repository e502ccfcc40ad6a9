package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BOT_TEST_VALUE", "abc123")
	os.Unsetenv("BOT_TEST_MISSING")

	tests := []struct {
		input string
		want  string
	}{
		{"${BOT_TEST_VALUE}", "abc123"},
		{"prefix-${BOT_TEST_VALUE}-suffix", "prefix-abc123-suffix"},
		{"${BOT_TEST_MISSING:-fallback}", "fallback"},
		{"${BOT_TEST_VALUE:-fallback}", "abc123"},
		{"${BOT_TEST_MISSING}", "${BOT_TEST_MISSING}"},
		{"no vars here", "no vars here"},
	}
	for _, tt := range tests {
		if got := ExpandEnvVars(tt.input); got != tt.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("BOT_TEST_APIKEY", "evo-secret")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"evolution": {
			"apiUrl": "http://evolution:8080",
			"apiKey": "${BOT_TEST_APIKEY}",
			"instance": "publicars"
		},
		"agent": {"historyLimit": 10}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evolution.APIKey != "evo-secret" {
		t.Errorf("apiKey = %q", cfg.Evolution.APIKey)
	}
	if cfg.Agent.HistoryLimit != 10 {
		t.Errorf("historyLimit = %d", cfg.Agent.HistoryLimit)
	}
	// Omitted sections keep defaults.
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("chatModel = %q", cfg.OpenAI.ChatModel)
	}
	if cfg.General.Timezone != "America/Sao_Paulo" {
		t.Errorf("timezone = %q", cfg.General.Timezone)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 99999
	if err := Validate(cfg); err == nil {
		t.Error("expected error for invalid port")
	}

	cfg = Defaults()
	cfg.Agent.ReplyDelayMaxSeconds = 1
	cfg.Agent.ReplyDelayMinSeconds = 5
	if err := Validate(cfg); err == nil {
		t.Error("expected error for inverted delay range")
	}

	cfg = Defaults()
	cfg.OpenAI.Temperature = 3.5
	if err := Validate(cfg); err == nil {
		t.Error("expected error for out-of-range temperature")
	}
}

func TestMissingCredentials(t *testing.T) {
	cfg := Defaults()
	missing := MissingCredentials(cfg)
	if len(missing) != 5 {
		t.Errorf("defaults should miss all 5 credentials, got %v", missing)
	}

	cfg.Evolution.APIURL = "http://evolution:8080"
	cfg.Evolution.APIKey = "k"
	cfg.Evolution.Instance = "publicars"
	cfg.OpenAI.APIKey = "sk"
	cfg.Database.URL = "postgres://localhost/bot"
	if missing := MissingCredentials(cfg); len(missing) != 0 {
		t.Errorf("expected no missing credentials, got %v", missing)
	}
}

func TestFromEnvFillsEmptyFields(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg := Defaults()
	cfg.Database.URL = "postgres://explicit/db"
	FromEnv(cfg)

	if cfg.OpenAI.APIKey != "sk-env" {
		t.Errorf("apiKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Database.URL != "postgres://explicit/db" {
		t.Errorf("explicit value must win over env: %q", cfg.Database.URL)
	}
}
