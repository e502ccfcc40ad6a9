package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the sales assistant.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Server    ServerConfig    `json:"server"`
	Evolution EvolutionConfig `json:"evolution"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Database  DatabaseConfig  `json:"database"`
	Agent     AgentConfig     `json:"agent"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	Timezone string `json:"timezone"` // IANA name used for prompt dates and lead timestamps
}

// ServerConfig configures the webhook HTTP server and the public media URLs.
type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	PublicBaseURL string `json:"publicBaseUrl"` // base for generated /uploads/ links
	UploadsDir    string `json:"uploadsDir"`
}

// EvolutionConfig configures the WhatsApp gateway (Evolution API) client.
type EvolutionConfig struct {
	APIURL   string `json:"apiUrl"`
	APIKey   string `json:"apiKey"`
	Instance string `json:"instance"`
}

type OpenAIConfig struct {
	APIKey       string  `json:"apiKey"`
	APIBase      string  `json:"apiBase,omitempty"`
	ChatModel    string  `json:"chatModel,omitempty"`
	WhisperModel string  `json:"whisperModel,omitempty"`
	Language     string  `json:"language,omitempty"` // transcription language hint
	Temperature  float64 `json:"temperature,omitempty"`
}

type DatabaseConfig struct {
	URL string `json:"url"` // postgres connection string
}

// AgentConfig tunes the reply pipeline.
type AgentConfig struct {
	HistoryLimit         int    `json:"historyLimit"`
	MaxIterations        int    `json:"maxIterations"`
	ReplyDelayMinSeconds int    `json:"replyDelayMinSeconds"`
	ReplyDelayMaxSeconds int    `json:"replyDelayMaxSeconds"`
	CatalogPath          string `json:"catalogPath,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.botdevendas).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".botdevendas"
	}
	return filepath.Join(home, ".botdevendas")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	FromEnv(cfg)
	cfg.Server.UploadsDir = ExpandPath(cfg.Server.UploadsDir)
	cfg.Agent.CatalogPath = ExpandPath(cfg.Agent.CatalogPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Agent.HistoryLimit < 1 {
		errs = append(errs, "agent.historyLimit must be >= 1")
	}
	if cfg.Agent.MaxIterations < 1 || cfg.Agent.MaxIterations > 50 {
		errs = append(errs, "agent.maxIterations must be between 1 and 50")
	}
	if cfg.Agent.ReplyDelayMinSeconds < 0 {
		errs = append(errs, "agent.replyDelayMinSeconds must be >= 0")
	}
	if cfg.Agent.ReplyDelayMaxSeconds < cfg.Agent.ReplyDelayMinSeconds {
		errs = append(errs, "agent.replyDelayMaxSeconds must be >= agent.replyDelayMinSeconds")
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		errs = append(errs, "openai.temperature must be between 0 and 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// MissingCredentials lists the external credentials that are empty. The
// process still starts without them; dependent calls will fail at runtime,
// so callers log the result critically at startup.
func MissingCredentials(cfg *Config) []string {
	var missing []string
	if cfg.Evolution.APIURL == "" {
		missing = append(missing, "evolution.apiUrl")
	}
	if cfg.Evolution.APIKey == "" {
		missing = append(missing, "evolution.apiKey")
	}
	if cfg.Evolution.Instance == "" {
		missing = append(missing, "evolution.instance")
	}
	if cfg.OpenAI.APIKey == "" {
		missing = append(missing, "openai.apiKey")
	}
	if cfg.Database.URL == "" {
		missing = append(missing, "database.url")
	}
	return missing
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
