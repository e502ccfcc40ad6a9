package config

import "os"

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			Timezone: "America/Sao_Paulo",
		},
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			PublicBaseURL: "http://localhost:8080",
			UploadsDir:    "~/.botdevendas/uploads",
		},
		OpenAI: OpenAIConfig{
			APIBase:      "https://api.openai.com/v1",
			ChatModel:    "gpt-4o",
			WhisperModel: "whisper-1",
			Language:     "pt",
			Temperature:  0.2,
		},
		Agent: AgentConfig{
			HistoryLimit:         6,
			MaxIterations:        8,
			ReplyDelayMinSeconds: 4,
			ReplyDelayMaxSeconds: 8,
		},
	}
}

// FromEnv fills credential fields that are still empty from the canonical
// environment variables, so the process can run on a bare environment (or a
// .env file) without a config file.
func FromEnv(cfg *Config) {
	setIfEmpty(&cfg.Evolution.APIURL, "EVOLUTION_API_URL")
	setIfEmpty(&cfg.Evolution.APIKey, "EVOLUTION_API_KEY")
	setIfEmpty(&cfg.Evolution.Instance, "EVOLUTION_INSTANCE_NAME")
	setIfEmpty(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Database.URL, "DATABASE_URL")
	setIfEmpty(&cfg.Server.PublicBaseURL, "PUBLIC_BASE_URL")
}

func setIfEmpty(field *string, envVar string) {
	if *field != "" {
		return
	}
	if v := os.Getenv(envVar); v != "" {
		*field = v
	}
}
