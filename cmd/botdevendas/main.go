package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/publicars/botdevendas/internal/agent"
	"github.com/publicars/botdevendas/internal/catalog"
	"github.com/publicars/botdevendas/internal/channel"
	"github.com/publicars/botdevendas/internal/config"
	"github.com/publicars/botdevendas/internal/files"
	"github.com/publicars/botdevendas/internal/memory"
	"github.com/publicars/botdevendas/internal/provider"
	"github.com/publicars/botdevendas/internal/tool"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	_ = godotenv.Load()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "botdevendas",
		Short:   "Publicars WhatsApp sales assistant",
		Long:    "Conversational sales assistant for Publicars: answers WhatsApp messages via the Evolution API, transcribes audio, hosts received media and registers leads.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.botdevendas/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configPathCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file, falling back to env-backed defaults
// when no file exists yet.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		config.FromEnv(cfg)
		cfg.Server.UploadsDir = config.ExpandPath(cfg.Server.UploadsDir)
	}
	return cfg
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-path",
		Short: "Show the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and external services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if missing := config.MissingCredentials(cfg); len(missing) > 0 {
				logger.Warn("missing credentials", "fields", missing)
			} else {
				logger.Info("credentials present")
			}

			llm := provider.NewOpenAI(provider.OpenAIConfig{
				APIKey:  cfg.OpenAI.APIKey,
				APIBase: cfg.OpenAI.APIBase,
				Model:   cfg.OpenAI.ChatModel,
				Logger:  logger,
			})
			if err := llm.Healthy(ctx); err != nil {
				logger.Warn("openai unhealthy", "err", err)
			} else {
				logger.Info("openai healthy", "model", cfg.OpenAI.ChatModel)
			}

			if cfg.Database.URL != "" {
				store, err := memory.NewPostgres(ctx, memory.PostgresConfig{URL: cfg.Database.URL, Logger: logger})
				if err != nil {
					logger.Warn("database unreachable", "err", err)
				} else {
					logger.Info("database reachable")
					store.Close()
				}
			}

			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and reply pipeline",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Missing credentials are fatal for the dependent calls only; the
	// server still starts so the health endpoint stays reachable.
	if missing := config.MissingCredentials(cfg); len(missing) > 0 {
		logger.Error("missing credentials, dependent calls will fail", "fields", missing)
	}

	loc, err := time.LoadLocation(cfg.General.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", cfg.General.Timezone, "err", err)
		loc = time.UTC
	}

	cat, err := catalog.Load(cfg.Agent.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := memory.NewPostgres(ctx, memory.PostgresConfig{URL: cfg.Database.URL, Logger: logger})
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Warn("migration failed, assuming tables exist", "err", err)
	}

	fileStore, err := files.NewStore(files.StoreConfig{
		Dir:           cfg.Server.UploadsDir,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}

	gateway := channel.NewEvolution(channel.EvolutionClientConfig{
		Config: cfg.Evolution,
		Logger: logger,
	})

	llm := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		APIBase: cfg.OpenAI.APIBase,
		Model:   cfg.OpenAI.ChatModel,
		Logger:  logger,
	})
	if err := llm.Healthy(ctx); err != nil {
		logger.Warn("provider unhealthy at startup", "err", err)
	}

	transcriber := provider.NewWhisper(provider.WhisperConfig{
		APIBase:  cfg.OpenAI.APIBase,
		APIKey:   cfg.OpenAI.APIKey,
		Model:    cfg.OpenAI.WhisperModel,
		Language: cfg.OpenAI.Language,
		Logger:   logger,
	})

	toolReg := tool.NewRegistry(logger)
	toolReg.Register(tool.NewFAQSearch(store, logger))
	toolReg.Register(tool.NewAdvertiserLead(store, logger))
	toolReg.Register(tool.NewDriverLead(store, logger))
	toolReg.Register(tool.NewCampaignReach(cat))

	pipeline := agent.NewPipeline(agent.PipelineConfig{
		Normalizer: agent.NewNormalizer(agent.NormalizerConfig{
			Gateway:     gateway,
			Transcriber: transcriber,
			Files:       fileStore,
			Logger:      logger,
		}),
		Store:   store,
		Gateway: gateway,
		Loop: agent.NewLoop(agent.LoopConfig{
			Provider:      llm,
			Tools:         toolReg,
			Logger:        logger,
			MaxIterations: cfg.Agent.MaxIterations,
			Temperature:   cfg.OpenAI.Temperature,
		}),
		Prompts:      agent.NewPromptBuilder(cat, loc),
		Personas:     cat.Personas,
		Logger:       logger,
		HistoryLimit: cfg.Agent.HistoryLimit,
		DelayMin:     time.Duration(cfg.Agent.ReplyDelayMinSeconds) * time.Second,
		DelayMax:     time.Duration(cfg.Agent.ReplyDelayMaxSeconds) * time.Second,
	})

	server := channel.NewServer(channel.ServerConfig{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		UploadsDir: fileStore.Dir(),
		Handler:    pipeline,
		Logger:     logger,
	})

	logger.Info("sales assistant started", "version", version, "instance", cfg.Evolution.Instance)
	return server.Start(ctx)
}
