package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyuef/TrafficSenseAgent/internal/config"
	"github.com/lyuef/TrafficSenseAgent/internal/logger"
	"github.com/lyuef/TrafficSenseAgent/internal/server"
	"github.com/lyuef/TrafficSenseAgent/pkg/agent"
	"github.com/lyuef/TrafficSenseAgent/pkg/session"
	"github.com/lyuef/TrafficSenseAgent/pkg/tools"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TrafficSense agent server",
	Long: `Start the TrafficSense agent HTTP server.
The server holds a single conversation session and exposes chat,
streaming chat, reset, and health endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	appLogger, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	log := appLogger.GetZerolog()

	provider, err := agent.NewProvider(agent.ProviderConfig{
		Provider: cfg.Agent.Provider,
		APIKey:   cfg.Agent.APIKey,
		BaseURL:  cfg.Agent.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create llm provider: %w", err)
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterTrafficTools(registry); err != nil {
		return fmt.Errorf("failed to register traffic tools: %w", err)
	}

	runner, err := agent.NewRunner(agent.Config{
		Provider:      provider,
		Tools:         registry,
		Logger:        log,
		Model:         cfg.Agent.Model,
		SystemPrompt:  cfg.Agent.SystemPrompt,
		Temperature:   cfg.Agent.Temperature,
		MaxTokens:     cfg.Agent.MaxTokens,
		MaxIterations: cfg.Agent.MaxIterations,
		Timeout:       time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent runner: %w", err)
	}

	executor, err := session.NewTurnExecutor(runner, session.NewHistory(), log)
	if err != nil {
		return fmt.Errorf("failed to create turn executor: %w", err)
	}

	var autoReset *session.AutoReset
	if cfg.Session.Reset.Schedule != "" {
		autoReset, err = session.NewAutoReset(executor, cfg.Session.Reset.Schedule, log)
		if err != nil {
			return fmt.Errorf("failed to create auto reset: %w", err)
		}
		autoReset.Start()
		defer autoReset.Stop()
	}

	srv, err := server.New(server.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}, executor, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	return srv.Stop()
}
