// main package for the namecast audio-cache service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/namecast/namecast/internal/cachestore"
	"github.com/namecast/namecast/internal/config"
	"github.com/namecast/namecast/internal/permutation"
	"github.com/namecast/namecast/internal/provider"
	"github.com/namecast/namecast/internal/session"
	"github.com/namecast/namecast/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "namecast-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve connects to NATS, builds the store, provider, and worker, and blocks
// until the process receives a termination signal.
func serve(cfg *config.Config, log *logger.Logger) error {
	// API keys live in the process environment only. They are never read
	// from or written to the configuration file.
	secrets := session.FromEnv()

	synth, err := provider.New(&cfg.Provider, secrets, cfg.Timeout())
	if err != nil {
		log.Error("Failed to construct TTS provider: %v", err)

		return fmt.Errorf("failed to construct TTS provider: %w", err)
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		log.Error("Failed to create JetStream context: %v", err)

		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := cachestore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		log.Error("Failed to initialize audio cache store: %v", err)

		return fmt.Errorf("failed to initialize audio cache store: %w", err)
	}

	names := make([]permutation.Name, 0, len(cfg.Names))
	for _, entry := range cfg.Names {
		names = append(names, permutation.Name{First: entry.First, Last: entry.Last})
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.CommandSubjectPrefix,
		cfg.NATS.BatchProgressSubject,
		store,
		synth,
		names,
		cfg.InterItemDelay(),
		log,
	)
	if err != nil {
		log.Error("Failed to create NATS worker: %v", err)

		return fmt.Errorf("failed to create NATS worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System(
		"Namecast successfully initialized. Listening for commands on prefix: %s",
		cfg.NATS.CommandSubjectPrefix,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		log.Error("Worker exited with error: %v", err)

		return fmt.Errorf("worker exited with error: %w", err)
	}

	log.System("Namecast shut down cleanly.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
