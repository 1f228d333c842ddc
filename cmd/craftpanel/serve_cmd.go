package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/gameproc"
	"github.com/craftpanel/craftpanel-go/internal/gateway"
	"github.com/craftpanel/craftpanel-go/internal/index"
	"github.com/craftpanel/craftpanel-go/internal/logs"
	"github.com/craftpanel/craftpanel-go/internal/mods"
	"github.com/craftpanel/craftpanel-go/internal/observability"
	"github.com/craftpanel/craftpanel-go/internal/storage"
	"github.com/craftpanel/craftpanel-go/internal/token"
	"github.com/craftpanel/craftpanel-go/internal/versions"
)

func getServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the panel daemon (HTTP API, console gateway, game supervisor)",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	cfg.Logging.EnableFile = logToFile
	if logDir != "" {
		cfg.Logging.LogDir = logDir
	}

	logger, err := logs.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting craftpanel",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.String("data_dir", cfg.DataDir))

	db, err := storage.NewBoltDB(cfg.DataDir, logger.Sugar())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = db.Close() }()

	idx, err := index.NewBleveIndex(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	modMgr, err := mods.NewManager(cfg.Mods, db, idx, logger)
	if err != nil {
		return fmt.Errorf("failed to create mod manager: %w", err)
	}
	if err := modMgr.Sync(); err != nil {
		logger.Warn("Initial mod scan failed", zap.Error(err))
	}

	metrics := observability.NewMetricsManager(logger.Sugar())

	var tracing *observability.TracingManager
	if cfg.Tracing != nil && cfg.Tracing.Enabled {
		tracing, err = observability.NewTracingManager(logger.Sugar(), *cfg.Tracing)
		if err != nil {
			logger.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
			tracing = nil
		}
	}

	secret, err := newTokenSecret()
	if err != nil {
		return err
	}
	issuer := token.NewIssuer(secret, cfg.Console.TokenTTL())

	buffer := gameproc.NewConsoleBuffer(consoleBufferLines(cfg.Console.HistoryLines))
	checker := versions.New(logger, gameVersionFromConfig(cfg), cfg.Versions.ManifestURL,
		cfg.Versions.CheckInterval(), db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *gateway.Server
	game := gameproc.NewSupervisor(cfg.Game, buffer, logger, func(line string) {
		if srv != nil {
			srv.Hub().Broadcast(line)
		}
	})

	srv = gateway.NewServer(gateway.Deps{
		Config:  cfg,
		Logger:  logger,
		Issuer:  issuer,
		Game:    game,
		Buffer:  buffer,
		Mods:    modMgr,
		Checker: checker,
		DB:      db,
		Metrics: metrics,
		Tracing: tracing,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	go checker.Start(ctx)

	if cfg.Game.AutoStart && cfg.Game.Command != "" {
		if err := game.Start(); err != nil {
			logger.Error("Failed to auto-start game server", zap.Error(err))
		}
	}

	err = srv.Run(ctx)

	if snap := game.Snapshot(); snap.Status == gameproc.StatusRunning {
		if stopErr := game.Stop(); stopErr != nil {
			logger.Warn("Game server stop on shutdown", zap.Error(stopErr))
		}
	}
	if tracing != nil {
		if closeErr := tracing.Close(context.Background()); closeErr != nil {
			logger.Warn("Tracer shutdown", zap.Error(closeErr))
		}
	}
	return err
}

// consoleBufferLines sizes the in-memory scrollback. It keeps a healthy
// multiple of the largest replay a subscriber can ask for.
func consoleBufferLines(historyLines int) int {
	const minBuffer = 1000
	if n := historyLines * 4; n > minBuffer {
		return n
	}
	return minBuffer
}
