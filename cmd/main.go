package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/cue"
	"github.com/juraj-juraj/BRIA-project/internal/adapters/http/api"
	"github.com/juraj-juraj/BRIA-project/internal/adapters/http/swagger"
	"github.com/juraj-juraj/BRIA-project/internal/adapters/source"
	app "github.com/juraj-juraj/BRIA-project/internal/app"
	"github.com/juraj-juraj/BRIA-project/internal/config"
	"github.com/juraj-juraj/BRIA-project/internal/domain/types"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		if err := logger.Init(logger.WithFile(cfg.LogFile)); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	board, rate, err := buildSource(cfg)
	if err != nil {
		return err
	}
	log.Info(ctx, "source ready",
		logger.String("board", board.Describe()),
		logger.Any("channels", cfg.Channels),
	)

	channels, err := cfg.ChannelSet(board.Channels())
	if err != nil {
		return err
	}

	player, closeCue := buildCue(ctx, cfg)
	defer closeCue()

	svc := app.New(board, channels,
		app.WithProtocol(cfg.PhaseList(), rate),
		app.WithEventLabels(cfg.Labels()),
		app.WithServiceCue(player, cfg.Cue.FrequencyHz, cfg.CueDuration()),
		app.WithTiming(cfg.GuardMargin(), cfg.PollInterval(), cfg.CapacityFactor),
		app.WithOutput(cfg.OutputDir, cfg.OutputPrefix),
		app.WithLogger(log.Named("service")),
	)

	go startSystemMetricsUpdater(ctx)

	var srv *http.Server
	if cfg.Addr != "" {
		srv = newHTTPServer(ctx, cfg.Addr, svc)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	_, path, runErr := svc.Run(ctx)
	if runErr != nil {
		log.Error(ctx, "acquisition failed", logger.Error(runErr))
	} else {
		log.Info(ctx, "acquisition finished", logger.String("path", path))
	}

	if srv == nil {
		return runErr
	}

	// Keep the status surface up so a failed write can be retried.
	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")

	if svc.Status().State == types.StateDone {
		return nil
	}
	return runErr
}

// buildSource creates the board selected by cfg.Source.Kind and returns it
// with the sample rate the protocol must run at.
func buildSource(cfg *config.Config) (*source.Board, float64, error) {
	var gen source.Generator
	rate := cfg.SampleRate
	switch cfg.Source.Kind {
	case config.SourceReplay:
		replay, replayRate, err := source.NewReplay(cfg.Source.ReplayPath)
		if err != nil {
			return nil, 0, err
		}
		gen, rate = replay, replayRate
	default:
		gen = source.NewSynthetic(cfg.Source.BoardChannels, rate, cfg.Source.Seed)
	}

	board, err := source.NewBoard(gen, rate)
	if err != nil {
		return nil, 0, err
	}
	return board, rate, nil
}

// buildCue opens the audio device when cues are enabled. A missing device
// degrades to silence.
func buildCue(ctx context.Context, cfg *config.Config) (app.Cue, func()) {
	if !cfg.Cue.Enabled {
		return cue.Nop{}, func() {}
	}
	player, err := cue.NewMiniaudio()
	if err != nil {
		logger.Get().Warn(ctx, "audio cue unavailable; continuing without it", logger.Error(err))
		return cue.Nop{}, func() {}
	}
	return player, player.Close
}

// newHTTPServer wires the status API and the OpenAPI document.
func newHTTPServer(ctx context.Context, addr string, svc api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
