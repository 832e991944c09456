// Package main is the entry point for the Atlas explorer client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/evstack/atlas-sub000/business/chainsync"
	syncApp "github.com/evstack/atlas-sub000/business/chainsync/app"
	chainsyncDI "github.com/evstack/atlas-sub000/business/chainsync/di"
	syncDomain "github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/business/explorer"
	explorerDI "github.com/evstack/atlas-sub000/business/explorer/di"
	"github.com/evstack/atlas-sub000/internal/apm"
	"github.com/evstack/atlas-sub000/internal/config"
	"github.com/evstack/atlas-sub000/internal/health"
	"github.com/evstack/atlas-sub000/internal/logger"
	"github.com/evstack/atlas-sub000/internal/metrics"
	"github.com/evstack/atlas-sub000/internal/monolith"
	"github.com/evstack/atlas-sub000/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("atlas %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// the TUI owns the terminal, so logs go to a file
	var out io.Writer = os.Stderr
	if tuiMode {
		f, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = io.Discard
		} else {
			defer f.Close()
			out = f
		}
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Info(ctx, "starting atlas explorer client",
		"version", version,
		"environment", cfg.App.Environment,
		"indexer", cfg.Indexer.BaseURL)

	stopTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// explorer first: chainsync depends on its indexer client
	modules := []monolith.Module{
		&explorer.Module{},
		&chainsync.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	coord := chainsyncDI.GetCoordinator(mono.Services())

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	healthServer.RegisterCheck("indexer_sync", chainsync.HealthCheck(coord))
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Stop(stopCtx)
	}()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mono.ShutdownModules(stopCtx); err != nil {
			log.Error(stopCtx, "error stopping modules", "error", err)
		}
	}()

	if tuiMode {
		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: "modules", Status: "connecting"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				ui.Send(ui.StartupMsg{Step: "modules", Status: "failed"})
				return fmt.Errorf("failed to start modules: %w", err)
			}
			ui.Send(ui.StartupMsg{Step: "modules", Status: "done"})

			coord.OnBlock(func(e syncDomain.Emission) {
				ui.Send(ui.BlockMsg{Emission: e})
			})
			go seedBlocks(ctx, mono, cfg.UI.RecentBlocks, log)
			return nil
		}

		model := ui.New(ui.Options{
			Sync:          coord,
			Prefs:         mono.Prefs(),
			FrameInterval: cfg.Sync.FrameInterval,
			RecentBlocks:  cfg.UI.RecentBlocks,
		})
		return runTUI(ctx, model, startFunc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, cfg, coord, log)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	tel := cfg.Telemetry
	traceProvider, err := apm.NewTraceProvider(tel.ServiceName,
		apm.WithProvider(apm.Provider(tel.TraceProvider), tel.TraceEndpoint, tel.Headers(), log))
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", tel.TraceProvider, "endpoint", tel.TraceEndpoint)

	providers := []metrics.ProviderCfg{{Provider: metrics.PrometheusProvider}}
	if apm.Provider(tel.TraceProvider) == apm.OTLPGRPCProvider && tel.TraceEndpoint != "" {
		providers = append(providers, metrics.NewOtelCollectorConfig(tel.TraceEndpoint, tel.Headers(), false))
	}

	opts := []metrics.OptionFn{metrics.WithServiceName(tel.ServiceName)}
	for _, p := range providers {
		opts = append(opts, metrics.WithProviderConfig(p))
	}
	meterProvider, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := strconv.Itoa(tel.PrometheusPort)
	go func() {
		if err := metrics.ServePrometheusMetrics(ctx, metrics.WithPort(port)); err != nil {
			log.Error(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = meterProvider.Shutdown(stopCtx)
		_ = traceProvider.Stop()
	}, nil
}

func seedBlocks(ctx context.Context, mono monolith.Monolith, n int, log logger.LoggerInterface) {
	svc := explorerDI.GetExplorerService(mono.Services())

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	blocks, err := svc.LatestBlocks(reqCtx, n)
	if err != nil {
		log.Warn(ctx, "failed to load latest blocks", "error", err)
		ui.Send(ui.ErrorMsg{Error: fmt.Errorf("loading latest blocks: %w", err)})
		return
	}
	ui.Send(ui.BlocksSeedMsg{Blocks: blocks})
	ui.Send(ui.LogMsg{Level: "info", Message: fmt.Sprintf("loaded %d latest blocks", len(blocks))})
}

// runCLI logs the animated height whenever the displayed value changes.
func runCLI(ctx context.Context, cfg *config.Config, coord *syncApp.Coordinator, log logger.LoggerInterface) error {
	log.Info(ctx, "all modules started, following chain height")

	var last uint64
	animator := syncApp.NewAnimator(cfg.Sync.FrameInterval, coord, func(f syncApp.DisplayFrame) {
		if !f.Visible || f.Value == last {
			return
		}
		last = f.Value
		log.Info(ctx, "height",
			"display", f.Value,
			"height", f.Snapshot.Height,
			"source", f.Snapshot.Source,
			"stream", f.Snapshot.StreamState,
			"bps", f.Snapshot.Rate.BPS)
	})

	coord.OnBlock(func(e syncDomain.Emission) {
		if e.Skipped > 0 {
			log.Warn(ctx, "drain skipped backlog", "skipped", e.Skipped, "to", e.Event.Block.Number)
		}
	})

	animator.Run(ctx)

	st := coord.Stats()
	log.Info(context.Background(), "shutting down",
		"received", st.Received,
		"emitted", st.Emitted,
		"skipped", st.Skipped,
		"reconnects", st.Reconnects,
		"poll_errors", st.PollErrors)
	return nil
}

func runTUI(ctx context.Context, model ui.Model, startFunc func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		// modules start once the welcome screen is done
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
