// Package chainsync implements the live chain-height sync bounded context.
package chainsync

import (
	"context"
	"fmt"

	"github.com/evstack/atlas-sub000/business/chainsync/app"
	chainsyncDI "github.com/evstack/atlas-sub000/business/chainsync/di"
	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/business/chainsync/infra/push"
	explorerDI "github.com/evstack/atlas-sub000/business/explorer/di"
	"github.com/evstack/atlas-sub000/internal/config"
	"github.com/evstack/atlas-sub000/internal/di"
	"github.com/evstack/atlas-sub000/internal/health"
	"github.com/evstack/atlas-sub000/internal/logger"
	"github.com/evstack/atlas-sub000/internal/monolith"
)

// Module implements the chainsync bounded context. It depends on the
// explorer module for the indexer client.
type Module struct {
	coordinator *app.Coordinator
}

func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, chainsyncDI.Dialer, func(sr di.ServiceRegistry) app.Dialer {
		cfg := sr.Get("config").(*config.Config)
		client := explorerDI.GetIndexerClient(sr)

		if cfg.Indexer.Transport == config.TransportWebSocket {
			return push.NewWSDialer(cfg.Indexer.EventsURL(), nil)
		}
		return push.NewSSEDialer(client.HTTP().Streaming(), cfg.Indexer.EventsURL(), nil)
	})

	di.RegisterToken(c, chainsyncDI.StatusFetcher, func(sr di.ServiceRegistry) app.StatusFetcher {
		return push.NewStatusFetcher(explorerDI.GetIndexerClient(sr))
	})

	di.RegisterToken(c, chainsyncDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return NewCoordinator(cfg.Sync, chainsyncDI.GetDialer(sr), chainsyncDI.GetStatusFetcher(sr), log)
	})

	return nil
}

// NewCoordinator assembles the sync engine from configuration.
func NewCoordinator(cfg config.SyncConfig, dialer app.Dialer, fetcher app.StatusFetcher, log logger.LoggerInterface) *app.Coordinator {
	samples := app.NewSampleLog(cfg.SampleCapacity)
	rates := app.NewRateTracker(app.RateConfig{
		DisplayWindow:   cfg.DisplayWindow,
		PacingWindow:    cfg.PacingWindow,
		MinInterval:     cfg.DrainMinInterval,
		MaxInterval:     cfg.DrainMaxInterval,
		DefaultInterval: cfg.DrainDefaultInterval,
	})
	queue := app.NewEventQueue()

	stream := app.NewStreamSource(app.StreamConfig{ReconnectDelay: cfg.ReconnectDelay}, dialer, samples, rates, queue, log)
	drain := app.NewEventDrain(app.DrainConfig{
		IdleInterval:      cfg.DrainIdleInterval,
		OverflowThreshold: cfg.OverflowThreshold,
		OverflowKeep:      cfg.OverflowKeep,
		CatchUpThreshold:  cfg.CatchUpThreshold,
		CatchUpFactor:     cfg.CatchUpFactor,
	}, queue, rates, log)
	poll := app.NewPollSource(app.PollConfig{Interval: cfg.PollInterval, Alpha: cfg.EMAAlpha}, fetcher, log)

	return app.NewCoordinator(stream, drain, poll, rates, queue, log)
}

// Startup starts the sync engine. It runs until Shutdown or ctx ends.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	m.coordinator = chainsyncDI.GetCoordinator(mono.Services())
	m.coordinator.Start(ctx)

	log.Info(ctx, "chainsync module started",
		"transport", cfg.Indexer.Transport,
		"events_url", cfg.Indexer.EventsURL(),
		"poll_interval", cfg.Sync.PollInterval.String())
	return nil
}

func (m *Module) Shutdown(context.Context) error {
	if m.coordinator != nil {
		m.coordinator.Stop()
	}
	return nil
}

// HealthCheck reports the sync engine as healthy once a height is known,
// unless the stream is down and the last poll failed.
func HealthCheck(source app.SnapshotSource) health.CheckFunc {
	return func(context.Context) (bool, string) {
		snap := source.Snapshot()
		if !snap.HasHeight {
			return false, "no height yet"
		}
		if snap.StreamState != domain.StreamConnected && snap.PollError != "" {
			return false, fmt.Sprintf("stream %s, last poll failed: %s", snap.StreamState, snap.PollError)
		}
		return true, fmt.Sprintf("height %d via %s", snap.Height, snap.Source)
	}
}
