// Package explorer implements the read-only explorer bounded context on top of
// the indexer REST API.
package explorer

import (
	"context"
	"time"

	"github.com/evstack/atlas-sub000/business/explorer/app"
	explorerDI "github.com/evstack/atlas-sub000/business/explorer/di"
	"github.com/evstack/atlas-sub000/business/explorer/infra/atlasapi"
	"github.com/evstack/atlas-sub000/internal/config"
	"github.com/evstack/atlas-sub000/internal/di"
	"github.com/evstack/atlas-sub000/internal/logger"
	"github.com/evstack/atlas-sub000/internal/monolith"
)

// Module implements the explorer bounded context.
type Module struct{}

func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, explorerDI.IndexerClient, func(sr di.ServiceRegistry) *atlasapi.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clientCfg := atlasapi.DefaultConfig(cfg.Indexer.BaseURL)
		clientCfg.StatusPath = cfg.Indexer.StatusPath
		clientCfg.Timeout = cfg.Indexer.RequestTimeout
		clientCfg.RequestsPerMinute = cfg.Indexer.RequestsPerMinute

		client, err := atlasapi.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create indexer client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, explorerDI.ExplorerService, func(sr di.ServiceRegistry) *app.ExplorerService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewExplorerService(explorerDI.GetIndexerClient(sr), app.DefaultCacheSize, log)
	})

	return nil
}

// Startup checks the indexer once. Failure is logged, not fatal: the sync
// engine keeps retrying on its own schedule.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := explorerDI.GetExplorerService(mono.Services())

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st, err := svc.Status(checkCtx)
	if err != nil {
		log.Warn(ctx, "indexer status check failed", "error", err, "base_url", mono.Config().Indexer.BaseURL)
	} else {
		log.Info(ctx, "indexer reachable", "block_height", st.BlockHeight)
	}

	log.Info(ctx, "explorer module started")
	return nil
}
