// Package di contains dependency injection tokens for the explorer context.
package di

import (
	"github.com/evstack/atlas-sub000/business/explorer/app"
	"github.com/evstack/atlas-sub000/business/explorer/infra/atlasapi"
	"github.com/evstack/atlas-sub000/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ExplorerService = di.NewToken[*app.ExplorerService]("explorer.ExplorerService")
	IndexerClient   = di.NewToken[*atlasapi.Client]("explorer.IndexerClient")
)

func GetExplorerService(c di.ServiceRegistry) *app.ExplorerService {
	return di.GetToken(c, ExplorerService)
}

func GetIndexerClient(c di.ServiceRegistry) *atlasapi.Client {
	return di.GetToken(c, IndexerClient)
}
