// Package di contains dependency injection tokens for the chainsync context.
package di

import (
	"github.com/evstack/atlas-sub000/business/chainsync/app"
	"github.com/evstack/atlas-sub000/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("chainsync.Coordinator")
)

// Private dependency tokens - internal to chainsync module
var (
	Dialer        = di.NewToken[app.Dialer]("chainsync:dialer")
	StatusFetcher = di.NewToken[app.StatusFetcher]("chainsync:statusFetcher")
)

func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}

func GetDialer(c di.ServiceRegistry) app.Dialer {
	return di.GetToken(c, Dialer)
}

func GetStatusFetcher(c di.ServiceRegistry) app.StatusFetcher {
	return di.GetToken(c, StatusFetcher)
}
