// Package app implements the chain-height sync engine.
package app

import (
	"context"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
)

// Dialer opens one push channel connection. The connection must stay usable
// until ctx is cancelled or Close is called.
type Dialer interface {
	Dial(ctx context.Context) (EventConn, error)
}

// EventConn yields raw new_block payloads. Any error ends the connection.
type EventConn interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// StatusFetcher reads the indexer's current height.
type StatusFetcher interface {
	Status(ctx context.Context) (domain.Status, error)
}

// SnapshotSource is what the display layer reads every frame.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}
