package push

import (
	"context"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	explorer "github.com/evstack/atlas-sub000/business/explorer/domain"
)

// StatusSource is the indexer client's status endpoint.
type StatusSource interface {
	Status(ctx context.Context) (explorer.Status, error)
}

// StatusFetcher adapts the indexer client to the poll fallback.
type StatusFetcher struct {
	source StatusSource
}

func NewStatusFetcher(source StatusSource) *StatusFetcher {
	return &StatusFetcher{source: source}
}

func (f *StatusFetcher) Status(ctx context.Context) (domain.Status, error) {
	st, err := f.source.Status(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	return domain.Status{BlockHeight: st.BlockHeight, IndexedAt: st.IndexedAt}, nil
}
