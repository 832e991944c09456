// Package app contains the explorer service and its port to the indexer API.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evstack/atlas-sub000/business/explorer/domain"
)

// IndexerAPI is the read-only REST surface of the indexer. Implementations
// validate nothing; the service validates inputs before calling.
type IndexerAPI interface {
	ListBlocks(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Block], error)
	GetBlock(ctx context.Context, number uint64) (domain.Block, error)
	ListBlockTransactions(ctx context.Context, number uint64, page domain.PageRequest) (domain.Page[domain.Transaction], error)

	ListTransactions(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Transaction], error)
	GetTransaction(ctx context.Context, hash common.Hash) (domain.Transaction, error)
	ListTransactionLogs(ctx context.Context, hash common.Hash, page domain.PageRequest) (domain.Page[domain.Log], error)

	GetAddress(ctx context.Context, addr common.Address) (domain.Address, error)
	ListAddressTransactions(ctx context.Context, addr common.Address, page domain.PageRequest) (domain.Page[domain.Transaction], error)
	ListAddressTokens(ctx context.Context, addr common.Address, page domain.PageRequest) (domain.Page[domain.TokenBalance], error)

	ListTokens(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Token], error)
	GetToken(ctx context.Context, addr common.Address) (domain.Token, error)
	ListTokenHolders(ctx context.Context, addr common.Address, page domain.PageRequest) (domain.Page[domain.TokenHolder], error)

	ListNFTCollections(ctx context.Context, page domain.PageRequest) (domain.Page[domain.NFTCollection], error)
	GetNFTToken(ctx context.Context, contract common.Address, tokenID string) (domain.NFTToken, error)

	ListLabels(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Label], error)
	GetLabel(ctx context.Context, addr common.Address) (domain.Label, error)

	ListProxies(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Proxy], error)
	GetProxy(ctx context.Context, addr common.Address) (domain.Proxy, error)

	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Status(ctx context.Context) (domain.Status, error)
}
