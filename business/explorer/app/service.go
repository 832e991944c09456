package app

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"

	"github.com/evstack/atlas-sub000/business/explorer/domain"
	"github.com/evstack/atlas-sub000/internal/apperror"
	"github.com/evstack/atlas-sub000/internal/logger"
)

const DefaultCacheSize = 256

// ExplorerService validates inputs, forwards to the indexer and caches
// immutable detail records.
type ExplorerService struct {
	api    IndexerAPI
	logger logger.LoggerInterface

	blocks *lru.Cache[uint64, domain.Block]
	txs    *lru.Cache[common.Hash, domain.Transaction]
}

func NewExplorerService(api IndexerAPI, cacheSize int, log logger.LoggerInterface) *ExplorerService {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &ExplorerService{
		api:    api,
		logger: log,
		blocks: lru.NewCache[uint64, domain.Block](cacheSize),
		txs:    lru.NewCache[common.Hash, domain.Transaction](cacheSize),
	}
}

func (s *ExplorerService) ListBlocks(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Block], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Block]{}, err
	}
	return s.api.ListBlocks(ctx, page)
}

// LatestBlocks returns up to n of the newest blocks, newest first.
func (s *ExplorerService) LatestBlocks(ctx context.Context, n int) ([]domain.Block, error) {
	limit := uint32(min(max(n, 1), domain.MaxPageLimit))
	p, err := s.ListBlocks(ctx, domain.PageRequest{Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	for _, b := range p.Data {
		s.blocks.Add(b.Number, b)
	}
	s.logger.Debug(ctx, "fetched latest blocks", "count", len(p.Data), "total", p.Total)
	return p.Data, nil
}

func (s *ExplorerService) GetBlock(ctx context.Context, number uint64) (domain.Block, error) {
	if b, ok := s.blocks.Get(number); ok {
		return b, nil
	}
	b, err := s.api.GetBlock(ctx, number)
	if err != nil {
		return domain.Block{}, err
	}
	s.blocks.Add(number, b)
	return b, nil
}

func (s *ExplorerService) ListBlockTransactions(ctx context.Context, number uint64, page domain.PageRequest) (domain.Page[domain.Transaction], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	return s.api.ListBlockTransactions(ctx, number, page)
}

func (s *ExplorerService) ListTransactions(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Transaction], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	return s.api.ListTransactions(ctx, page)
}

// GetTransaction caches only mined transactions; pending ones may change.
func (s *ExplorerService) GetTransaction(ctx context.Context, hash string) (domain.Transaction, error) {
	h, err := domain.ParseHash(hash)
	if err != nil {
		return domain.Transaction{}, err
	}
	if tx, ok := s.txs.Get(h); ok {
		return tx, nil
	}

	tx, err := s.api.GetTransaction(ctx, h)
	if err != nil {
		return domain.Transaction{}, err
	}
	if tx.BlockNumber > 0 {
		s.txs.Add(h, tx)
	}
	return tx, nil
}

func (s *ExplorerService) ListTransactionLogs(ctx context.Context, hash string, page domain.PageRequest) (domain.Page[domain.Log], error) {
	h, err := domain.ParseHash(hash)
	if err != nil {
		return domain.Page[domain.Log]{}, err
	}
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Log]{}, err
	}
	return s.api.ListTransactionLogs(ctx, h, page)
}

func (s *ExplorerService) GetAddress(ctx context.Context, addr string) (domain.Address, error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Address{}, err
	}
	return s.api.GetAddress(ctx, a)
}

func (s *ExplorerService) ListAddressTransactions(ctx context.Context, addr string, page domain.PageRequest) (domain.Page[domain.Transaction], error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	return s.api.ListAddressTransactions(ctx, a, page)
}

func (s *ExplorerService) ListAddressTokens(ctx context.Context, addr string, page domain.PageRequest) (domain.Page[domain.TokenBalance], error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Page[domain.TokenBalance]{}, err
	}
	if err := page.Validate(); err != nil {
		return domain.Page[domain.TokenBalance]{}, err
	}
	return s.api.ListAddressTokens(ctx, a, page)
}

func (s *ExplorerService) ListTokens(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Token], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Token]{}, err
	}
	return s.api.ListTokens(ctx, page)
}

func (s *ExplorerService) GetToken(ctx context.Context, addr string) (domain.Token, error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Token{}, err
	}
	return s.api.GetToken(ctx, a)
}

func (s *ExplorerService) ListTokenHolders(ctx context.Context, addr string, page domain.PageRequest) (domain.Page[domain.TokenHolder], error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Page[domain.TokenHolder]{}, err
	}
	if err := page.Validate(); err != nil {
		return domain.Page[domain.TokenHolder]{}, err
	}
	return s.api.ListTokenHolders(ctx, a, page)
}

func (s *ExplorerService) ListNFTCollections(ctx context.Context, page domain.PageRequest) (domain.Page[domain.NFTCollection], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.NFTCollection]{}, err
	}
	return s.api.ListNFTCollections(ctx, page)
}

// GetNFTToken accepts a decimal or 0x-hex token id and normalizes it to decimal.
func (s *ExplorerService) GetNFTToken(ctx context.Context, contract, tokenID string) (domain.NFTToken, error) {
	c, err := domain.ParseAddress(contract)
	if err != nil {
		return domain.NFTToken{}, err
	}

	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 0)
	if !ok || id.Sign() < 0 {
		return domain.NFTToken{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("invalid token id "+tokenID))
	}
	return s.api.GetNFTToken(ctx, c, id.String())
}

func (s *ExplorerService) ListLabels(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Label], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Label]{}, err
	}
	return s.api.ListLabels(ctx, page)
}

func (s *ExplorerService) GetLabel(ctx context.Context, addr string) (domain.Label, error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Label{}, err
	}
	return s.api.GetLabel(ctx, a)
}

func (s *ExplorerService) ListProxies(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Proxy], error) {
	if err := page.Validate(); err != nil {
		return domain.Page[domain.Proxy]{}, err
	}
	return s.api.ListProxies(ctx, page)
}

func (s *ExplorerService) GetProxy(ctx context.Context, addr string) (domain.Proxy, error) {
	a, err := domain.ParseAddress(addr)
	if err != nil {
		return domain.Proxy{}, err
	}
	return s.api.GetProxy(ctx, a)
}

// Search forwards a trimmed, non-empty query.
func (s *ExplorerService) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("empty search query"))
	}
	return s.api.Search(ctx, q)
}

func (s *ExplorerService) Status(ctx context.Context) (domain.Status, error) {
	return s.api.Status(ctx)
}
