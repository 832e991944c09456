package atlasapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evstack/atlas-sub000/business/explorer/domain"
)

func list[T any](ctx context.Context, c *Client, resource, path string, p domain.PageRequest) (domain.Page[T], error) {
	var out domain.Page[T]
	err := c.get(ctx, resource, path, pageQuery(p.Page, p.Limit), &out)
	return out, err
}

func one[T any](ctx context.Context, c *Client, resource, path string) (T, error) {
	var out T
	err := c.get(ctx, resource, path, nil, &out)
	return out, err
}

// addr renders addresses lower-case, as the indexer stores them.
func addr(a common.Address) string {
	return "0x" + common.Bytes2Hex(a.Bytes())
}

func blockPath(n uint64) string {
	return "blocks/" + strconv.FormatUint(n, 10)
}

func (c *Client) ListBlocks(ctx context.Context, p domain.PageRequest) (domain.Page[domain.Block], error) {
	return list[domain.Block](ctx, c, "blocks", "blocks", p)
}

func (c *Client) GetBlock(ctx context.Context, n uint64) (domain.Block, error) {
	return one[domain.Block](ctx, c, "block", blockPath(n))
}

func (c *Client) ListBlockTransactions(ctx context.Context, n uint64, p domain.PageRequest) (domain.Page[domain.Transaction], error) {
	return list[domain.Transaction](ctx, c, "block_transactions", blockPath(n)+"/transactions", p)
}

func (c *Client) ListTransactions(ctx context.Context, p domain.PageRequest) (domain.Page[domain.Transaction], error) {
	return list[domain.Transaction](ctx, c, "transactions", "transactions", p)
}

func (c *Client) GetTransaction(ctx context.Context, h common.Hash) (domain.Transaction, error) {
	return one[domain.Transaction](ctx, c, "transaction", "transactions/"+h.Hex())
}

func (c *Client) ListTransactionLogs(ctx context.Context, h common.Hash, p domain.PageRequest) (domain.Page[domain.Log], error) {
	return list[domain.Log](ctx, c, "transaction_logs", "transactions/"+h.Hex()+"/logs", p)
}

func (c *Client) GetAddress(ctx context.Context, a common.Address) (domain.Address, error) {
	return one[domain.Address](ctx, c, "address", "addresses/"+addr(a))
}

func (c *Client) ListAddressTransactions(ctx context.Context, a common.Address, p domain.PageRequest) (domain.Page[domain.Transaction], error) {
	return list[domain.Transaction](ctx, c, "address_transactions", "addresses/"+addr(a)+"/transactions", p)
}

func (c *Client) ListAddressTokens(ctx context.Context, a common.Address, p domain.PageRequest) (domain.Page[domain.TokenBalance], error) {
	return list[domain.TokenBalance](ctx, c, "address_tokens", "addresses/"+addr(a)+"/tokens", p)
}

func (c *Client) ListTokens(ctx context.Context, p domain.PageRequest) (domain.Page[domain.Token], error) {
	return list[domain.Token](ctx, c, "tokens", "tokens", p)
}

func (c *Client) GetToken(ctx context.Context, a common.Address) (domain.Token, error) {
	return one[domain.Token](ctx, c, "token", "tokens/"+addr(a))
}

func (c *Client) ListTokenHolders(ctx context.Context, a common.Address, p domain.PageRequest) (domain.Page[domain.TokenHolder], error) {
	return list[domain.TokenHolder](ctx, c, "token_holders", "tokens/"+addr(a)+"/holders", p)
}

func (c *Client) ListNFTCollections(ctx context.Context, p domain.PageRequest) (domain.Page[domain.NFTCollection], error) {
	return list[domain.NFTCollection](ctx, c, "nft_collections", "nfts/collections", p)
}

func (c *Client) GetNFTToken(ctx context.Context, contract common.Address, tokenID string) (domain.NFTToken, error) {
	return one[domain.NFTToken](ctx, c, "nft_token", "nfts/collections/"+addr(contract)+"/tokens/"+tokenID)
}

func (c *Client) ListLabels(ctx context.Context, p domain.PageRequest) (domain.Page[domain.Label], error) {
	return list[domain.Label](ctx, c, "labels", "labels", p)
}

func (c *Client) GetLabel(ctx context.Context, a common.Address) (domain.Label, error) {
	return one[domain.Label](ctx, c, "label", "labels/"+addr(a))
}

func (c *Client) ListProxies(ctx context.Context, p domain.PageRequest) (domain.Page[domain.Proxy], error) {
	return list[domain.Proxy](ctx, c, "proxies", "proxies", p)
}

func (c *Client) GetProxy(ctx context.Context, a common.Address) (domain.Proxy, error) {
	return one[domain.Proxy](ctx, c, "proxy", "contracts/"+addr(a)+"/proxy")
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var out domain.SearchResponse
	err := c.get(ctx, "search", "search", url.Values{"q": []string{query}}, &out)
	return out.Results, err
}

// Status reports the indexer's current height. It is the poll fallback's
// only request.
func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	return one[domain.Status](ctx, c, "status", c.statusPath)
}
