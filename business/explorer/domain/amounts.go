package domain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/evstack/atlas-sub000/internal/asset"
)

// ValueAmount is the transferred native value.
func (t Transaction) ValueAmount() (asset.Amount, error) {
	return asset.ParseRaw(asset.ETH, t.Value)
}

// GasPriceGwei renders the gas price, empty when the indexer sent garbage.
func (t Transaction) GasPriceGwei() string {
	a, err := asset.ParseRaw(asset.ETH, t.GasPrice)
	if err != nil {
		return ""
	}
	return asset.FormatGwei(a.Raw())
}

// BaseFeeGwei renders the block base fee, empty for pre-London blocks.
func (b Block) BaseFeeGwei() string {
	if b.BaseFeePerGas == "" {
		return ""
	}
	a, err := asset.ParseRaw(asset.ETH, b.BaseFeePerGas)
	if err != nil {
		return ""
	}
	return asset.FormatGwei(a.Raw())
}

func (a Address) BalanceAmount() (asset.Amount, error) {
	return asset.ParseRaw(asset.ETH, a.Balance)
}

// Asset describes the token so balances render with its decimals.
func (b TokenBalance) Asset() *asset.Asset {
	return asset.Token(common.HexToAddress(b.TokenAddress), b.Symbol, b.Name, b.Decimals)
}

func (b TokenBalance) Amount() (asset.Amount, error) {
	return asset.ParseRaw(b.Asset(), b.Balance)
}

func (t Token) Asset() *asset.Asset {
	return asset.Token(common.HexToAddress(t.Address), t.Symbol, t.Name, t.Decimals)
}

// HolderAmount interprets a holder balance in the token's units.
func (t Token) HolderAmount(h TokenHolder) (asset.Amount, error) {
	return asset.ParseRaw(t.Asset(), h.Balance)
}
