// Package asset formats on-chain quantities in their display units.
package asset

import "github.com/ethereum/go-ethereum/common"

// Asset is the display metadata of a native coin or token contract.
type Asset struct {
	symbol   string
	name     string
	decimals uint8
	address  common.Address
}

// ETH is the chain's native coin.
var ETH = Native("ETH", "Ether")

// Native creates an 18-decimal native coin.
func Native(symbol, name string) *Asset {
	return &Asset{symbol: symbol, name: name, decimals: 18}
}

// Token creates a token asset. Indexers report decimals as untrusted metadata,
// so anything above 36 is clamped.
func Token(address common.Address, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		symbol = "???"
	}
	return &Asset{
		symbol:   symbol,
		name:     name,
		decimals: min(decimals, 36),
		address:  address,
	}
}

func (a *Asset) Symbol() string {
	return a.symbol
}

// Name falls back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// Address is the zero address for native coins.
func (a *Asset) Address() common.Address {
	return a.address
}

func (a *Asset) IsNative() bool {
	return a.address == (common.Address{})
}

func (a *Asset) String() string {
	return a.symbol
}
