package asset

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset       = errors.New("asset: nil asset")
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrInvalidRaw     = errors.New("asset: invalid raw quantity")
)

// Amount is an immutable quantity in the asset's smallest unit.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

func NewAmount(asset *Asset, raw *big.Int) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{raw: new(big.Int).Set(raw), asset: asset}, nil
}

// ParseRaw reads a smallest-unit quantity as the indexer encodes it: a
// base-10 string or a 0x-prefixed hex quantity. Empty means zero.
func ParseRaw(asset *Asset, s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewAmount(asset, nil)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := hexutil.DecodeBig(strings.ToLower(s))
		if err != nil {
			return Amount{}, fmt.Errorf("%w %q: %v", ErrInvalidRaw, s, err)
		}
		return NewAmount(asset, v)
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w %q", ErrInvalidRaw, s)
	}
	return NewAmount(asset, v)
}

// Raw returns a copy of the smallest-unit value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Asset() *Asset {
	return a.asset
}

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// ToDecimal converts to display units.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// String renders the exact value with its symbol, e.g. "1.5 ETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return a.ToDecimal().String() + " " + a.asset.Symbol()
}

// Format rounds to places and strips trailing zeros. Non-zero values that
// round to zero render as "<0.0001 ETH" style.
func (a Amount) Format(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}

	d := a.ToDecimal()
	rounded := d.Round(places)
	if rounded.IsZero() && !d.IsZero() {
		return "<" + decimal.New(1, -places).String() + " " + a.asset.Symbol()
	}
	return rounded.String() + " " + a.asset.Symbol()
}

// FormatGwei renders a wei quantity (gas price, base fee) in gwei.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0 gwei"
	}
	return decimal.NewFromBigInt(wei, -9).Round(4).String() + " gwei"
}
