package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/internal/asset"
)

func TestTransactionAmounts(t *testing.T) {
	tx := Transaction{Value: "1500000000000000000", GasPrice: "0x4a817c800"}

	v, err := tx.ValueAmount()
	require.NoError(t, err)
	require.Equal(t, "1.5 ETH", v.String())
	require.Equal(t, "20 gwei", tx.GasPriceGwei())

	tx.GasPrice = "lots"
	require.Empty(t, tx.GasPriceGwei())

	tx.Value = "-1"
	_, err = tx.ValueAmount()
	require.ErrorIs(t, err, asset.ErrNegativeAmount)
}

func TestBlockBaseFee(t *testing.T) {
	require.Empty(t, Block{}.BaseFeeGwei())
	require.Equal(t, "7.5 gwei", Block{BaseFeePerGas: "7500000000"}.BaseFeeGwei())
}

func TestTokenBalanceAmount(t *testing.T) {
	b := TokenBalance{
		TokenAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		Symbol:       "USDC",
		Decimals:     6,
		Balance:      "2500000",
	}
	a, err := b.Amount()
	require.NoError(t, err)
	require.Equal(t, "2.5 USDC", a.String())
	require.False(t, a.Asset().IsNative())

	tok := Token{Address: b.TokenAddress, Decimals: 6}
	h, err := tok.HolderAmount(TokenHolder{Balance: "1"})
	require.NoError(t, err)
	require.Equal(t, "<0.0001 ???", h.Format(4))
}

func TestAddressBalance(t *testing.T) {
	a, err := Address{Balance: ""}.BalanceAmount()
	require.NoError(t, err)
	require.True(t, a.IsZero())
}
