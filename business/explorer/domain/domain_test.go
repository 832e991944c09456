package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())

	for _, bad := range []string{"", "0x123", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed"} {
		_, err := ParseAddress(bad)
		require.Equal(t, apperror.CodeInvalidAddress, apperror.GetCode(err), bad)
	}
}

func TestParseHash(t *testing.T) {
	h := "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
	got, err := ParseHash(h)
	require.NoError(t, err)
	require.Equal(t, h, got.Hex())

	for _, bad := range []string{"", "0x88df", h[2:], h + "00"} {
		_, err := ParseHash(bad)
		require.Equal(t, apperror.CodeInvalidHash, apperror.GetCode(err), bad)
	}
}

func TestPageRequest_Validate(t *testing.T) {
	tests := []struct {
		req PageRequest
		ok  bool
	}{
		{FirstPage(), true},
		{PageRequest{Page: 3, Limit: 100}, true},
		{PageRequest{Page: 0, Limit: 20}, false},
		{PageRequest{Page: 1, Limit: 0}, false},
		{PageRequest{Page: 1, Limit: 101}, false},
	}

	for _, tt := range tests {
		err := tt.req.Validate()
		if tt.ok {
			require.NoError(t, err)
			continue
		}
		require.Equal(t, apperror.CodeInvalidPage, apperror.GetCode(err))
	}

	require.Equal(t, PageRequest{Page: 2, Limit: 20}, FirstPage().Next())
}

func TestPage_Decode(t *testing.T) {
	raw := `{"data":[{"number":5,"hash":"0x05","timestamp":1700000000}],"page":1,"limit":20,"total":41,"total_pages":3}`

	var p Page[Block]
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Len(t, p.Data, 1)
	require.Equal(t, uint64(5), p.Data[0].Number)
	require.Equal(t, int64(1700000000), p.Data[0].Time().Unix())
	require.True(t, p.HasNext())
}

func TestTransaction_IsContractCreation(t *testing.T) {
	to := "0xabc"
	require.True(t, Transaction{}.IsContractCreation())
	require.False(t, Transaction{To: &to}.IsContractCreation())
}
