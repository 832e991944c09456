package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func numbers(rows []BlockRow) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.Number
	}
	return out
}

func TestBlocksComponent_OrderAndCap(t *testing.T) {
	b := NewBlocksComponent(3)
	for _, n := range []uint64{5, 7, 6, 8} {
		b.Add(BlockRow{Number: n})
	}
	require.Equal(t, []uint64{8, 7, 6}, numbers(b.Rows()))

	b.Add(BlockRow{Number: 1})
	require.Equal(t, []uint64{8, 7, 6}, numbers(b.Rows()))
}

func TestBlocksComponent_ReplacesSameNumber(t *testing.T) {
	b := NewBlocksComponent(3)
	b.Add(BlockRow{Number: 5, Hash: "0xold"})
	b.Add(BlockRow{Number: 5, Hash: "0xnew"})

	rows := b.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "0xnew", rows[0].Hash)
}

func TestBlockRow_Utilization(t *testing.T) {
	require.Equal(t, "50.0", BlockRow{GasUsed: "15000000", GasLimit: "30000000"}.Utilization().StringFixed(1))
	require.True(t, BlockRow{GasUsed: "x", GasLimit: "30"}.Utilization().IsZero())
	require.True(t, BlockRow{GasUsed: "1", GasLimit: "0"}.Utilization().IsZero())
}

func TestBlocksComponent_View(t *testing.T) {
	now := time.Unix(1_700_000_100, 0)
	b := NewBlocksComponent(2)
	require.Contains(t, b.View(now, false), "Waiting for blocks")

	b.Add(BlockRow{Number: 42, Hash: "0x1234567890abcdef", Timestamp: time.Unix(1_700_000_090, 0), Skipped: 3})
	out := b.View(now, true)
	require.Contains(t, out, "0x1234..cdef")
	require.Contains(t, out, "10s")
	require.Contains(t, out, "+3 skipped")
	require.Contains(t, out, "auto-refresh off")
}
