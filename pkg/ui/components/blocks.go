// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BlockRow is one line of the latest-blocks table.
type BlockRow struct {
	Number    uint64
	Hash      string
	Timestamp time.Time
	TxCount   int
	GasUsed   string
	GasLimit  string
	Skipped   int
}

// Utilization is gas used over gas limit in percent, zero when either side
// does not parse.
func (r BlockRow) Utilization() decimal.Decimal {
	used, err := decimal.NewFromString(r.GasUsed)
	if err != nil {
		return decimal.Zero
	}
	limit, err := decimal.NewFromString(r.GasLimit)
	if err != nil || limit.IsZero() {
		return decimal.Zero
	}
	return used.Div(limit).Mul(decimal.NewFromInt(100)).Round(1)
}

// BlocksComponent renders the newest blocks first, keeping at most maxRows.
type BlocksComponent struct {
	rows    []BlockRow
	maxRows int
}

func NewBlocksComponent(maxRows int) *BlocksComponent {
	if maxRows <= 0 {
		maxRows = 10
	}
	return &BlocksComponent{
		rows:    make([]BlockRow, 0, maxRows),
		maxRows: maxRows,
	}
}

// Add inserts a block. A number already in the table replaces the old row;
// rows stay sorted by number descending.
func (b *BlocksComponent) Add(row BlockRow) {
	for i, r := range b.rows {
		if r.Number == row.Number {
			b.rows[i] = row
			return
		}
	}

	idx := len(b.rows)
	for i, r := range b.rows {
		if row.Number > r.Number {
			idx = i
			break
		}
	}
	b.rows = append(b.rows, BlockRow{})
	copy(b.rows[idx+1:], b.rows[idx:])
	b.rows[idx] = row

	if len(b.rows) > b.maxRows {
		b.rows = b.rows[:b.maxRows]
	}
}

// Rows returns the table contents, newest first.
func (b *BlocksComponent) Rows() []BlockRow {
	out := make([]BlockRow, len(b.rows))
	copy(out, b.rows)
	return out
}

func (b *BlocksComponent) Clear() {
	b.rows = b.rows[:0]
}

// View renders the blocks table. now is used for the age column.
func (b *BlocksComponent) View(now time.Time, paused bool) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	skipStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	title := fmt.Sprintf("LATEST BLOCKS (last %d)", b.maxRows)
	if paused {
		title += mutedStyle.Render("  auto-refresh off")
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")

	if len(b.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for blocks..."))
		return sb.String()
	}

	sb.WriteString("┌────────────┬──────────────┬────────┬──────┬────────┐\n")
	sb.WriteString("│   Block    │     Hash     │  Age   │  Txs │  Gas   │\n")
	sb.WriteString("├────────────┼──────────────┼────────┼──────┼────────┤\n")

	for _, row := range b.rows {
		line := fmt.Sprintf("│%11d │ %-12s │%7s │%5d │%6s%% │",
			row.Number,
			shortHash(row.Hash),
			age(now, row.Timestamp),
			row.TxCount,
			row.Utilization().StringFixed(1),
		)
		sb.WriteString(line)
		if row.Skipped > 0 {
			sb.WriteString(skipStyle.Render(fmt.Sprintf(" +%d skipped", row.Skipped)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("└────────────┴──────────────┴────────┴──────┴────────┘")
	return sb.String()
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:6] + ".." + h[len(h)-4:]
}

func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
