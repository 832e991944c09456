package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds the sync counters for display.
type Stats struct {
	Received   uint64
	Emitted    uint64
	Skipped    uint64
	Reconnects uint64
	PollErrors uint64
	QueueDepth int
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	skipped := valueStyle.Render(fmt.Sprintf("%d", s.stats.Skipped))
	if s.stats.Skipped > 0 {
		skipped = warnStyle.Render(fmt.Sprintf("%d", s.stats.Skipped))
	}
	pollErrors := valueStyle.Render(fmt.Sprintf("%d", s.stats.PollErrors))
	if s.stats.PollErrors > 0 {
		pollErrors = errorStyle.Render(fmt.Sprintf("%d", s.stats.PollErrors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Received: %s  │  Emitted: %s  │  Skipped: %s  │  Queue: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Received)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Emitted)),
			skipped,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.QueueDepth)),
		) +
		fmt.Sprintf("Reconnects: %s  │  Poll errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Reconnects)),
			pollErrors,
		)
}
