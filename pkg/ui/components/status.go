package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Source is where the displayed height currently comes from.
type Source string

const (
	SourceLive    Source = "live"
	SourcePolling Source = "polling"
	SourceOffline Source = "offline"
)

// SourceStatus is the connection indicator's input.
type SourceStatus struct {
	Source     Source
	Connecting bool
	BlockTime  time.Duration
	BPS        float64
	RateValid  bool
	PollError  string
}

// StatusComponent renders the source indicator and block time.
type StatusComponent struct {
	status SourceStatus
}

func NewStatusComponent() *StatusComponent {
	return &StatusComponent{status: SourceStatus{Source: SourceOffline}}
}

func (s *StatusComponent) Update(status SourceStatus) {
	s.status = status
}

func (s *StatusComponent) Status() SourceStatus {
	return s.status
}

// View renders the indicator. spinner is drawn in front of the label while a
// stream connection attempt is in progress.
func (s *StatusComponent) View(spinner string) string {
	var style lipgloss.Style
	icon := "●"
	label := "Live stream"

	switch s.status.Source {
	case SourceLive:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	case SourcePolling:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
		icon = "◐"
		label = "Polling"
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
		icon = "○"
		label = "Offline"
	}
	if s.status.Connecting && spinner != "" {
		icon = spinner
		label += " (connecting)"
	}

	line := style.Render(icon + " " + label)

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	if s.status.RateValid && s.status.BlockTime > 0 {
		line += muted.Render(fmt.Sprintf("  │  Block time: %s (%.2f bps)",
			s.status.BlockTime.Round(time.Millisecond), s.status.BPS))
	} else {
		line += muted.Render("  │  Block time: -")
	}
	return line
}
