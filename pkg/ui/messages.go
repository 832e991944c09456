package ui

import (
	"time"

	syncDomain "github.com/evstack/atlas-sub000/business/chainsync/domain"
	explorerDomain "github.com/evstack/atlas-sub000/business/explorer/domain"
)

// Message types for TUI updates

// FrameMsg drives one animation frame.
type FrameMsg struct {
	Time time.Time
}

// BlockMsg is sent for every block the sync engine releases.
type BlockMsg struct {
	Emission syncDomain.Emission
}

// BlocksSeedMsg carries the initial latest-blocks page from the indexer.
type BlocksSeedMsg struct {
	Blocks []explorerDomain.Block
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step   string
	Status string // "connecting", "done", "failed"
}
