package domain

import "time"

// BlockSample is one (number, chain timestamp) point for rate estimation.
type BlockSample struct {
	Number    uint64
	Timestamp int64 // unix seconds, chain-reported
}

// RateEstimate is a blocks-per-second figure; Valid is false until enough
// samples exist.
type RateEstimate struct {
	BPS   float64
	Valid bool
}

// BlockTime is the inverse of the rate, zero when the estimate is unusable.
func (r RateEstimate) BlockTime() time.Duration {
	if !r.Valid || r.BPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / r.BPS)
}

// StreamState is the push channel connection state.
type StreamState string

const (
	StreamDisconnected StreamState = "disconnected"
	StreamConnecting   StreamState = "connecting"
	StreamConnected    StreamState = "connected"
)

// DrainState reports whether the pacing loop has work.
type DrainState string

const (
	DrainIdle     DrainState = "idle"
	DrainDraining DrainState = "draining"
)

// HeightSource says which path currently owns the authoritative signal.
type HeightSource string

const (
	SourceNone HeightSource = "none"
	SourcePush HeightSource = "push"
	SourcePoll HeightSource = "poll"
)

// Emission is a block released by the drain. Skipped is non-zero only for an
// overflow skip, where Event is the last discarded block.
type Emission struct {
	Event   BlockEvent
	Skipped int
}

// Status is the poll endpoint payload.
type Status struct {
	BlockHeight uint64    `json:"block_height"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// PollUpdate is the poll path's view after a request completes.
type PollUpdate struct {
	Height    uint64
	HasHeight bool
	Rate      RateEstimate
	UpdatedAt time.Time
	Err       error
}

// Snapshot is the coordinator's authoritative signal plus connection context.
type Snapshot struct {
	Height      uint64
	HasHeight   bool
	Rate        RateEstimate
	Source      HeightSource
	StreamState StreamState
	PollError   string
	UpdatedAt   time.Time
}

// Stats are running counters for the dashboard.
type Stats struct {
	Received   uint64
	Emitted    uint64
	Skipped    uint64
	Reconnects uint64
	PollErrors uint64
	QueueDepth int
}
