package app

import (
	"sync"
	"time"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
)

// SampleLog is a bounded FIFO of block samples; the oldest entry is evicted
// once capacity is exceeded.
type SampleLog struct {
	mu       sync.Mutex
	capacity int
	samples  []domain.BlockSample
}

func NewSampleLog(capacity int) *SampleLog {
	if capacity < 2 {
		capacity = 2
	}
	return &SampleLog{
		capacity: capacity,
		samples:  make([]domain.BlockSample, 0, capacity),
	}
}

// Append adds s and returns a copy of the log after the append.
func (l *SampleLog) Append(s domain.BlockSample) []domain.BlockSample {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.samples) == l.capacity {
		copy(l.samples, l.samples[1:])
		l.samples = l.samples[:len(l.samples)-1]
	}
	l.samples = append(l.samples, s)

	out := make([]domain.BlockSample, len(l.samples))
	copy(out, l.samples)
	return out
}

func (l *SampleLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// EstimateRate computes blocks per second from chain timestamps. It measures
// from the most recent sample lying at least window before the newest one.
// Before such a sample exists it falls back to the oldest sample once the log
// spans window/6; with less history the estimate is invalid. Spans compare as
// durations, so a sub-second part of window is never truncated away.
func EstimateRate(samples []domain.BlockSample, window time.Duration) domain.RateEstimate {
	if len(samples) < 2 {
		return domain.RateEstimate{}
	}

	newest := samples[len(samples)-1]

	for i := len(samples) - 2; i >= 0; i-- {
		if chainSpan(samples[i], newest) >= window {
			return rateBetween(samples[i], newest)
		}
	}

	oldest := samples[0]
	if chainSpan(oldest, newest) >= window/6 {
		return rateBetween(oldest, newest)
	}

	return domain.RateEstimate{}
}

// chainSpan is the time between two samples; chain timestamps are whole seconds.
func chainSpan(from, to domain.BlockSample) time.Duration {
	return time.Duration(to.Timestamp-from.Timestamp) * time.Second
}

func rateBetween(from, to domain.BlockSample) domain.RateEstimate {
	dt := to.Timestamp - from.Timestamp
	if dt <= 0 || to.Number <= from.Number {
		return domain.RateEstimate{}
	}
	return domain.RateEstimate{
		BPS:   float64(to.Number-from.Number) / float64(dt),
		Valid: true,
	}
}

// RateConfig holds the two estimation windows and the pacing bounds.
type RateConfig struct {
	DisplayWindow   time.Duration
	PacingWindow    time.Duration
	MinInterval     time.Duration
	MaxInterval     time.Duration
	DefaultInterval time.Duration
}

func DefaultRateConfig() RateConfig {
	return RateConfig{
		DisplayWindow:   30 * time.Second,
		PacingWindow:    10 * time.Second,
		MinInterval:     30 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		DefaultInterval: 100 * time.Millisecond,
	}
}

// RateTracker holds the latest display and pacing estimates. The display
// estimate uses the long window so the block time label stays steady; pacing
// uses the short one so the drain keeps up with rate changes.
type RateTracker struct {
	config RateConfig

	mu      sync.RWMutex
	display domain.RateEstimate
	pacing  domain.RateEstimate
}

func NewRateTracker(cfg RateConfig) *RateTracker {
	return &RateTracker{config: cfg}
}

// Update recomputes both estimates from the current sample log.
func (t *RateTracker) Update(samples []domain.BlockSample) {
	display := EstimateRate(samples, t.config.DisplayWindow)
	pacing := EstimateRate(samples, t.config.PacingWindow)

	t.mu.Lock()
	t.display = display
	t.pacing = pacing
	t.mu.Unlock()
}

func (t *RateTracker) Display() domain.RateEstimate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.display
}

func (t *RateTracker) Pacing() domain.RateEstimate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pacing
}

// PacingInterval is clamp(1/bps, min, max), or the default interval while
// there is no pacing estimate.
func (t *RateTracker) PacingInterval() time.Duration {
	est := t.Pacing()
	if !est.Valid || est.BPS <= 0 {
		return t.config.DefaultInterval
	}

	interval := time.Duration(float64(time.Second) / est.BPS)
	return min(max(interval, t.config.MinInterval), t.config.MaxInterval)
}
