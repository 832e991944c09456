package app

import (
	"context"
	"sync"
	"time"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/clock"
	"github.com/evstack/atlas-sub000/internal/logger"
)

// EventQueue is the FIFO between the stream reader and the drain. Admission
// is unconditional; overflow is handled by the drain.
type EventQueue struct {
	mu    sync.Mutex
	items []domain.BlockEvent
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) Push(ev domain.BlockEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pop removes the oldest event and reports how many remain.
func (q *EventQueue) Pop() (domain.BlockEvent, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return domain.BlockEvent{}, 0, false
	}

	ev := q.items[0]
	q.items[0] = domain.BlockEvent{}
	q.items = q.items[1:]
	return ev, len(q.items), true
}

// SkipTo discards all but the newest keep events when more than threshold
// are pending. It returns the last discarded event and the discard count.
func (q *EventQueue) SkipTo(threshold, keep int) (domain.BlockEvent, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) <= threshold {
		return domain.BlockEvent{}, 0, false
	}

	drop := len(q.items) - keep
	last := q.items[drop-1]

	rest := make([]domain.BlockEvent, keep)
	copy(rest, q.items[drop:])
	q.items = rest

	return last, drop, true
}

// DrainConfig tunes the pacing loop.
type DrainConfig struct {
	IdleInterval      time.Duration
	OverflowThreshold int
	OverflowKeep      int
	CatchUpThreshold  int
	CatchUpFactor     float64
}

func DefaultDrainConfig() DrainConfig {
	return DrainConfig{
		IdleInterval:      30 * time.Millisecond,
		OverflowThreshold: 50,
		OverflowKeep:      5,
		CatchUpThreshold:  5,
		CatchUpFactor:     0.7,
	}
}

// EventDrain releases queued block events one at a time at the chain's
// production rate.
type EventDrain struct {
	config  DrainConfig
	queue   *EventQueue
	rates   *RateTracker
	logger  logger.LoggerInterface
	metrics *syncMetrics

	mu          sync.Mutex
	state       domain.DrainState
	lastEmitted uint64
	hasEmitted  bool
	emitted     uint64
	skipped     uint64
	handlers    []func(domain.Emission)
}

func NewEventDrain(cfg DrainConfig, queue *EventQueue, rates *RateTracker, log logger.LoggerInterface) *EventDrain {
	return &EventDrain{
		config:  cfg,
		queue:   queue,
		rates:   rates,
		logger:  log,
		metrics: newSyncMetrics(),
		state:   domain.DrainIdle,
	}
}

// OnEmit registers a consumer. Handlers run on the drain goroutine.
func (d *EventDrain) OnEmit(fn func(domain.Emission)) {
	d.mu.Lock()
	d.handlers = append(d.handlers, fn)
	d.mu.Unlock()
}

func (d *EventDrain) State() domain.DrainState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Counters returns blocks emitted and blocks discarded by overflow skips.
func (d *EventDrain) Counters() (emitted, skipped uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emitted, d.skipped
}

// Run paces the queue until ctx is cancelled.
func (d *EventDrain) Run(ctx context.Context) {
	for {
		wait := d.Step(ctx)
		if err := clock.SleepWithContext(ctx, wait); err != nil {
			return
		}
	}
}

// Step performs one drain iteration and returns how long to wait before the
// next one.
func (d *EventDrain) Step(ctx context.Context) time.Duration {
	depth := d.queue.Len()
	d.metrics.queueDepth.Record(ctx, int64(depth))

	if depth == 0 {
		d.setState(domain.DrainIdle)
		return d.config.IdleInterval
	}
	d.setState(domain.DrainDraining)

	if last, dropped, ok := d.queue.SkipTo(d.config.OverflowThreshold, d.config.OverflowKeep); ok {
		d.logger.Info(ctx, "drain backlog exceeded, skipping ahead",
			"dropped", dropped,
			"height", last.Block.Number)
		d.metrics.drainSkipped.Add(ctx, int64(dropped))
		d.emit(ctx, domain.Emission{Event: last, Skipped: dropped})
		return d.rates.PacingInterval()
	}

	ev, remaining, ok := d.queue.Pop()
	if !ok {
		return d.config.IdleInterval
	}
	d.emit(ctx, domain.Emission{Event: ev})

	interval := d.rates.PacingInterval()
	if remaining > d.config.CatchUpThreshold {
		interval = time.Duration(float64(interval) * d.config.CatchUpFactor)
	}
	return interval
}

// emit forwards e unless it would move the emitted height backwards.
func (d *EventDrain) emit(ctx context.Context, e domain.Emission) {
	number := e.Event.Block.Number

	d.mu.Lock()
	if d.hasEmitted && number < d.lastEmitted {
		last := d.lastEmitted
		d.mu.Unlock()
		d.logger.Debug(ctx, "dropping out of order block", "height", number, "last", last)
		return
	}
	d.lastEmitted = number
	d.hasEmitted = true
	d.emitted++
	d.skipped += uint64(e.Skipped)
	handlers := d.handlers
	d.mu.Unlock()

	d.metrics.drainEmitted.Add(ctx, 1)
	for _, fn := range handlers {
		fn(e)
	}
}

func (d *EventDrain) setState(s domain.DrainState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
