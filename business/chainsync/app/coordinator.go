package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/clock"
	"github.com/evstack/atlas-sub000/internal/logger"
)

// refetchRetry bounds how long a reconnect refetch waits for a poll that was
// already in flight to release the slot.
const (
	refetchRetryDelay    = 20 * time.Millisecond
	refetchRetryAttempts = 50
)

// Coordinator merges the push and poll paths into one authoritative
// (height, rate) signal. While the stream is connected the poller is stopped
// and its output ignored.
type Coordinator struct {
	stream  *StreamSource
	drain   *EventDrain
	poll    *PollSource
	rates   *RateTracker
	queue   *EventQueue
	logger  logger.LoggerInterface
	metrics *syncMetrics

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	height      uint64
	hasHeight   bool
	updatedAt   time.Time
	streamState domain.StreamState
	handlers    []func(domain.Emission)

	wg sync.WaitGroup
}

func NewCoordinator(
	stream *StreamSource,
	drain *EventDrain,
	poll *PollSource,
	rates *RateTracker,
	queue *EventQueue,
	log logger.LoggerInterface,
) *Coordinator {
	c := &Coordinator{
		stream:      stream,
		drain:       drain,
		poll:        poll,
		rates:       rates,
		queue:       queue,
		logger:      log,
		metrics:     newSyncMetrics(),
		streamState: domain.StreamDisconnected,
	}

	stream.OnStateChange(c.handleStreamState)
	drain.OnEmit(c.handleEmission)
	poll.OnUpdate(c.handlePollUpdate)

	return c
}

// OnBlock registers fn for every block the drain releases.
func (c *Coordinator) OnBlock(fn func(domain.Emission)) {
	c.mu.Lock()
	c.handlers = append(c.handlers, fn)
	c.mu.Unlock()
}

// Start brings up the poller, the drain loop and the push channel. The stream
// starts disconnected, so polling covers the first moments.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.ctx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	c.poll.Start(runCtx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.drain.Run(runCtx)
	}()

	c.stream.Connect(runCtx)
}

// Stop tears everything down and waits for the drain loop and any reconnect
// refetch to exit. No height is applied once Stop has begun.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	if cancel != nil {
		// under mu, so handleStreamState cannot add to wg after this
		cancel()
	}
	c.mu.Unlock()
	if cancel == nil {
		return
	}

	c.stream.Close()
	c.poll.Stop()
	c.wg.Wait()
}

// handleStreamState runs under the stream's lock, so it only touches the
// poller and its own state.
func (c *Coordinator) handleStreamState(state domain.StreamState) {
	c.mu.Lock()
	prev := c.streamState
	c.streamState = state
	ctx := c.ctx
	live := ctx != nil && ctx.Err() == nil
	reconnected := live && state == domain.StreamConnected && prev != domain.StreamConnected
	if reconnected {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if !live {
		return
	}

	if reconnected {
		c.logger.Info(ctx, "stream connected, refetching height and suspending poller")
		go func() {
			defer c.wg.Done()
			c.refetch(ctx)
		}()
		c.poll.Stop()
		return
	}
	if state != domain.StreamConnected {
		c.poll.Start(ctx)
	}
}

// refetch issues the single catch-up poll after a reconnect. Its result is
// applied here because timer-driven updates are ignored while connected.
func (c *Coordinator) refetch(ctx context.Context) {
	for i := 0; i < refetchRetryAttempts; i++ {
		u, err := c.poll.Poll(ctx)
		if errors.Is(err, ErrPollInFlight) {
			if clock.SleepWithContext(ctx, refetchRetryDelay) != nil {
				return
			}
			continue
		}
		if err != nil || !u.HasHeight {
			return
		}

		c.mu.Lock()
		c.applyHeightLocked(u.Height)
		c.mu.Unlock()
		return
	}
	c.logger.Warn(ctx, "reconnect refetch gave up waiting for in-flight poll")
}

func (c *Coordinator) handlePollUpdate(u domain.PollUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamState == domain.StreamConnected {
		return
	}
	if u.Err == nil && u.HasHeight {
		c.applyHeightLocked(u.Height)
	}
}

func (c *Coordinator) handleEmission(e domain.Emission) {
	c.mu.Lock()
	c.applyHeightLocked(e.Event.Block.Number)
	handlers := c.handlers
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}

func (c *Coordinator) applyHeightLocked(h uint64) {
	if c.ctx != nil && c.ctx.Err() != nil {
		return
	}
	if c.hasHeight && h <= c.height {
		return
	}
	c.height = h
	c.hasHeight = true
	c.updatedAt = time.Now()

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	c.metrics.height.Record(ctx, int64(h))
}

// Snapshot returns the current authoritative signal.
func (c *Coordinator) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := domain.Snapshot{
		Height:      c.height,
		HasHeight:   c.hasHeight,
		StreamState: c.streamState,
		UpdatedAt:   c.updatedAt,
		Source:      domain.SourcePoll,
	}

	if c.streamState == domain.StreamConnected {
		snap.Source = domain.SourcePush
		snap.Rate = c.rates.Display()
	} else {
		pu := c.poll.Current()
		snap.Rate = pu.Rate
		if pu.Err != nil {
			snap.PollError = pu.Err.Error()
		}
	}

	if !snap.HasHeight {
		snap.Source = domain.SourceNone
	}
	return snap
}

// Stats aggregates counters from the stream, drain and poller.
func (c *Coordinator) Stats() domain.Stats {
	received, reconnects := c.stream.Counters()
	emitted, skipped := c.drain.Counters()

	return domain.Stats{
		Received:   received,
		Emitted:    emitted,
		Skipped:    skipped,
		Reconnects: reconnects,
		PollErrors: c.poll.Failures(),
		QueueDepth: c.queue.Len(),
	}
}
