package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/apm"
	"github.com/evstack/atlas-sub000/internal/clock"
	"github.com/evstack/atlas-sub000/internal/logger"
)

// ErrPollInFlight is returned by Poll while another request is outstanding.
var ErrPollInFlight = errors.New("status poll already in flight")

// PollConfig configures the fallback poller.
type PollConfig struct {
	Interval time.Duration
	Alpha    float64
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: 2 * time.Second,
		Alpha:    0.25,
	}
}

// PollSource fetches the indexer height on a timer while the push channel is
// down and smooths the observed rate with an exponential moving average.
type PollSource struct {
	config  PollConfig
	fetcher StatusFetcher
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *syncMetrics
	now     clock.NowFunc

	inFlight atomic.Bool

	mu        sync.Mutex
	height    uint64
	hasHeight bool
	updatedAt time.Time
	bps       float64
	hasBPS    bool
	lastErr   error
	failures  uint64
	cancel    context.CancelFunc
	handlers  []func(domain.PollUpdate)
}

func NewPollSource(cfg PollConfig, fetcher StatusFetcher, log logger.LoggerInterface) *PollSource {
	return &PollSource{
		config:  cfg,
		fetcher: fetcher,
		logger:  log,
		tracer:  apm.NewTracer(instrumentationName),
		metrics: newSyncMetrics(),
		now:     time.Now,
	}
}

// OnUpdate registers fn to receive the poll state after every completed
// request, successful or not.
func (p *PollSource) OnUpdate(fn func(domain.PollUpdate)) {
	p.mu.Lock()
	p.handlers = append(p.handlers, fn)
	p.mu.Unlock()
}

// Start begins polling immediately and then every Interval. Calling Start on
// a running poller is a no-op.
func (p *PollSource) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil || ctx.Err() != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.loop(loopCtx)
}

// Stop cancels the timer and any request it issued.
func (p *PollSource) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *PollSource) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *PollSource) loop(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	_, _ = p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Poll(ctx)
		}
	}
}

// Poll issues one status request. Overlapping calls return ErrPollInFlight
// without touching the network. A request cancelled through ctx leaves the
// poll state unchanged.
func (p *PollSource) Poll(ctx context.Context) (domain.PollUpdate, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return p.Current(), ErrPollInFlight
	}
	defer p.inFlight.Store(false)

	ctx, span := p.tracer.StartSpanFromContext(ctx, "chainsync.poll")
	defer span.End()

	start := time.Now()
	status, err := p.fetcher.Status(ctx)
	p.metrics.pollRequests.Add(ctx, 1)
	p.metrics.pollLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil && ctx.Err() != nil {
		return p.Current(), ctx.Err()
	}

	p.mu.Lock()
	if err != nil {
		p.lastErr = err
		p.failures++
	} else {
		p.lastErr = nil
		p.observeLocked(status.BlockHeight, p.now())
	}
	update := p.currentLocked()
	handlers := p.handlers
	p.mu.Unlock()

	if err != nil {
		span.NoticeError(err)
		p.metrics.pollErrors.Add(ctx, 1)
		p.logger.Warn(ctx, "status poll failed", "error", err)
	} else {
		span.SetAttributes(attribute.Int64("block_height", int64(status.BlockHeight)))
	}

	for _, fn := range handlers {
		fn(update)
	}
	return update, err
}

// observeLocked records a successful sample. The rate is only fed when the
// height changed: the instantaneous rate is blocks since the previous change
// over the wall-clock time between them.
func (p *PollSource) observeLocked(height uint64, at time.Time) {
	if p.hasHeight && height == p.height {
		return
	}

	if p.hasHeight && height > p.height {
		if dt := at.Sub(p.updatedAt).Seconds(); dt > 0 {
			inst := float64(height-p.height) / dt
			if p.hasBPS {
				p.bps += p.config.Alpha * (inst - p.bps)
			} else {
				p.bps = inst
				p.hasBPS = true
			}
		}
	}

	p.height = height
	p.hasHeight = true
	p.updatedAt = at
}

// Current returns the latest poll state without issuing a request.
func (p *PollSource) Current() domain.PollUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *PollSource) currentLocked() domain.PollUpdate {
	return domain.PollUpdate{
		Height:    p.height,
		HasHeight: p.hasHeight,
		Rate:      domain.RateEstimate{BPS: p.bps, Valid: p.hasBPS && p.bps > 0},
		UpdatedAt: p.updatedAt,
		Err:       p.lastErr,
	}
}

// Failures is the number of failed requests so far.
func (p *PollSource) Failures() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
