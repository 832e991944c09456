package app

import (
	"context"
	"sync"
	"time"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/apm"
	"github.com/evstack/atlas-sub000/internal/logger"
)

// StreamConfig configures the push channel lifecycle.
type StreamConfig struct {
	ReconnectDelay time.Duration
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{ReconnectDelay: 2 * time.Second}
}

// StreamSource owns the push channel connection. It keeps at most one
// connection alive, retries after a fixed delay on any failure, and feeds
// valid events into the sample log and the drain queue.
type StreamSource struct {
	config  StreamConfig
	dialer  Dialer
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *syncMetrics
	now     func() time.Time

	samples *SampleLog
	rates   *RateTracker
	queue   *EventQueue

	mu         sync.Mutex
	state      domain.StreamState
	base       context.Context
	conn       EventConn
	cancelConn context.CancelFunc
	retry      *time.Timer
	generation uint64
	closed     bool
	listeners  []func(domain.StreamState)
	received   uint64
	reconnects uint64
}

func NewStreamSource(
	cfg StreamConfig,
	dialer Dialer,
	samples *SampleLog,
	rates *RateTracker,
	queue *EventQueue,
	log logger.LoggerInterface,
) *StreamSource {
	return &StreamSource{
		config:  cfg,
		dialer:  dialer,
		logger:  log,
		tracer:  apm.NewTracer(instrumentationName),
		metrics: newSyncMetrics(),
		now:     time.Now,
		samples: samples,
		rates:   rates,
		queue:   queue,
		state:   domain.StreamDisconnected,
	}
}

// OnStateChange registers fn for every state transition. Listeners run with
// the source locked and must not call back into it.
func (s *StreamSource) OnStateChange(fn func(domain.StreamState)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *StreamSource) State() domain.StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns events received and reconnects scheduled so far.
func (s *StreamSource) Counters() (received, reconnects uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received, s.reconnects
}

// Connect replaces any existing connection with a new one. It returns
// immediately; dialing and reading happen on a background goroutine.
func (s *StreamSource) Connect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || ctx.Err() != nil {
		return
	}

	s.base = ctx
	s.teardownLocked()
	s.generation++

	connCtx, cancel := context.WithCancel(ctx)
	s.cancelConn = cancel
	s.setStateLocked(connCtx, domain.StreamConnecting)

	go s.run(connCtx, s.generation)
}

// Close tears the connection down and cancels any pending reconnect.
// No retry fires after Close returns.
func (s *StreamSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.teardownLocked()
	s.setStateLocked(context.Background(), domain.StreamDisconnected)
}

func (s *StreamSource) run(ctx context.Context, gen uint64) {
	dialCtx, span := s.tracer.StartSpanFromContext(ctx, "chainsync.stream.dial")
	conn, err := s.dialer.Dial(dialCtx)
	span.NoticeError(err)
	span.End()
	if err != nil {
		s.fail(ctx, gen, err)
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.setStateLocked(ctx, domain.StreamConnected)
	s.mu.Unlock()

	s.logger.Info(ctx, "block stream connected")

	for {
		data, err := conn.Next(ctx)
		if err != nil {
			s.fail(ctx, gen, err)
			return
		}
		s.handlePayload(ctx, gen, data)
	}
}

// handlePayload decodes one payload. Malformed payloads leave the sample log,
// the queue and every counter untouched.
func (s *StreamSource) handlePayload(ctx context.Context, gen uint64, data []byte) {
	event, err := domain.ParseBlockEvent(data, s.now())
	if err != nil {
		s.logger.Debug(ctx, "dropping malformed block event", "error", err, "bytes", len(data))
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.received++
	s.mu.Unlock()

	all := s.samples.Append(event.Sample())
	s.rates.Update(all)
	s.queue.Push(event)

	s.metrics.streamEvents.Add(ctx, 1)
}

// fail handles a transport error for connection gen: it closes the connection,
// reports Disconnected and schedules a reconnect after the fixed delay.
func (s *StreamSource) fail(ctx context.Context, gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		return
	}

	s.teardownLocked()
	s.setStateLocked(ctx, domain.StreamDisconnected)

	base := s.base
	if base.Err() != nil {
		return
	}

	s.reconnects++
	s.retry = time.AfterFunc(s.config.ReconnectDelay, func() {
		s.Connect(base)
	})

	s.logger.Warn(ctx, "block stream lost, reconnecting",
		"error", err,
		"delay", s.config.ReconnectDelay.String())
	s.metrics.reconnects.Add(ctx, 1)
}

func (s *StreamSource) teardownLocked() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *StreamSource) setStateLocked(ctx context.Context, state domain.StreamState) {
	if s.state == state {
		return
	}
	s.state = state
	s.metrics.recordState(ctx, state)

	for _, fn := range s.listeners {
		fn(state)
	}
}
