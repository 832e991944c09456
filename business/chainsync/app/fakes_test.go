package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/logger"
)

var errConnClosed = errors.New("fake conn closed")

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// fakeConn delivers payloads pushed with send; end simulates a server close.
type fakeConn struct {
	payloads  chan []byte
	done      chan struct{}
	closeOnce sync.Once
	endOnce   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		payloads: make(chan []byte, 256),
		done:     make(chan struct{}),
	}
}

func (c *fakeConn) send(p string) { c.payloads <- []byte(p) }

func (c *fakeConn) end() { c.endOnce.Do(func() { close(c.payloads) }) }

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *fakeConn) Next(ctx context.Context) ([]byte, error) {
	select {
	case p, ok := <-c.payloads:
		if !ok {
			return nil, io.EOF
		}
		return p, nil
	case <-c.done:
		return nil, errConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// fakeDialer hands out a fresh fakeConn per dial. While failing is set every
// dial errors; gate, when non-nil, blocks dials until closed.
type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	dials   atomic.Int32
	failing atomic.Bool
	gate    chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context) (EventConn, error) {
	d.dials.Add(1)

	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.failing.Load() {
		return nil, errors.New("connection refused")
	}

	c := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func (d *fakeDialer) connCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// fakeFetcher returns heights in order, repeating the last one; errs are
// returned first, one per call.
type fakeFetcher struct {
	mu      sync.Mutex
	heights []uint64
	errs    []error
	calls   int
	block   chan struct{}
}

func (f *fakeFetcher) Status(ctx context.Context) (domain.Status, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	var h uint64
	if len(f.heights) > 0 {
		h = f.heights[0]
		if len(f.heights) > 1 {
			f.heights = f.heights[1:]
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.Status{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Status{}, err
	}
	return domain.Status{BlockHeight: h}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stateRecorder struct {
	mu     sync.Mutex
	states []domain.StreamState
}

func (r *stateRecorder) record(s domain.StreamState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []domain.StreamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StreamState(nil), r.states...)
}
