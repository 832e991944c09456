package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
)

func event(n uint64) domain.BlockEvent {
	return domain.BlockEvent{Block: domain.Block{Number: n, Timestamp: int64(n)}}
}

type emissionLog struct {
	mu  sync.Mutex
	all []domain.Emission
}

func (l *emissionLog) add(e domain.Emission) {
	l.mu.Lock()
	l.all = append(l.all, e)
	l.mu.Unlock()
}

func (l *emissionLog) numbers() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]uint64, 0, len(l.all))
	for _, e := range l.all {
		out = append(out, e.Event.Block.Number)
	}
	return out
}

func newTestDrain(rates *RateTracker) (*EventDrain, *EventQueue, *emissionLog) {
	if rates == nil {
		rates = NewRateTracker(DefaultRateConfig())
	}
	q := NewEventQueue()
	d := NewEventDrain(DefaultDrainConfig(), q, rates, testLogger())
	log := &emissionLog{}
	d.OnEmit(log.add)
	return d, q, log
}

func TestEventDrain_IdleWhenEmpty(t *testing.T) {
	d, _, log := newTestDrain(nil)

	require.Equal(t, 30*time.Millisecond, d.Step(context.Background()))
	require.Equal(t, domain.DrainIdle, d.State())
	require.Empty(t, log.numbers())
}

func TestEventDrain_FIFOWithDefaultInterval(t *testing.T) {
	d, q, log := newTestDrain(nil)
	for _, n := range []uint64{10, 11, 13} {
		q.Push(event(n))
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, 100*time.Millisecond, d.Step(context.Background()))
		require.Equal(t, domain.DrainDraining, d.State())
	}
	require.Equal(t, []uint64{10, 11, 13}, log.numbers())
	require.Equal(t, 30*time.Millisecond, d.Step(context.Background()))
}

func TestEventDrain_PacesFromShortWindow(t *testing.T) {
	rates := NewRateTracker(DefaultRateConfig())
	rates.Update([]domain.BlockSample{{Number: 0, Timestamp: 0}, {Number: 40, Timestamp: 10}})

	d, q, _ := newTestDrain(rates)
	q.Push(event(1))
	require.Equal(t, 250*time.Millisecond, d.Step(context.Background()))
}

func TestEventDrain_CatchUpShortensInterval(t *testing.T) {
	d, q, _ := newTestDrain(nil)
	for n := uint64(1); n <= 7; n++ {
		q.Push(event(n))
	}

	// 6 remain after the pop: more than 5, so 0.7 of the 100ms default
	require.Equal(t, 70*time.Millisecond, d.Step(context.Background()))
	// 5 remain: back to the plain interval
	require.Equal(t, 100*time.Millisecond, d.Step(context.Background()))
}

func TestEventDrain_OverflowSkipsToLastFive(t *testing.T) {
	d, q, log := newTestDrain(nil)
	for n := uint64(1); n <= 60; n++ {
		q.Push(event(n))
	}

	d.Step(context.Background())

	require.Equal(t, 5, q.Len())

	log.mu.Lock()
	require.Len(t, log.all, 1)
	require.Equal(t, uint64(55), log.all[0].Event.Block.Number)
	require.Equal(t, 55, log.all[0].Skipped)
	log.mu.Unlock()

	for q.Len() > 0 {
		d.Step(context.Background())
	}
	require.Equal(t, []uint64{55, 56, 57, 58, 59, 60}, log.numbers())

	emitted, skipped := d.Counters()
	require.Equal(t, uint64(6), emitted)
	require.Equal(t, uint64(55), skipped)
}

func TestEventDrain_ThresholdIsExclusive(t *testing.T) {
	d, q, log := newTestDrain(nil)
	for n := uint64(1); n <= 50; n++ {
		q.Push(event(n))
	}

	d.Step(context.Background())
	require.Equal(t, []uint64{1}, log.numbers())
	require.Equal(t, 49, q.Len())
}

func TestEventDrain_NeverEmitsBackwards(t *testing.T) {
	d, q, log := newTestDrain(nil)
	for _, n := range []uint64{5, 6, 4, 6, 9} {
		q.Push(event(n))
	}
	for q.Len() > 0 {
		d.Step(context.Background())
	}
	require.Equal(t, []uint64{5, 6, 6, 9}, log.numbers())
}

func TestEventDrain_RunStopsOnCancel(t *testing.T) {
	d, q, log := newTestDrain(nil)
	for n := uint64(1); n <= 3; n++ {
		q.Push(event(n))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(log.numbers()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not stop after cancel")
	}

	q.Push(event(4))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, []uint64{1, 2, 3}, log.numbers())
}

func TestEventQueue_SkipTo(t *testing.T) {
	q := NewEventQueue()
	for n := uint64(1); n <= 51; n++ {
		q.Push(event(n))
	}

	last, dropped, ok := q.SkipTo(50, 5)
	require.True(t, ok)
	require.Equal(t, 46, dropped)
	require.Equal(t, uint64(46), last.Block.Number)

	ev, remaining, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, uint64(47), ev.Block.Number)
	require.Equal(t, 4, remaining)

	_, _, ok = q.SkipTo(50, 5)
	require.False(t, ok)
}
