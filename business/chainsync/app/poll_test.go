package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/clock"
)

func newTestPoll(fetcher *fakeFetcher, interval time.Duration) (*PollSource, *clock.Manual) {
	p := NewPollSource(PollConfig{Interval: interval, Alpha: 0.25}, fetcher, testLogger())
	mc := clock.NewManual(time.Unix(1_700_000_000, 0))
	p.now = mc.Now
	return p, mc
}

func TestPollSource_EMASeededByFirstSample(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{500, 502, 506}}
	p, mc := newTestPoll(f, time.Hour)
	ctx := context.Background()

	u, err := p.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(500), u.Height)
	require.False(t, u.Rate.Valid)

	mc.Advance(2 * time.Second)
	u, err = p.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(502), u.Height)
	require.True(t, u.Rate.Valid)
	require.InDelta(t, 1.0, u.Rate.BPS, 1e-9)

	// inst = 4/2 = 2.0, blended as prev + 0.25*(inst-prev)
	mc.Advance(2 * time.Second)
	u, err = p.Poll(ctx)
	require.NoError(t, err)
	require.InDelta(t, 1.0+0.25*(2.0-1.0), u.Rate.BPS, 1e-9)
}

func TestPollSource_UnchangedHeightKeepsTimestamp(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{10, 10, 12}}
	p, mc := newTestPoll(f, time.Hour)
	ctx := context.Background()

	first, _ := p.Poll(ctx)
	mc.Advance(2 * time.Second)
	same, _ := p.Poll(ctx)
	require.Equal(t, first.UpdatedAt, same.UpdatedAt)
	require.False(t, same.Rate.Valid)

	// the rate spans back to the last change: 2 blocks over 4s
	mc.Advance(2 * time.Second)
	u, _ := p.Poll(ctx)
	require.InDelta(t, 0.5, u.Rate.BPS, 1e-9)
}

func TestPollSource_DecreaseDoesNotFeedRate(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{100, 104, 90}}
	p, mc := newTestPoll(f, time.Hour)
	ctx := context.Background()

	_, _ = p.Poll(ctx)
	mc.Advance(2 * time.Second)
	_, _ = p.Poll(ctx)
	mc.Advance(2 * time.Second)
	u, _ := p.Poll(ctx)

	require.Equal(t, uint64(90), u.Height)
	require.InDelta(t, 2.0, u.Rate.BPS, 1e-9)
}

func TestPollSource_ZeroElapsedDoesNotFeedRate(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{100, 101}}
	p, _ := newTestPoll(f, time.Hour)
	ctx := context.Background()

	_, _ = p.Poll(ctx)
	u, _ := p.Poll(ctx)
	require.Equal(t, uint64(101), u.Height)
	require.False(t, u.Rate.Valid)
}

func TestPollSource_ErrorsAreStateAndTimerContinues(t *testing.T) {
	boom := errors.New("503 service unavailable")
	f := &fakeFetcher{heights: []uint64{42}, errs: []error{boom, boom}}
	p, _ := newTestPoll(f, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	require.Eventually(t, func() bool { return p.Current().HasHeight }, 2*time.Second, time.Millisecond)
	require.NoError(t, p.Current().Err)
	require.Equal(t, uint64(2), p.Failures())
	require.Equal(t, uint64(42), p.Current().Height)
}

func TestPollSource_ErrorSurfacesInUpdate(t *testing.T) {
	boom := errors.New("bad gateway")
	f := &fakeFetcher{errs: []error{boom}}
	p, _ := newTestPoll(f, time.Hour)

	u, err := p.Poll(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, u.Err, boom)
	require.False(t, u.HasHeight)
}

func TestPollSource_OneRequestInFlight(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{7}, block: make(chan struct{})}
	p, _ := newTestPoll(f, time.Hour)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	_, err := p.Poll(ctx)
	require.ErrorIs(t, err, ErrPollInFlight)
	require.Equal(t, 1, f.callCount())

	close(f.block)
	require.NoError(t, <-done)
	require.Equal(t, uint64(7), p.Current().Height)
}

func TestPollSource_StartIsIdempotentAndStopHalts(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{1}}
	p, _ := newTestPoll(f, 5*time.Millisecond)

	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	require.True(t, p.Running())
	require.Eventually(t, func() bool { return f.callCount() >= 3 }, 2*time.Second, time.Millisecond)

	p.Stop()
	require.False(t, p.Running())
	time.Sleep(10 * time.Millisecond)
	stopped := f.callCount()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, f.callCount())
}

func TestPollSource_UpdateHandlers(t *testing.T) {
	f := &fakeFetcher{heights: []uint64{3}}
	p, _ := newTestPoll(f, time.Hour)

	var got []uint64
	p.OnUpdate(func(u domain.PollUpdate) { got = append(got, u.Height) })

	_, _ = p.Poll(context.Background())
	require.Equal(t, []uint64{3}, got)
}
