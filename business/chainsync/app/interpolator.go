package app

import (
	"context"
	"math"
	"time"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
)

// Interpolator turns the authoritative (height, rate) signal into a
// monotonically non-decreasing display value sampled once per frame.
//
// On the push path it snaps to the real height. On the poll path it drifts
// upward at the estimated rate between sparse updates, never below the last
// real height and never more than one block past it. It is not safe for
// concurrent use; each view owns one.
type Interpolator struct {
	displayed float64
	hasValue  bool
	lastFrame time.Time
}

func NewInterpolator() *Interpolator {
	return &Interpolator{}
}

// Frame advances the display to now and returns the value to render.
// ok is false until a height is known.
func (i *Interpolator) Frame(now time.Time, snap domain.Snapshot) (value uint64, ok bool) {
	var dt float64
	if !i.lastFrame.IsZero() {
		dt = max(now.Sub(i.lastFrame).Seconds(), 0)
	}
	i.lastFrame = now

	if !snap.HasHeight {
		return 0, false
	}

	height := float64(snap.Height)
	if !i.hasValue {
		i.displayed = height
		i.hasValue = true
	}

	switch {
	case snap.Source == domain.SourcePush:
		i.displayed = max(i.displayed, height)
	case snap.Rate.Valid && snap.Rate.BPS > 0:
		predicted := min(i.displayed+snap.Rate.BPS*dt, height+1)
		i.displayed = max(i.displayed, height, predicted)
	default:
		i.displayed = max(i.displayed, height)
	}

	return uint64(math.Floor(i.displayed)), true
}

// DisplayFrame is one rendered animation frame.
type DisplayFrame struct {
	Value    uint64
	Visible  bool
	Snapshot domain.Snapshot
}

// Animator drives an Interpolator from a ticker for views without their own
// frame clock.
type Animator struct {
	interval time.Duration
	source   SnapshotSource
	interp   *Interpolator
	onFrame  func(DisplayFrame)
}

func NewAnimator(interval time.Duration, source SnapshotSource, onFrame func(DisplayFrame)) *Animator {
	return &Animator{
		interval: interval,
		source:   source,
		interp:   NewInterpolator(),
		onFrame:  onFrame,
	}
}

// Run renders frames until ctx is cancelled.
func (a *Animator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			snap := a.source.Snapshot()
			value, ok := a.interp.Frame(now, snap)
			a.onFrame(DisplayFrame{Value: value, Visible: ok, Snapshot: snap})
		}
	}
}
