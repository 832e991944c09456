package chainsync

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/business/chainsync/app"
	"github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/internal/config"
	"github.com/evstack/atlas-sub000/internal/logger"
)

type downDialer struct{}

func (downDialer) Dial(context.Context) (app.EventConn, error) {
	return nil, errors.New("connection refused")
}

type fixedFetcher struct{ height uint64 }

func (f fixedFetcher) Status(context.Context) (domain.Status, error) {
	return domain.Status{BlockHeight: f.height}, nil
}

type snapshotFunc func() domain.Snapshot

func (f snapshotFunc) Snapshot() domain.Snapshot { return f() }

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		ReconnectDelay:       20 * time.Millisecond,
		PollInterval:         time.Hour,
		EMAAlpha:             0.25,
		SampleCapacity:       500,
		DisplayWindow:        30 * time.Second,
		PacingWindow:         10 * time.Second,
		DrainMinInterval:     30 * time.Millisecond,
		DrainMaxInterval:     500 * time.Millisecond,
		DrainDefaultInterval: 100 * time.Millisecond,
		DrainIdleInterval:    30 * time.Millisecond,
		OverflowThreshold:    50,
		OverflowKeep:         5,
		CatchUpThreshold:     5,
		CatchUpFactor:        0.7,
		FrameInterval:        16 * time.Millisecond,
	}
}

func TestNewCoordinator_FallsBackToPoll(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	coord := NewCoordinator(testSyncConfig(), downDialer{}, fixedFetcher{height: 321}, log)

	coord.Start(context.Background())
	defer coord.Stop()

	require.Eventually(t, func() bool { return coord.Snapshot().Height == 321 }, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, domain.SourcePoll, coord.Snapshot().Source)

	ok, msg := HealthCheck(coord)(context.Background())
	require.True(t, ok)
	require.Equal(t, "height 321 via poll", msg)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name string
		snap domain.Snapshot
		ok   bool
	}{
		{"no height", domain.Snapshot{}, false},
		{"push", domain.Snapshot{HasHeight: true, Height: 5, Source: domain.SourcePush, StreamState: domain.StreamConnected}, true},
		{"polling fine", domain.Snapshot{HasHeight: true, Height: 5, Source: domain.SourcePoll, StreamState: domain.StreamDisconnected}, true},
		{"degraded", domain.Snapshot{HasHeight: true, Height: 5, Source: domain.SourcePoll, StreamState: domain.StreamConnecting, PollError: "502"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := HealthCheck(snapshotFunc(func() domain.Snapshot { return tt.snap }))(context.Background())
			require.Equal(t, tt.ok, ok)
			require.NotEmpty(t, msg)
		})
	}
}
