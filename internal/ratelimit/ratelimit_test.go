package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

func TestBurstIsTenPercent(t *testing.T) {
	l := New(600)
	for i := 0; i < 60; i++ {
		require.True(t, l.Allow(), "request %d within burst", i)
	}
	require.False(t, l.Allow())
}

func TestDisabledLimiterNeverBlocks(t *testing.T) {
	l := New(0)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow())
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	code := apperror.GetCode(err)
	require.Contains(t, []apperror.Code{apperror.CodeRateLimitExceeded, apperror.CodeServiceTimeout}, code)
}
