package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 2

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())
	require.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	require.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
}

func TestClientErrorsDoNotTrip(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || apperror.IsClientError(err) }
	cb := New[int](cfg)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, apperror.New(apperror.CodeNotFound) })
		require.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))
	}
	require.Equal(t, gobreaker.StateClosed, cb.State())
}
