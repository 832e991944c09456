package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUsesCatalogMessage(t *testing.T) {
	err := New(CodePollFailed, WithContext("GET /status"))
	require.Equal(t, "Status poll failed", err.Message)
	require.Equal(t, "POLL_FAILED: Status poll failed (GET /status)", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeNetworkError, "dial")

	require.ErrorIs(t, err, cause)
	require.Equal(t, CodeNetworkError, GetCode(fmt.Errorf("outer: %w", err)))
	require.ErrorIs(t, err, New(CodeNetworkError))
}

func TestWrapMapsContextErrors(t *testing.T) {
	require.Equal(t, CodeCancelled, Wrap(context.Canceled, CodeNetworkError, "").Code)
	require.Equal(t, CodeServiceTimeout, Wrap(context.DeadlineExceeded, CodeNetworkError, "").Code)
	require.Nil(t, Wrap(nil, CodeNetworkError, ""))
}

func TestWrapPreservesExistingAppError(t *testing.T) {
	orig := New(CodeNotFound)
	wrapped := Wrap(orig, CodeIndexerRequestFailed, "blocks/7")
	require.Same(t, orig, wrapped)
	require.Equal(t, "blocks/7", wrapped.Context)
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeNotFound), true},
		{New(CodeInvalidHash), true},
		{New(CodeIndexerRequestFailed), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsClientError(tt.err), tt.err.Error())
	}
}
