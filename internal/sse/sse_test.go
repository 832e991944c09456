package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamParsesEvents(t *testing.T) {
	raw := ": keepalive\n" +
		"event: new_block\n" +
		"id: 7\n" +
		"data: {\"block\":\n" +
		"data: {\"number\":7}}\n" +
		"\n" +
		"\n" +
		"data: plain\n" +
		"\n"

	s := NewStream(io.NopCloser(strings.NewReader(raw)))

	ev, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "new_block", ev.Type)
	require.Equal(t, "7", ev.ID)
	require.Equal(t, "{\"block\":\n{\"number\":7}}", string(ev.Data))

	ev, err = s.Next()
	require.NoError(t, err)
	require.Equal(t, "message", ev.Type)
	require.Equal(t, "plain", string(ev.Data))
	require.Equal(t, "7", ev.ID)
	require.Equal(t, "7", s.LastEventID())

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamEventTermination(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantData []string
	}{
		{
			name:     "blank line dispatches final event",
			raw:      "event: new_block\ndata: {\"n\":1}\n\n",
			wantData: []string{`{"n":1}`},
		},
		{
			name: "single newline leaves final event undispatched",
			raw:  "event: new_block\ndata: {\"n\":1}\n",
		},
		{
			name: "missing newline leaves final event undispatched",
			raw:  "event: new_block\ndata: {\"n\":1}",
		},
		{
			name:     "only the unterminated tail is dropped",
			raw:      "data: {\"n\":1}\n\ndata: {\"n\":2}\n",
			wantData: []string{`{"n":1}`},
		},
		{
			name: "empty stream",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(io.NopCloser(strings.NewReader(tt.raw)))
			for _, want := range tt.wantData {
				ev, err := s.Next()
				require.NoError(t, err)
				require.Equal(t, want, string(ev.Data))
			}
			_, err := s.Next()
			require.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestDialAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(w, "event: new_block\ndata: {\"n\":%d}\n\n", i)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	s, err := Dial(context.Background(), srv.Client(), srv.URL, nil)
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 3; i++ {
		ev, err := s.Next()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("{\"n\":%d}", i), string(ev.Data))
	}
	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDialRejectsWrongMediaType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), srv.Client(), srv.URL, nil)
	require.True(t, errors.Is(err, ErrNotEventStream))
}

func TestDialRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), srv.Client(), srv.URL, nil)
	require.ErrorContains(t, err, "503")
}

func TestCancelUnblocksNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s, err := Dial(ctx, srv.Client(), srv.URL, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after cancel")
	}
}
