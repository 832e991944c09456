package push

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.Equal(t, "secret", r.Header.Get("X-Token"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSSEDialer_FiltersNewBlockEvents(t *testing.T) {
	body := strings.Join([]string{
		": keepalive",
		"",
		"event: heartbeat",
		"data: {}",
		"",
		"event: new_block",
		`data: {"block":{"number":1,"timestamp":10}}`,
		"",
		"event: new_block",
		`data: {"block":{"number":2,"timestamp":11}}`,
		"",
		"",
	}, "\n")
	srv := sseServer(t, body)

	d := NewSSEDialer(nil, srv.URL, http.Header{"X-Token": []string{"secret"}})
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	first, err := conn.Next(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"block":{"number":1,"timestamp":10}}`, string(first))

	second, err := conn.Next(ctx)
	require.NoError(t, err)
	require.Contains(t, string(second), `"number":2`)

	_, err = conn.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestSSEDialer_RejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	_, err := NewSSEDialer(srv.Client(), srv.URL, nil).Dial(context.Background())
	require.Error(t, err)
	require.Equal(t, apperror.CodeStreamConnectFailed, apperror.GetCode(err))
}

func TestSSEConn_NextHonoursCancelledContext(t *testing.T) {
	srv := sseServer(t, "event: new_block\ndata: {}\n\n")

	conn, err := NewSSEDialer(nil, srv.URL, http.Header{"X-Token": []string{"secret"}}).Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = conn.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWSDialer_SkipsOtherTypes(t *testing.T) {
	frames := []string{
		`{"type":"heartbeat"}`,
		`{"type":"new_block","block":{"number":7,"timestamp":70}}`,
		`{"block":{"number":8,"timestamp":71}}`,
		`not json`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for _, f := range frames {
			if err := c.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		// hold the connection open until the client goes away
		_, _, _ = c.Read(ctx)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := NewWSDialer(url, nil).Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	var got []string
	for range 3 {
		data, err := conn.Next(ctx)
		require.NoError(t, err)
		got = append(got, string(data))
	}
	require.Equal(t, frames[1:], got)
}

func TestWSDialer_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewWSDialer("ws"+strings.TrimPrefix(srv.URL, "http"), nil).Dial(context.Background())
	require.Error(t, err)
	require.Equal(t, apperror.CodeStreamConnectFailed, apperror.GetCode(err))
	require.Contains(t, err.Error(), "indexer-events")
}
