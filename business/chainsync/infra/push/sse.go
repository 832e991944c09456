// Package push adapts the indexer's event transports to the sync engine's
// Dialer port.
package push

import (
	"context"
	"net/http"

	"github.com/evstack/atlas-sub000/business/chainsync/app"
	"github.com/evstack/atlas-sub000/internal/apperror"
	"github.com/evstack/atlas-sub000/internal/sse"
)

// NewBlockEvent is the event type carrying block payloads.
const NewBlockEvent = "new_block"

// SSEDialer opens the indexer's server-sent events endpoint.
type SSEDialer struct {
	client *http.Client
	url    string
	header http.Header
}

// NewSSEDialer expects a client without an overall timeout; the stream is
// bounded by the dial context instead.
func NewSSEDialer(client *http.Client, url string, header http.Header) *SSEDialer {
	if client == nil {
		client = &http.Client{}
	}
	return &SSEDialer{client: client, url: url, header: header}
}

func (d *SSEDialer) Dial(ctx context.Context) (app.EventConn, error) {
	stream, err := sse.Dial(ctx, d.client, d.url, d.header)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStreamConnectFailed, d.url)
	}
	return &sseConn{stream: stream}, nil
}

type sseConn struct {
	stream *sse.Stream
}

// Next returns the data of the next new_block event. Other event types are
// skipped. The stream itself is bound to the dial context, so ctx only
// short-circuits between events.
func (c *sseConn) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev, err := c.stream.Next()
		if err != nil {
			return nil, err
		}
		if ev.Type == NewBlockEvent {
			return ev.Data, nil
		}
	}
}

func (c *sseConn) Close() error {
	return c.stream.Close()
}
