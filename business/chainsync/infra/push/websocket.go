package push

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/evstack/atlas-sub000/business/chainsync/app"
	"github.com/evstack/atlas-sub000/internal/apperror"
	"github.com/evstack/atlas-sub000/internal/wsconn"
)

// WSDialer opens the indexer's websocket feed. Frames carry the same payload
// as the SSE data field, optionally with a top-level "type".
type WSDialer struct {
	config wsconn.Config
}

func NewWSDialer(url string, header http.Header) *WSDialer {
	cfg := wsconn.DefaultConfig(url, "indexer-events")
	cfg.Header = header
	return &WSDialer{config: cfg}
}

func (d *WSDialer) Dial(ctx context.Context) (app.EventConn, error) {
	conn, err := wsconn.Dial(ctx, d.config)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStreamConnectFailed, d.config.URL)
	}
	return &wsEventConn{conn: conn}, nil
}

type envelope struct {
	Type string `json:"type"`
}

type wsEventConn struct {
	conn *wsconn.Conn
}

// Next skips frames typed as anything other than new_block. Untyped frames
// and frames that are not JSON objects are passed through; the engine drops
// what it cannot parse.
func (c *wsEventConn) Next(ctx context.Context) ([]byte, error) {
	for {
		data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, err
		}

		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Type != "" && env.Type != NewBlockEvent {
			continue
		}
		return data, nil
	}
}

func (c *wsEventConn) Close() error {
	return c.conn.Close()
}
