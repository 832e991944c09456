// Package wsconn is a thin single-connection websocket client on top of
// coder/websocket. Reconnection is the caller's concern.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("wsconn: connection closed")

// Config holds websocket client configuration.
type Config struct {
	URL          string
	Name         string
	Header       http.Header
	ReadLimit    int64
	PingInterval time.Duration // 0 disables keepalive pings
	PongTimeout  time.Duration
}

// DefaultConfig returns keepalive defaults suitable for an indexer feed.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:          url,
		Name:         name,
		ReadLimit:    1 << 20,
		PingInterval: 30 * time.Second,
		PongTimeout:  10 * time.Second,
	}
}

// Conn is one open websocket connection.
type Conn struct {
	config Config
	conn   *websocket.Conn

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens the connection and starts the keepalive loop.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	conn, _, err := websocket.Dial(ctx, cfg.URL, &websocket.DialOptions{
		HTTPHeader: cfg.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("wsconn %s: dial: %w", cfg.Name, err)
	}
	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}

	pingCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		config: cfg,
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if cfg.PingInterval > 0 {
		go c.keepalive(pingCtx)
	}

	return c, nil
}

// Read returns the payload of the next data frame.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	_, data, err := c.conn.Read(ctx)
	if err != nil {
		select {
		case <-c.done:
			return nil, ErrClosed
		default:
		}
		return nil, fmt.Errorf("wsconn %s: read: %w", c.config.Name, err)
	}
	return data, nil
}

// keepalive pings on an interval; a missed pong closes the connection so
// the pending Read fails.
func (c *Conn) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				_ = c.conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

// Close is idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		err = c.conn.Close(websocket.StatusNormalClosure, "")
	})
	return err
}
