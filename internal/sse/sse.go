// Package sse reads a text/event-stream response into discrete events.
package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/launchdarkly/eventsource"
)

// ErrNotEventStream is returned when the server answers with another media type.
var ErrNotEventStream = errors.New("sse: response is not text/event-stream")

// Event is one dispatched server-sent event.
type Event struct {
	ID   string
	Type string
	Data []byte
}

// Stream is an open event stream. It is not safe for concurrent Next calls.
type Stream struct {
	body   io.ReadCloser
	dec    *eventsource.Decoder
	lastID string
}

// Dial issues GET url with the event-stream headers. The stream lives as long
// as ctx; cancelling it unblocks a pending Next.
func Dial(ctx context.Context, client *http.Client, url string, header http.Header) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sse: build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sse: connect: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("sse: unexpected status %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/event-stream" {
		_ = resp.Body.Close()
		return nil, ErrNotEventStream
	}

	return NewStream(resp.Body), nil
}

// NewStream wraps an already open body.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		dec:  eventsource.NewDecoder(body),
	}
}

// Next blocks until the next event with data is dispatched. Comment lines and
// blank dispatches are skipped. io.EOF means the server closed the stream; an
// event not yet terminated by a blank line is dropped.
func (s *Stream) Next() (Event, error) {
	for {
		ev, err := s.dec.Decode()
		if err != nil {
			return Event{}, err
		}
		if id := ev.Id(); id != "" {
			s.lastID = id
		}
		if ev.Data() == "" {
			continue
		}

		typ := ev.Event()
		if typ == "" {
			typ = "message"
		}
		return Event{ID: s.lastID, Type: typ, Data: []byte(ev.Data())}, nil
	}
}

// LastEventID is the most recent id field seen on the stream.
func (s *Stream) LastEventID() string {
	return s.lastID
}

func (s *Stream) Close() error {
	return s.body.Close()
}
