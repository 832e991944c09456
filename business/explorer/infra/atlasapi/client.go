// Package atlasapi is the REST client for the indexer's public API.
package atlasapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/evstack/atlas-sub000/internal/apperror"
	"github.com/evstack/atlas-sub000/internal/circuitbreaker"
	"github.com/evstack/atlas-sub000/internal/httpclient"
	"github.com/evstack/atlas-sub000/internal/logger"
	"github.com/evstack/atlas-sub000/internal/ratelimit"
)

const providerName = "atlas-indexer"

// Config configures the indexer client.
type Config struct {
	BaseURL           string
	StatusPath        string
	Timeout           time.Duration
	RequestsPerMinute int
	Breaker           circuitbreaker.Config
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		StatusPath:        "status",
		Timeout:           10 * time.Second,
		RequestsPerMinute: 600,
		Breaker:           circuitbreaker.DefaultConfig(providerName),
	}
}

// Client issues rate-limited GET requests behind a circuit breaker. 404s and
// invalid input do not count as breaker failures.
type Client struct {
	http       httpclient.Client
	statusPath string
	limiter    *ratelimit.Limiter
	breaker    *circuitbreaker.CircuitBreaker[*httpclient.Response]
	logger     logger.LoggerInterface
}

func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigMissing, apperror.WithContext("indexer base url"))
	}

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(providerName),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return newClient(cfg, hc, log), nil
}

func newClient(cfg Config, hc httpclient.Client, log logger.LoggerInterface) *Client {
	bc := cfg.Breaker
	if bc.Name == "" {
		bc = circuitbreaker.DefaultConfig(providerName)
	}
	bc.IsSuccessful = func(err error) bool {
		return err == nil || apperror.IsClientError(err)
	}
	bc.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "indexer circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	statusPath := strings.TrimPrefix(cfg.StatusPath, "/")
	if statusPath == "" {
		statusPath = "status"
	}

	return &Client{
		http:       hc,
		statusPath: statusPath,
		limiter:    ratelimit.New(cfg.RequestsPerMinute),
		breaker:    circuitbreaker.New[*httpclient.Response](bc),
		logger:     log,
	}
}

// HTTP exposes the underlying instrumented client, e.g. for streaming.
func (c *Client) HTTP() httpclient.Client {
	return c.http
}

// BreakerState is the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) get(ctx context.Context, resource, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (*httpclient.Response, error) {
		req := c.http.NewRequest(httpclient.WithLabels(httpclient.NewLabel("resource", resource)))
		for k, vs := range query {
			for _, v := range vs {
				req.SetQueryParam(k, v)
			}
		}

		resp, err := req.Get(ctx, path)
		if err != nil {
			return resp, mapError(path, err)
		}
		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return resp, apperror.New(apperror.CodeIndexerRequestFailed,
					apperror.WithContext("decode "+path),
					apperror.WithCause(err))
			}
		}
		return resp, nil
	})
	if err != nil {
		c.logger.Debug(ctx, "indexer request failed", "path", path, "code", string(apperror.GetCode(err)))
	}
	return err
}

func mapError(path string, err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusNotFound {
			return apperror.New(apperror.CodeNotFound, apperror.WithContext(path), apperror.WithCause(err))
		}
		if se.StatusCode == http.StatusTooManyRequests {
			return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext(path), apperror.WithCause(err))
		}
		return apperror.New(apperror.CodeIndexerRequestFailed,
			apperror.WithContext(fmt.Sprintf("GET %s: status %d", path, se.StatusCode)),
			apperror.WithCause(err))
	}
	return apperror.Wrap(err, apperror.CodeNetworkError, "GET "+path)
}

func pageQuery(page, limit uint32) url.Values {
	return url.Values{
		"page":  []string{strconv.FormatUint(uint64(page), 10)},
		"limit": []string{strconv.FormatUint(uint64(limit), 10)},
	}
}
