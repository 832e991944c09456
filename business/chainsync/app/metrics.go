package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/evstack/atlas-sub000/business/chainsync/domain"
)

const instrumentationName = "github.com/evstack/atlas-sub000/business/chainsync"

// syncMetrics holds the OpenTelemetry instruments of the sync engine.
type syncMetrics struct {
	streamEvents metric.Int64Counter
	reconnects   metric.Int64Counter
	streamState  metric.Int64Gauge
	drainEmitted metric.Int64Counter
	drainSkipped metric.Int64Counter
	queueDepth   metric.Int64Gauge
	pollRequests metric.Int64Counter
	pollErrors   metric.Int64Counter
	pollLatency  metric.Float64Histogram
	height       metric.Int64Gauge
}

// newSyncMetrics registers instruments on the global meter, falling back to
// no-op instruments if registration fails.
func newSyncMetrics() *syncMetrics {
	m, err := initMetrics(otel.Meter(instrumentationName))
	if err != nil {
		m, _ = initMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func initMetrics(meter metric.Meter) (*syncMetrics, error) {
	m := &syncMetrics{}
	var err error

	if m.streamEvents, err = meter.Int64Counter(
		"atlas_stream_events_total",
		metric.WithDescription("Block events received on the push channel"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, err
	}

	if m.reconnects, err = meter.Int64Counter(
		"atlas_stream_reconnects_total",
		metric.WithDescription("Reconnects scheduled after a push channel failure"),
		metric.WithUnit("{reconnect}"),
	); err != nil {
		return nil, err
	}

	if m.streamState, err = meter.Int64Gauge(
		"atlas_stream_state",
		metric.WithDescription("Push channel state (0=disconnected, 1=connecting, 2=connected)"),
		metric.WithUnit("{state}"),
	); err != nil {
		return nil, err
	}

	if m.drainEmitted, err = meter.Int64Counter(
		"atlas_drain_emitted_total",
		metric.WithDescription("Blocks released by the drain"),
		metric.WithUnit("{block}"),
	); err != nil {
		return nil, err
	}

	if m.drainSkipped, err = meter.Int64Counter(
		"atlas_drain_skipped_total",
		metric.WithDescription("Blocks discarded by overflow skip-ahead"),
		metric.WithUnit("{block}"),
	); err != nil {
		return nil, err
	}

	if m.queueDepth, err = meter.Int64Gauge(
		"atlas_drain_queue_depth",
		metric.WithDescription("Pending events in the drain queue"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, err
	}

	if m.pollRequests, err = meter.Int64Counter(
		"atlas_poll_requests_total",
		metric.WithDescription("Status requests issued by the poller"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.pollErrors, err = meter.Int64Counter(
		"atlas_poll_errors_total",
		metric.WithDescription("Failed status requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.pollLatency, err = meter.Float64Histogram(
		"atlas_poll_latency_ms",
		metric.WithDescription("Status request latency"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.height, err = meter.Int64Gauge(
		"atlas_height",
		metric.WithDescription("Authoritative chain height"),
		metric.WithUnit("{block}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *syncMetrics) recordState(ctx context.Context, s domain.StreamState) {
	var v int64
	switch s {
	case domain.StreamConnecting:
		v = 1
	case domain.StreamConnected:
		v = 2
	}
	m.streamState.Record(ctx, v)
}
