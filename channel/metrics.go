package channel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/kbukum/streamkit/channel"

// metrics holds the channel's OpenTelemetry instruments.
type metrics struct {
	opens       metric.Int64Counter
	errors      metric.Int64Counter
	reconnects  metric.Int64Counter
	failures    metric.Int64Counter
	dispatched  metric.Int64Counter
	panics      metric.Int64Counter
	subscribers metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.opens, "streamchannel.opens", "Connections that reached the open state"},
		{&m.errors, "streamchannel.transport_errors", "Transport errors reported by the connection"},
		{&m.reconnects, "streamchannel.reconnects", "Reconnect attempts"},
		{&m.failures, "streamchannel.failures", "Channels that exhausted their retries"},
		{&m.dispatched, "streamchannel.events", "Events delivered to callbacks"},
		{&m.panics, "streamchannel.callback_panics", "Callbacks that panicked during dispatch"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}
	m.subscribers, err = meter.Int64UpDownCounter("streamchannel.subscriptions",
		metric.WithDescription("Registered callbacks on the live channel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating streamchannel.subscriptions gauge: %w", err)
	}
	return &m, nil
}

func urlAttr(url string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("url", url))
}

func (m *metrics) recordError(url, code string) {
	m.errors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("url", url),
		attribute.String("code", code),
	))
}

func (m *metrics) recordEvent(ctx context.Context, event string, panicked bool) {
	attrs := metric.WithAttributes(attribute.String("event", event))
	m.dispatched.Add(ctx, 1, attrs)
	if panicked {
		m.panics.Add(ctx, 1, attrs)
	}
}
