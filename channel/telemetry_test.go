package channel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/streamkit/transport/transporttest"
)

// sumOf returns the total of an int64 sum instrument, or -1 if absent.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return -1
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	f := newFixture(t, Config{MaxRetries: 2}, WithMeterProvider(mp))

	ch := f.mgr.Shared(urlA)
	ch.Subscribe("x", func(string) {})
	ch.Subscribe("x", func(string) { panic("boom") })
	f.provider.Last().Open()
	f.provider.Last().Emit("x", "1")

	f.failAndReconnect()
	f.provider.Last().Fail(transporttest.ErrDisconnected)

	tests := []struct {
		name string
		want int64
	}{
		{"streamchannel.opens", 1},
		{"streamchannel.events", 2},
		{"streamchannel.callback_panics", 1},
		{"streamchannel.transport_errors", 2},
		{"streamchannel.reconnects", 1},
		{"streamchannel.failures", 1},
		{"streamchannel.subscriptions", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sumOf(t, reader, tt.name); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestDispatchSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	f := newFixture(t, Config{}, WithTracerProvider(tp))

	ch := f.mgr.Shared(urlA)
	ch.Subscribe("ok", func(string) {})
	ch.Subscribe("bad", func(string) { panic("boom") })
	f.provider.Last().Open()
	f.provider.Last().Emit("ok", "1")
	f.provider.Last().Emit("bad", "2")

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "streamchannel.dispatch" {
			t.Errorf("span name = %q", s.Name())
		}
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("successful dispatch marked as error")
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("panicking dispatch should be marked as error")
	}
}
