package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/streamkit/component"
)

const componentName = "telemetry"

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// Telemetry installs the meter and tracer providers on Start and flushes them
// on Stop. When disabled it does nothing and the global no-op providers stay
// in place.
type Telemetry struct {
	cfg Config
	mp  *sdkmetric.MeterProvider
	tp  *sdktrace.TracerProvider
}

// New creates a Telemetry component.
func New(cfg Config) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Telemetry{cfg: cfg}, nil
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return componentName }

// Start implements component.Component.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		return nil
	}
	mp, err := InitMeter(ctx, t.cfg)
	if err != nil {
		return err
	}
	tp, err := InitTracer(ctx, t.cfg)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return err
	}
	t.mp, t.tp = mp, tp
	return nil
}

// Stop implements component.Component.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		if err := t.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		t.tp = nil
	}
	if t.mp != nil {
		if err := t.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
		t.mp = nil
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(ctx context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	switch {
	case !t.cfg.Enabled:
		h.Message = "disabled"
	case t.mp == nil:
		h.Status = component.StatusDegraded
		h.Message = "not started"
	default:
		h.Message = "exporting to " + t.cfg.Endpoint
	}
	return h
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "OpenTelemetry", Type: "telemetry", Details: details}
}
