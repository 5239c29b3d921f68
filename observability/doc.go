// Package observability wires OpenTelemetry metrics and tracing to an OTLP
// HTTP collector.
//
// The Telemetry component installs global meter and tracer providers on
// Start; packages such as channel pick them up through otel.GetMeterProvider
// and otel.GetTracerProvider.
//
//	observability:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  insecure: true
//	  sample_rate: 0.5
package observability
