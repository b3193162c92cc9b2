// Package tracing wraps OpenTelemetry so queue and checkpoint operations can
// be traced without importing the upstream packages directly. Until Init or
// InitWithExporter is called spans are no-ops.
package tracing
