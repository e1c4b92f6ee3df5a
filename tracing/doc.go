// Package tracing wraps OpenTelemetry so that coordinator entry points and
// analysis workers can open spans without importing the SDK directly. When
// Init is never called spans are no-ops.
package tracing
