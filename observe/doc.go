// Package observe provides observability primitives for guarded calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the Observer and Recorder into a
// resilience.Coordinator as its event sink and wrap guarded operations with
// the Middleware for spans, metrics, and structured logs.
package observe
