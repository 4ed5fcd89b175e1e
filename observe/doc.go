// Package observe provides observability for the synchronization
// layer: structured logging, OpenTelemetry metrics, and tracing for
// query and mutation execution.
//
// It is a pure instrumentation library: no fetching, no cache access.
// The client wires an Observer into the query runner and mutation
// coordinator; everything degrades to no-ops when disabled.
package observe
