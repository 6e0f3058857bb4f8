// Package main demonstrates a complete script↔host round trip over the
// binding bridge.
//
// It wires a goja runtime (the script side) to an in-memory host, then
// drives the full protocol surface from one script:
//
//   - property writes recorded as mutation commands and applied on drain
//   - property reads that flush the queue first, observing prior writes
//   - a named method call dispatched through the host call path
//   - an anonymous synchronous callable
//   - an asynchronous callable whose promise is settled by the host from
//     a worker goroutine through the promise bridge
//
// Usage:
//
//	# JSON logs at the configured level
//	./demo
//
//	# Colored console logs at debug level
//	./demo -dev
package main
