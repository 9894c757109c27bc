// Package transport fetches image bytes for the load state machine.
//
// A Transport starts a fetch and hands back a Request that can be suspended
// and resumed without losing what has already been received. The done
// callback of a fetch runs exactly once, on a worker goroutine; callers are
// expected to hand the result over to their control thread.
//
// HTTPTransport suspends by cancelling the in-flight exchange while keeping
// the received prefix, and resumes with a Range request validated by If-Range.
// FileTransport reads local files and holds the result back while suspended.
package transport
