// Package dispatch provides the control thread of a viewer session.
//
// Every mutation of image entities, page controllers and page views happens
// on exactly one goroutine. Work produced elsewhere (network completions,
// file reads, sidecar lookups) is handed over with Queue.Post and runs later
// on that goroutine, in the order it was posted.
//
// Two queue implementations are provided:
//   - Loop owns a goroutine and drains posted work until it is closed.
//   - Manual is drained explicitly with RunPending. Event loops that already
//     own a thread (the terminal UI) and tests use it.
package dispatch
