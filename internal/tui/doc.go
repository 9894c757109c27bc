// Package tui is the terminal photo viewer.
//
// Model is a bubbletea model that owns a browser.Viewer. The viewer's
// control queue is a dispatch.Manual: posts wake the program through a
// Waker, and Update drains the queue, so bubbletea's event loop is the
// control thread. One page is one window height; the page cards of the
// materialized pages are laid out one after another and scrolled line by line.
package tui
