// Package browser keeps a paged photo viewer bounded to a window of pages.
//
// Controller materializes the pages within WindowRadius of the current page
// and purges the rest: materialized pages get a view and a running (or
// resumed) load, purged pages lose their view and have their load paused.
// Viewer turns scroll offsets into the current page and drives the
// Controller.
//
// Everything in this package runs on the control thread.
package browser
