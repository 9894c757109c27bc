// Package main provides the entry point for the photobrowse CLI.
//
// photobrowse pages through photo galleries in the terminal. Only the
// current page and its neighbours are loaded; everything else is paused
// or released while you scroll.
//
// Usage:
//
//	photobrowse view gallery.yaml
//	photobrowse view ~/Pictures/trip
//	photobrowse view --html https://example.com/album
//
// See --help for all available options.
package main

func main() {
	Execute()
}
