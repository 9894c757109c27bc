// Package warm loads many gallery pages ahead of time.
//
// A Pipeline runs a fixed sequence of steps on one page: LoadStep drives the
// page's entity through a full load cycle on the control loop, and the
// optional ThumbnailStep, MetadataStep and SidecarStep derive the square
// thumbnail, summarize EXIF data and populate side data. Warmer runs the
// pipeline for many pages with bounded concurrency and streams each Result
// to a callback.
package warm
