// Package report renders the result of inspecting a gallery.
//
// GalleryReport holds one Entry per page: how the page loaded, what its EXIF
// block discloses and the side data found for it. Writers render a report as
// plain text, Markdown or JSON.
package report
