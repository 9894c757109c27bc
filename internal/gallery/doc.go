// Package gallery builds the ordered list of photos a viewer pages through.
//
// A Manifest is read from a YAML gallery file, assembled from command line
// arguments (URLs, image files and directories) or scraped from the <img>
// elements of an HTML page. New turns a Manifest into a Gallery, which
// creates one entity per photo and serves them to the page controller.
package gallery
