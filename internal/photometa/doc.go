// Package photometa reads the EXIF block of a photo: camera, software,
// capture time and location, plus the metadata a publisher may not want to
// disclose (GPS position, serial numbers, author names).
package photometa
