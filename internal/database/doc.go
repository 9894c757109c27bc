// Package database stores photo side data in a local SQLite file
// (modernc.org/sqlite, no cgo) so that owner, favorites and comments of a
// page are fetched from the photo API only once.
package database
