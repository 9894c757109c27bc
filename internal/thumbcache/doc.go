// Package thumbcache derives square thumbnails from loaded source images and
// keeps them in two tiers: an in-memory LRU and PNG files on disk keyed by
// format name and the entity's source image UUID.
package thumbcache
