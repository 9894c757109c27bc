// Package config holds the runtime options of photobrowse and the optional
// .photobrowse YAML file that supplies defaults for them.
package config
