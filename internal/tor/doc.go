// Package tor routes image and side data fetches through a Tor SOCKS5 proxy.
//
// A Client wraps an existing proxy (usually a local tor daemon on
// 127.0.0.1:9050). EmbeddedTor starts a private daemon through tornago when
// no proxy is configured.
package tor
