// Package expiry drives a Ring's rotation on a fixed period from a
// background goroutine. It owns no cache state itself; it only calls a
// supplied rotate function on a ticker, so the caller (the root ringcache
// package's control actor) stays the single writer of ring topology.
package expiry
