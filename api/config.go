// Package api provides a read-only HTTP API for inspecting persisted
// conversation trees and the context compiled from them.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8082")
	ListenAddr string

	// TokenBudget is the advisory budget reported by the context endpoint.
	TokenBudget int
}
