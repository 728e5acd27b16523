// Package domain contains core concepts of the presence system.
// This file defines Session entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// ConnectionID is the opaque identifier the transport assigns to a
// connection. It is stable for the connection's lifetime.
type ConnectionID string

// Session binds one active connection to a username and a room.
// Sessions are immutable once created; a room change is modeled as
// leave-then-join, never as an in-place mutation.
type Session struct {
	ID       ConnectionID
	Username string
	Room     string
}

// NormalizeUsername produces the canonical form used for uniqueness
// comparisons. Display always keeps the originally supplied casing.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}
