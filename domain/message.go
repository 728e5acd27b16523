// Package domain contains core concepts of the presence system.
// This file defines the immutable message record broadcast to rooms.
package domain

// SystemUsername is the author of notices not written by any user.
const SystemUsername = "system"

// MessageRecord is an immutable display record. It is produced by the
// formatter, broadcast once, and never stored.
type MessageRecord struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	Room     string `json:"room"`
}
