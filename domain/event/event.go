// Package event defines the outbound protocol events the router emits
// towards connections. Each event knows its wire name; payload encoding
// belongs to the transport.
package event

import (
	"roomcast/domain"
	"roomcast/errors"
)

// Outbound is one server-to-client protocol event.
type Outbound interface {
	Name() string
}

// Welcome is sent only to the connection whose join succeeded.
type Welcome struct {
	Record domain.MessageRecord
}

func (Welcome) Name() string { return "welcomeMessage" }

// Message is a chat broadcast or a system notice delivered to room members.
type Message struct {
	Record domain.MessageRecord
}

func (Message) Name() string { return "message" }

// RoomUser is one entry of a refreshed member list.
type RoomUser struct {
	Username string `json:"username"`
}

// RoomUsers is the refreshed member list sent after a membership change.
type RoomUsers struct {
	Room  string     `json:"room"`
	Users []RoomUser `json:"users"`
}

func (RoomUsers) Name() string { return "roomUsers" }

// JoinFailed is sent only to the connection whose join was rejected.
type JoinFailed struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Name distinguishes the uniqueness violation from every other join
// failure so clients can keep their username prompt open.
func (e JoinFailed) Name() string {
	if e.Code == errors.CodeUsernameTaken {
		return "usernameError"
	}
	return "joinError"
}
