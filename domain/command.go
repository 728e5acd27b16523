package domain

// Command is one inbound protocol event, keyed by the connection that
// triggered it. Commands are handled one at a time by the router.
type Command interface {
	ConnID() ConnectionID
}

// JoinCommand asks to bind the connection to a username inside a room.
type JoinCommand struct {
	ID       ConnectionID
	Username string
	Room     string
}

func (c JoinCommand) ConnID() ConnectionID { return c.ID }

// ChatCommand carries the raw text of a chat message.
type ChatCommand struct {
	ID   ConnectionID
	Text string
}

func (c ChatCommand) ConnID() ConnectionID { return c.ID }

// DisconnectCommand is delivered by the transport when the channel closes.
type DisconnectCommand struct {
	ID ConnectionID
}

func (c DisconnectCommand) ConnID() ConnectionID { return c.ID }
