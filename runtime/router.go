package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"roomcast/contract"
	"roomcast/domain"
	"roomcast/domain/event"
	"roomcast/errors"
	"roomcast/format"
	"roomcast/moderation"
	"roomcast/observability"
	"roomcast/validation"
)

// Compile-time assertions of the architectural contracts.
var (
	_ contract.Worker     = (*Router)(nil)
	_ contract.Dispatcher = (*Router)(nil)
)

// connectCommand wires a freshly opened connection's sink into the
// router. It flows through the same channel as protocol commands so
// sink registration is ordered with everything else.
type connectCommand struct {
	id   domain.ConnectionID
	sink contract.EventSink
}

func (c connectCommand) ConnID() domain.ConnectionID { return c.id }

// Router is the protocol state machine. It drains one command at a
// time from its channel, mutates the registry, and decides which sinks
// receive which outbound events. Running it as a single worker is what
// gives the per-room ordering guarantee: no event handling interleaves
// with another.
//
// The router holds no authoritative presence state; the registry does.
// It only keeps the transient connection-to-sink wiring.
type Router struct {
	log         *slog.Logger
	registry    contract.IRegistry
	formatter   *format.Formatter
	moderator   *moderation.Moderator
	stats       *observability.Stats
	commands    chan domain.Command
	sinks       map[domain.ConnectionID]contract.EventSink
	sinkTimeout time.Duration
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	formatter *format.Formatter, moderator *moderation.Moderator,
	stats *observability.Stats, bufferSize int, sinkTimeout time.Duration) *Router {
	return &Router{
		log:         log,
		registry:    registry,
		formatter:   formatter,
		moderator:   moderator,
		stats:       stats,
		commands:    make(chan domain.Command, bufferSize),
		sinks:       make(map[domain.ConnectionID]contract.EventSink),
		sinkTimeout: sinkTimeout,
	}
}

// Connect registers the outbound sink of a new connection.
func (r *Router) Connect(id domain.ConnectionID, sink contract.EventSink) {
	r.Dispatch(connectCommand{id: id, sink: sink})
}

// Dispatch enqueues an inbound command without blocking the transport.
func (r *Router) Dispatch(cmd domain.Command) {
	select {
	case r.commands <- cmd:
	default:
		r.log.Warn("Command channel full, dropping command", "connection_id", cmd.ConnID())
	}
}

func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping router")
			return ctx.Err()
		case cmd, ok := <-r.commands:
			if !ok {
				return nil
			}
			r.handle(ctx, cmd)
		}
	}
}

func (r *Router) handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case connectCommand:
		r.sinks[c.id] = c.sink
	case domain.JoinCommand:
		r.handleJoin(ctx, c)
	case domain.ChatCommand:
		r.handleChat(ctx, c)
	case domain.DisconnectCommand:
		r.handleDisconnect(ctx, c)
	default:
		r.log.Warn("Unknown command", "connection_id", cmd.ConnID())
	}
}

func (r *Router) handleJoin(ctx context.Context, cmd domain.JoinCommand) {
	sink, ok := r.sinks[cmd.ID]
	if !ok {
		r.log.Warn("Join from unregistered connection", "connection_id", cmd.ID)
		return
	}

	// A join while already joined is rejected without touching state.
	if _, joined := r.registry.GetByID(cmd.ID); joined {
		r.rejectJoin(ctx, sink, cmd.ID, errors.ErrAlreadyJoined)
		return
	}

	req, err := validation.ValidateJoin(validation.JoinRequest{Username: cmd.Username, Room: cmd.Room})
	if err != nil {
		r.rejectJoin(ctx, sink, cmd.ID, err)
		return
	}

	session, err := r.registry.Join(cmd.ID, req.Username, req.Room)
	if err != nil {
		r.rejectJoin(ctx, sink, cmd.ID, err)
		return
	}
	r.stats.IncrJoins()

	// The joiner gets a private welcome; the rest of the room learns
	// about the newcomer and receives the refreshed member list.
	welcome := r.formatter.SystemNotice(format.NoticeWelcome, "", session.Room)
	r.emit(ctx, sink, event.Welcome{Record: welcome})

	notice := r.formatter.SystemNotice(format.NoticeUserJoined, session.Username, session.Room)
	r.broadcast(ctx, session.Room, event.Message{Record: notice}, session.ID)
	r.broadcastRoomUsers(ctx, session.Room, session.ID)

	r.log.Info("User joined room", "username", session.Username, "room", session.Room,
		"members", r.registry.RoomMemberCount(session.Room))
}

func (r *Router) handleChat(ctx context.Context, cmd domain.ChatCommand) {
	session, ok := r.registry.GetByID(cmd.ID)
	if !ok {
		// Chat before join is a benign race with a disconnect already
		// in flight, never surfaced to the user.
		r.log.Debug("Chat from connection without session, ignoring", "connection_id", cmd.ID)
		return
	}

	text, err := validation.ValidateMessage(cmd.Text)
	if err != nil {
		r.log.Warn("Invalid chat message, ignoring", "connection_id", cmd.ID, "error", err)
		return
	}

	censored, foundWords := r.moderator.Censor(text)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(text)
		r.log.Warn("Censored message",
			"username", session.Username,
			"room", session.Room,
			"words", len(foundWords),
			"lang", info.Lang.Iso6391())
	}

	record := r.formatter.Format(session.Username, session.Room, censored)
	r.broadcast(ctx, session.Room, event.Message{Record: record}, "")
	r.stats.IncrBroadcasts()
}

func (r *Router) handleDisconnect(ctx context.Context, cmd domain.DisconnectCommand) {
	delete(r.sinks, cmd.ID)

	session, ok := r.registry.Leave(cmd.ID)
	if !ok {
		// The connection never completed a join.
		return
	}
	r.stats.IncrLeaves()

	notice := r.formatter.SystemNotice(format.NoticeUserLeft, session.Username, session.Room)
	r.broadcast(ctx, session.Room, event.Message{Record: notice}, "")
	r.broadcastRoomUsers(ctx, session.Room, "")

	r.log.Info("User left room", "username", session.Username, "room", session.Room,
		"members", r.registry.RoomMemberCount(session.Room))
}

func (r *Router) rejectJoin(ctx context.Context, sink contract.EventSink, id domain.ConnectionID, err error) {
	r.stats.IncrRejectedJoins()
	r.log.Info("Join rejected", "connection_id", id, "error", err)
	r.emit(ctx, sink, event.JoinFailed{Code: errors.CodeOf(err), Message: err.Error()})
}

// broadcast delivers an event to every current member of a room except
// the excluded connection. Pass an empty id to include everyone.
func (r *Router) broadcast(ctx context.Context, room string, e event.Outbound, exclude domain.ConnectionID) {
	for _, member := range r.registry.RoomMembers(room) {
		if member.ID == exclude {
			continue
		}
		sink, ok := r.sinks[member.ID]
		if !ok {
			continue
		}
		r.emit(ctx, sink, e)
	}
}

func (r *Router) broadcastRoomUsers(ctx context.Context, room string, exclude domain.ConnectionID) {
	members := r.registry.RoomMembers(room)
	users := lo.Map(members, func(s domain.Session, _ int) event.RoomUser {
		return event.RoomUser{Username: s.Username}
	})
	r.broadcast(ctx, room, event.RoomUsers{Room: room, Users: users}, exclude)
}

// emit is fire-and-forget: a sink that cannot accept the event within
// the timeout loses it, and the transport is responsible for the
// connection's fate.
func (r *Router) emit(ctx context.Context, sink contract.EventSink, e event.Outbound) {
	sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()

	if err := sink.Consume(sinkCtx, e); err != nil {
		r.stats.IncrDroppedDeliveries()
		r.log.Warn(fmt.Sprintf("Delivery failed for event %s", e.Name()), "error", err)
	}
}
