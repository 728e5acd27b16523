//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"roomcast/domain"
	"roomcast/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound half of one connection. Delivery is
// fire-and-forget from the router's perspective; a sink that cannot keep
// up reports an error and the transport deals with it.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// IRegistry is the authoritative in-memory directory of active sessions.
type IRegistry interface {
	Join(id domain.ConnectionID, username, room string) (domain.Session, error)
	Leave(id domain.ConnectionID) (domain.Session, bool)
	GetByID(id domain.ConnectionID) (domain.Session, bool)
	RoomMembers(room string) []domain.Session
	RoomMemberCount(room string) int
	IsUsernameAvailable(room, username string) bool
	ActiveRooms() []string
}

// Dispatcher is how the transport hands inbound events to the router.
type Dispatcher interface {
	Connect(id domain.ConnectionID, sink EventSink)
	Dispatch(cmd domain.Command)
}
