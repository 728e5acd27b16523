package runtime

import (
	"log/slog"
	"sort"
	"sync"
	"unicode/utf8"

	"roomcast/contract"
	"roomcast/domain"
	"roomcast/errors"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the authoritative in-memory directory of active sessions.
// It owns the session set and the derived room membership index; both
// are always updated within the same critical section so no caller can
// observe a partially-joined state.
//
// The router serializes all mutations, but the debug endpoint and the
// telemetry worker read concurrently, hence the RWMutex.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sessions    map[domain.ConnectionID]domain.Session
	roomMembers map[string][]domain.ConnectionID // join order per room
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:         log,
		sessions:    make(map[domain.ConnectionID]domain.Session),
		roomMembers: make(map[string][]domain.ConnectionID),
	}
}

// Join inserts a new session and adds it to the room's member set as a
// single atomic step. Uniqueness is re-checked here even though the
// validation collaborator runs first: the check-and-insert is the
// registry's own invariant.
func (r *Registry) Join(id domain.ConnectionID, username, room string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return domain.Session{}, errors.ErrAlreadyJoined
	}
	if !usernameLengthOK(username) || !roomLengthOK(room) {
		return domain.Session{}, errors.ErrInvalidInput
	}

	normalized := domain.NormalizeUsername(username)
	for _, memberID := range r.roomMembers[room] {
		if domain.NormalizeUsername(r.sessions[memberID].Username) == normalized {
			return domain.Session{}, errors.ErrUsernameTaken
		}
	}

	session := domain.Session{ID: id, Username: username, Room: room}
	r.sessions[id] = session
	r.roomMembers[room] = append(r.roomMembers[room], id)

	r.log.Debug("Session joined", "connection_id", id, "username", username, "room", room)
	return session, nil
}

// Leave removes the session if present and drops the room from the
// index once its last member is gone. Unknown ids are a no-op because
// disconnects may race with other state changes.
func (r *Registry) Leave(id domain.ConnectionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, id)

	members := r.roomMembers[session.Room]
	for i, memberID := range members {
		if memberID == id {
			r.roomMembers[session.Room] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(r.roomMembers[session.Room]) == 0 {
		delete(r.roomMembers, session.Room)
	}

	r.log.Debug("Session left", "connection_id", id, "username", session.Username, "room", session.Room)
	return session, true
}

func (r *Registry) GetByID(id domain.ConnectionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

// RoomMembers returns the sessions of a room in join order. The result
// is a snapshot: later mutations are not reflected in it.
func (r *Registry) RoomMembers(room string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	members := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		members = append(members, r.sessions[id])
	}
	return members
}

func (r *Registry) RoomMemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.roomMembers[room])
}

// IsUsernameAvailable lets validators pre-check a name without side
// effects. The comparison is case-insensitive and scoped to one room.
func (r *Registry) IsUsernameAvailable(room, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := domain.NormalizeUsername(username)
	for _, memberID := range r.roomMembers[room] {
		if domain.NormalizeUsername(r.sessions[memberID].Username) == normalized {
			return false
		}
	}
	return true
}

// ActiveRooms lists rooms with at least one member, sorted for stable output.
func (r *Registry) ActiveRooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.roomMembers))
	for room := range r.roomMembers {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

func usernameLengthOK(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= 2 && n <= 20
}

func roomLengthOK(room string) bool {
	n := utf8.RuneCountInString(room)
	return n >= 1 && n <= 50
}
