package match

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	lobbyCodeLength   = 6
	lobbyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RoomRegistry owns every waiting, active and finished room plus the
// connection to room index. It does no locking of its own.
type RoomRegistry struct {
	rooms  map[string]*Room
	byConn map[string]string
	now    func() time.Time
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
		now:    time.Now,
	}
}

// OpenLobby creates a waiting, casual room with a short shareable code.
func (r *RoomRegistry) OpenLobby(host Participant) *Room {
	room := &Room{
		ID:           r.newLobbyCode(),
		Participants: []Participant{host},
		Status:       RoomStatusWaiting,
		CreatedAt:    r.now(),
	}
	r.add(room)
	return room
}

// OpenMatch creates an active room for a matchmade pair.
func (r *RoomRegistry) OpenMatch(first, second Participant, ranked bool) *Room {
	room := &Room{
		ID:           uuid.NewString(),
		Participants: []Participant{first, second},
		Status:       RoomStatusActive,
		Ranked:       ranked,
		CreatedAt:    r.now(),
	}
	r.add(room)
	return room
}

// Seat adds a joiner to a waiting lobby and activates it.
func (r *RoomRegistry) Seat(room *Room, p Participant) {
	room.Participants = append(room.Participants, p)
	room.Status = RoomStatusActive
	r.byConn[p.ConnID] = room.ID
}

// Get returns the room with the given id.
func (r *RoomRegistry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// ByConn resolves the room a connection is attached to.
func (r *RoomRegistry) ByConn(connID string) (*Room, bool) {
	roomID, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	return r.Get(roomID)
}

// Detach removes a connection from the index.
func (r *RoomRegistry) Detach(connID string) {
	delete(r.byConn, connID)
}

// Attached reports how many of the room's participants still have an index entry.
func (r *RoomRegistry) Attached(room *Room) int {
	n := 0
	for _, p := range room.Participants {
		if r.byConn[p.ConnID] == room.ID {
			n++
		}
	}
	return n
}

// Delete removes the room and every index entry pointing at it.
func (r *RoomRegistry) Delete(roomID string) {
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for _, p := range room.Participants {
		if r.byConn[p.ConnID] == roomID {
			delete(r.byConn, p.ConnID)
		}
	}
	delete(r.rooms, roomID)
}

// Len returns the number of rooms.
func (r *RoomRegistry) Len() int {
	return len(r.rooms)
}

func (r *RoomRegistry) add(room *Room) {
	r.rooms[room.ID] = room
	for _, p := range room.Participants {
		r.byConn[p.ConnID] = room.ID
	}
}

func (r *RoomRegistry) newLobbyCode() string {
	var b strings.Builder
	for {
		b.Reset()
		for i := 0; i < lobbyCodeLength; i++ {
			b.WriteByte(lobbyCodeAlphabet[rand.IntN(len(lobbyCodeAlphabet))])
		}
		if _, exists := r.rooms[b.String()]; !exists {
			return b.String()
		}
	}
}
