package match

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/codeduel/platform/internal/rank"
)

var (
	ErrInvalidMode      = errors.New("invalid match mode")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNotWaiting   = errors.New("room not accepting players")
	ErrIdentityMismatch = errors.New("payload user does not match the connection")
)

// RoomStatus moves forward only: waiting -> active -> finished.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusActive   RoomStatus = "active"
	RoomStatusFinished RoomStatus = "finished"
)

// Session identifies the connection an event arrived on.
type Session struct {
	ConnID   string
	UserID   uuid.UUID
	Username string
}

// Participant is a player seated in a room.
type Participant struct {
	ConnID   string
	UserID   uuid.UUID
	Username string
	Rank     rank.Rank
	Points   int
}

// Room is the authoritative record of a pairing.
type Room struct {
	ID           string
	Participants []Participant
	Status       RoomStatus
	Ranked       bool
	ProblemID    string
	WinnerID     uuid.UUID
	CreatedAt    time.Time
}

func (r *Room) hasUser(userID uuid.UUID) bool {
	return r.indexOfUser(userID) >= 0
}

func (r *Room) indexOfUser(userID uuid.UUID) int {
	for i, p := range r.Participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) indexOfConn(connID string) int {
	for i, p := range r.Participants {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

// snapshot copies the room so it can be read after the lock is released.
func (r *Room) snapshot() Room {
	c := *r
	c.Participants = append([]Participant(nil), r.Participants...)
	return c
}
