package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/codeduel/platform/internal/rank"
)

// Mode selects the waiting pool.
type Mode string

const (
	Ranked Mode = "ranked"
	Casual Mode = "casual"
)

// Modes lists every pool.
var Modes = []Mode{Ranked, Casual}

// ParseMode validates a client supplied mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case Ranked, Casual:
		return Mode(s), true
	}
	return "", false
}

// SearchingParticipant is a queued player. Its rank and points are the
// snapshot taken when the search started.
type SearchingParticipant struct {
	ConnID   string
	UserID   uuid.UUID
	Username string
	Rank     rank.Rank
	Points   int
	QueuedAt time.Time
}

// Manager holds the ranked and casual pools in insertion order. It does no
// locking of its own; the owner serializes access.
type Manager struct {
	pools map[Mode][]*SearchingParticipant
}

// NewManager creates empty pools.
func NewManager() *Manager {
	return &Manager{
		pools: map[Mode][]*SearchingParticipant{
			Ranked: nil,
			Casual: nil,
		},
	}
}

// Contains reports whether the user is waiting in any pool.
func (m *Manager) Contains(userID uuid.UUID) bool {
	for _, pool := range m.pools {
		for _, p := range pool {
			if p.UserID == userID {
				return true
			}
		}
	}
	return false
}

// TakeOpponent removes and returns the first compatible waiting participant,
// or nil when nobody fits. Ranked pairs need the same tier; casual is FIFO.
func (m *Manager) TakeOpponent(p SearchingParticipant, mode Mode) *SearchingParticipant {
	pool := m.pools[mode]
	for i, other := range pool {
		if other.UserID == p.UserID {
			continue
		}
		if mode == Ranked && !rank.SameTier(other.Rank, p.Rank) {
			continue
		}
		m.pools[mode] = append(pool[:i:i], pool[i+1:]...)
		return other
	}
	return nil
}

// Enqueue appends p to the tail of the pool. It returns false when the user
// is already waiting in either pool.
func (m *Manager) Enqueue(p SearchingParticipant, mode Mode) bool {
	if m.Contains(p.UserID) {
		return false
	}
	if p.QueuedAt.IsZero() {
		p.QueuedAt = time.Now()
	}
	m.pools[mode] = append(m.pools[mode], &p)
	return true
}

// RemoveConnection drops every entry owned by connID and returns how many were removed.
func (m *Manager) RemoveConnection(connID string) int {
	removed := 0
	for mode, pool := range m.pools {
		kept := pool[:0]
		for _, p := range pool {
			if p.ConnID == connID {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		for i := len(kept); i < len(pool); i++ {
			pool[i] = nil
		}
		m.pools[mode] = kept
	}
	return removed
}

// Len returns the number of waiting participants in a pool.
func (m *Manager) Len(mode Mode) int {
	return len(m.pools[mode])
}

// Position returns the zero-based position of a user in a pool, or -1.
func (m *Manager) Position(userID uuid.UUID, mode Mode) int {
	for i, p := range m.pools[mode] {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}
