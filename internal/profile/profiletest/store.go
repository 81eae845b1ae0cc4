// Package profiletest provides an in-memory profile store for tests.
package profiletest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/codeduel/platform/internal/profile"
)

// Store is a goroutine-safe in-memory profile.Store.
type Store struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
	updates  map[uuid.UUID]int

	// GetErr and UpdateErr, when set, are returned by Get and UpdateStats.
	GetErr    error
	UpdateErr error
}

// NewStore returns a Store seeded with the given profiles.
func NewStore(seed ...*profile.Profile) *Store {
	s := &Store{
		profiles: make(map[uuid.UUID]profile.Profile),
		updates:  make(map[uuid.UUID]int),
	}
	for _, p := range seed {
		s.Put(p)
	}
	return s
}

// Put stores a copy of p.
func (s *Store) Put(p *profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = *p
}

// Delete removes a stored profile.
func (s *Store) Delete(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
}

// Snapshot returns a copy of the stored profile.
func (s *Store) Snapshot(userID uuid.UUID) (profile.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// Updates reports how many stat writes hit a user.
func (s *Store) Updates(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[userID]
}

func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (s *Store) Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		return &existing, nil
	}
	s.profiles[p.UserID] = *p
	out := *p
	return &out, nil
}

func (s *Store) UpdateDetails(ctx context.Context, userID uuid.UUID, d profile.Details) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Username, d.Username)
	set(&p.FullName, d.FullName)
	set(&p.College, d.College)
	set(&p.Bio, d.Bio)
	set(&p.PreferredLanguage, d.PreferredLanguage)
	set(&p.GitHub, d.GitHub)
	set(&p.ProfilePic, d.ProfilePic)
	s.profiles[userID] = p
	return &p, nil
}

func (s *Store) UpdateStats(ctx context.Context, userID uuid.UUID, fn func(*profile.Profile) error) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	s.profiles[userID] = p
	s.updates[userID]++
	return &p, nil
}

func (s *Store) UpdateStatsPair(ctx context.Context, first, second uuid.UUID, fn func(first, second *profile.Profile) error) (*profile.Profile, *profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return nil, nil, s.UpdateErr
	}
	a, okA := s.profiles[first]
	b, okB := s.profiles[second]
	if !okA || !okB {
		return nil, nil, profile.ErrNotFound
	}
	if err := fn(&a, &b); err != nil {
		return nil, nil, err
	}
	s.profiles[first] = a
	s.profiles[second] = b
	s.updates[first]++
	s.updates[second]++
	return &a, &b, nil
}
