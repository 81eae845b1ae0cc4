package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/codeduel/platform/internal/rank"
)

// ErrNotFound is returned when no profile exists for a user.
var ErrNotFound = errors.New("profile not found")

// ErrAccountNotFound is returned when the owning user account is missing.
var ErrAccountNotFound = errors.New("user account not found")

const (
	DefaultUsername          = "Coder"
	DefaultFullName          = "Anonymous User"
	DefaultBio               = "Ready to code!"
	DefaultPreferredLanguage = "C++"
	DefaultProfilePic        = "https://via.placeholder.com/150"
)

// Profile is the public and statistical record of a user.
type Profile struct {
	UserID            uuid.UUID `json:"userId"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName"`
	College           string    `json:"college"`
	Bio               string    `json:"bio"`
	PreferredLanguage string    `json:"preferredLanguage"`
	GitHub            string    `json:"github"`
	ProfilePic        string    `json:"profilePic"`
	Stats             Stats     `json:"stats"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Stats holds the points and rank fields only the game engine may write.
type Stats struct {
	Level           int       `json:"level"`
	Points          int       `json:"points"`
	RankedPoints    int       `json:"rankedPoints"`
	QuestionsSolved int       `json:"questionsSolved"`
	Streak          int       `json:"streak"`
	Rank            rank.Rank `json:"rank"`
}

// Details are the user-editable profile fields. Empty values are left unchanged.
type Details struct {
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	College           string `json:"college"`
	Bio               string `json:"bio"`
	PreferredLanguage string `json:"preferredLanguage"`
	GitHub            string `json:"github"`
	ProfilePic        string `json:"profilePic"`
}

// Empty reports whether no field is set.
func (d Details) Empty() bool {
	return d == Details{}
}

// Account is the subset of the user account used to seed a profile.
type Account struct {
	Name       string
	ProfilePic string
}

// New builds a default profile for an account.
func New(userID uuid.UUID, acct Account) *Profile {
	p := &Profile{
		UserID:            userID,
		Username:          DefaultUsername,
		FullName:          DefaultFullName,
		Bio:               DefaultBio,
		PreferredLanguage: DefaultPreferredLanguage,
		ProfilePic:        DefaultProfilePic,
		Stats: Stats{
			Level: 1,
			Rank:  rank.Default,
		},
	}
	if acct.Name != "" {
		p.Username = acct.Name
		p.FullName = acct.Name
	}
	if acct.ProfilePic != "" {
		p.ProfilePic = acct.ProfilePic
	}
	return p
}

// RecomputeRank refreshes the stored rank from ranked points.
func (p *Profile) RecomputeRank() rank.Rank {
	p.Stats.Rank = rank.Compute(p.Stats.RankedPoints)
	return p.Stats.Rank
}

// Public is the opponent-facing view used in match payloads.
type Public struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Rank     rank.Rank `json:"rank"`
	Points   int       `json:"points"`
}
