package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	UserID       pgtype.UUID
	Name         string
	Email        string
	PasswordHash pgtype.Text
	ProfilePic   string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Profile struct {
	UserID            pgtype.UUID
	Username          string
	FullName          string
	College           string
	Bio               string
	PreferredLanguage string
	Github            string
	ProfilePic        string
	Level             int32
	Points            int32
	RankedPoints      int32
	QuestionsSolved   int32
	Streak            int32
	Rank              string
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

type Problem struct {
	ProblemID           int32
	Title               string
	Difficulty          string
	Topic               string
	Description         string
	Examples            []byte
	Constraints         []string
	TestCases           []byte
	StarterCode         []byte
	DriverCodeTemplates []byte
	CreatedAt           pgtype.Timestamptz
}

type SolvedProblem struct {
	UserID    pgtype.UUID
	Solves    []byte
	UpdatedAt pgtype.Timestamptz
}
