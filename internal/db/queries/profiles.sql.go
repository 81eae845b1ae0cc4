package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const profileColumns = `user_id, username, full_name, college, bio, preferred_language, github, profile_pic,
	level, points, ranked_points, questions_solved, streak, rank, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.UserID,
		&i.Username,
		&i.FullName,
		&i.College,
		&i.Bio,
		&i.PreferredLanguage,
		&i.Github,
		&i.ProfilePic,
		&i.Level,
		&i.Points,
		&i.RankedPoints,
		&i.QuestionsSolved,
		&i.Streak,
		&i.Rank,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProfile = `-- name: GetProfile :one
SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

func (q *Queries) GetProfile(ctx context.Context, userID pgtype.UUID) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfile, userID))
}

const getProfileForUpdate = `-- name: GetProfileForUpdate :one
SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 FOR UPDATE`

func (q *Queries) GetProfileForUpdate(ctx context.Context, userID pgtype.UUID) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfileForUpdate, userID))
}

const createProfile = `-- name: CreateProfile :one
INSERT INTO profiles (user_id, username, full_name, college, bio, preferred_language, github, profile_pic,
	level, points, ranked_points, questions_solved, streak, rank)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (user_id) DO NOTHING
RETURNING ` + profileColumns

type CreateProfileParams struct {
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
}

// CreateProfile returns pgx.ErrNoRows when a profile already exists.
func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, createProfile,
		arg.UserID,
		arg.Username,
		arg.FullName,
		arg.College,
		arg.Bio,
		arg.PreferredLanguage,
		arg.Github,
		arg.ProfilePic,
		arg.Level,
		arg.Points,
		arg.RankedPoints,
		arg.QuestionsSolved,
		arg.Streak,
		arg.Rank,
	))
}

const updateProfileDetails = `-- name: UpdateProfileDetails :one
UPDATE profiles SET
	username = COALESCE(NULLIF($2::text, ''), username),
	full_name = COALESCE(NULLIF($3::text, ''), full_name),
	college = COALESCE(NULLIF($4::text, ''), college),
	bio = COALESCE(NULLIF($5::text, ''), bio),
	preferred_language = COALESCE(NULLIF($6::text, ''), preferred_language),
	github = COALESCE(NULLIF($7::text, ''), github),
	profile_pic = COALESCE(NULLIF($8::text, ''), profile_pic),
	updated_at = NOW()
WHERE user_id = $1
RETURNING ` + profileColumns

type UpdateProfileDetailsParams struct {
	UserID            pgtype.UUID
	Username          string
	FullName          string
	College           string
	Bio               string
	PreferredLanguage string
	Github            string
	ProfilePic        string
}

func (q *Queries) UpdateProfileDetails(ctx context.Context, arg UpdateProfileDetailsParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateProfileDetails,
		arg.UserID,
		arg.Username,
		arg.FullName,
		arg.College,
		arg.Bio,
		arg.PreferredLanguage,
		arg.Github,
		arg.ProfilePic,
	))
}

const updateProfileStats = `-- name: UpdateProfileStats :one
UPDATE profiles SET
	level = $2,
	points = $3,
	ranked_points = $4,
	questions_solved = $5,
	streak = $6,
	rank = $7,
	updated_at = NOW()
WHERE user_id = $1
RETURNING ` + profileColumns

type UpdateProfileStatsParams struct {
	UserID          pgtype.UUID
	Level           int32
	Points          int32
	RankedPoints    int32
	QuestionsSolved int32
	Streak          int32
	Rank            string
}

func (q *Queries) UpdateProfileStats(ctx context.Context, arg UpdateProfileStatsParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateProfileStats,
		arg.UserID,
		arg.Level,
		arg.Points,
		arg.RankedPoints,
		arg.QuestionsSolved,
		arg.Streak,
		arg.Rank,
	))
}
