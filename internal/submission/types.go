package submission

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/codeduel/platform/internal/rank"
)

var ErrMissingFields = errors.New("missing fields")

// Verdict is the judged outcome of a submission.
type Verdict string

const (
	Accepted     Verdict = "Accepted"
	WrongAnswer  Verdict = "Wrong Answer"
	RuntimeError Verdict = "Runtime Error"
)

// FirstSolvePoints are the casual points granted on a problem's first solve.
const FirstSolvePoints = 10

// Solve is one accepted problem in a user's history.
type Solve struct {
	ProblemID int       `json:"problemId"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	SolvedAt  time.Time `json:"solvedAt"`
}

// ProblemID accepts both JSON numbers and numeric strings.
type ProblemID int

func (p *ProblemID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*p = ProblemID(n)
	return nil
}

// Request is the body of POST /v1/submit.
type Request struct {
	ProblemID ProblemID `json:"problemId"`
	UserCode  string    `json:"userCode"`
	Language  string    `json:"language"`
}

// Result is returned to the submitter.
type Result struct {
	Success       bool       `json:"success"`
	Status        Verdict    `json:"status"`
	Output        string     `json:"output"`
	PointsAwarded int        `json:"pointsAwarded"`
	NewRank       *rank.Rank `json:"newRank,omitempty"`
}
