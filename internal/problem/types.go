package problem

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a problem id is unknown.
var ErrNotFound = errors.New("problem not found")

// Difficulty buckets problems for matchmaking.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists every bucket in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// Valid reports whether d is a known bucket.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Example is a worked input/output pair shown to users.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// TestCase is a hidden input with its expected output.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Problem is a coding exercise.
type Problem struct {
	ID                  int               `json:"id"`
	Title               string            `json:"title"`
	Difficulty          Difficulty        `json:"difficulty"`
	Topic               string            `json:"topic"`
	Description         string            `json:"description"`
	Examples            []Example         `json:"examples"`
	Constraints         []string          `json:"constraints"`
	TestCases           []TestCase        `json:"testCases,omitempty"`
	StarterCode         map[string]string `json:"starterCode"`
	DriverCodeTemplates map[string]string `json:"driverCodeTemplates,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
}
