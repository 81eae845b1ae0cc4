package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/problem"
	"github.com/codeduel/platform/internal/profile"
	"github.com/codeduel/platform/internal/submission/executor"
)

// ProblemSource loads a problem with its test cases.
type ProblemSource interface {
	Get(ctx context.Context, id int) (*problem.Problem, error)
}

// DriverGenerator wraps user code into a runnable program.
type DriverGenerator interface {
	Generate(ctx context.Context, language, userCode string, testCases []problem.TestCase) (string, error)
}

// Executor runs a program.
type Executor interface {
	Execute(ctx context.Context, language, source string) (*executor.Result, error)
}

// SolvedStore keeps each user's accepted solutions.
type SolvedStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]Solve, error)
	// Record stores s, replacing code and language of an earlier solve of the
	// same problem. first reports whether the problem was new for the user.
	Record(ctx context.Context, userID uuid.UUID, s Solve) (first bool, err error)
}

// ProfileStats applies stat changes to a profile.
type ProfileStats interface {
	UpdateStats(ctx context.Context, userID uuid.UUID, fn func(*profile.Profile) error) (*profile.Profile, error)
}

// Service judges submissions and records first solves.
type Service struct {
	problems  ProblemSource
	generator DriverGenerator
	executor  Executor
	solved    SolvedStore
	profiles  ProfileStats
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires a submission service. metrics may be nil.
func NewService(problems ProblemSource, generator DriverGenerator, exec Executor, solved SolvedStore, profiles ProfileStats, metrics *Metrics, logger zerolog.Logger) *Service {
	return &Service{
		problems:  problems,
		generator: generator,
		executor:  exec,
		solved:    solved,
		profiles:  profiles,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit generates a driver for the user's code, runs it and judges the output.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	if req.ProblemID == 0 || strings.TrimSpace(req.UserCode) == "" || strings.TrimSpace(req.Language) == "" {
		return nil, ErrMissingFields
	}

	p, err := s.problems.Get(ctx, int(req.ProblemID))
	if err != nil {
		return nil, err
	}

	lang := executor.NormalizeLanguage(req.Language)

	source, err := s.generator.Generate(ctx, lang, req.UserCode, p.TestCases)
	if err != nil {
		return nil, fmt.Errorf("generate driver: %w", err)
	}

	run, err := s.executor.Execute(ctx, lang, source)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	result := judge(run)
	s.metrics.observe(result.Status)
	if result.Status != Accepted {
		return result, nil
	}

	first, err := s.solved.Record(ctx, userID, Solve{
		ProblemID: p.ID,
		Language:  req.Language,
		Code:      req.UserCode,
		SolvedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("record solve: %w", err)
	}

	if !first {
		result.Output = "All Test Cases Passed! (Solution Updated)"
		return result, nil
	}

	result.Output = "All Test Cases Passed!"
	updated, err := s.profiles.UpdateStats(ctx, userID, func(pr *profile.Profile) error {
		pr.Stats.QuestionsSolved++
		pr.Stats.Points += FirstSolvePoints
		pr.RecomputeRank()
		return nil
	})
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			s.logger.Error().Str("user_id", userID.String()).Int("problem_id", p.ID).Msg("profile missing during submission")
			return result, nil
		}
		return nil, fmt.Errorf("award points: %w", err)
	}

	result.PointsAwarded = FirstSolvePoints
	r := updated.Stats.Rank
	result.NewRank = &r

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("problem_id", p.ID).
		Str("rank", r.String()).
		Msg("first solve recorded")
	return result, nil
}

// Solved lists the user's accepted problems.
func (s *Service) Solved(ctx context.Context, userID uuid.UUID) ([]Solve, error) {
	return s.solved.List(ctx, userID)
}

func judge(run *executor.Result) *Result {
	if run.Stderr != "" {
		return &Result{Status: RuntimeError, Output: run.Stderr}
	}
	output := strings.TrimSpace(run.Output)
	if strings.Contains(output, string(Accepted)) {
		return &Result{Success: true, Status: Accepted, Output: output}
	}
	return &Result{Status: WrongAnswer, Output: output}
}
