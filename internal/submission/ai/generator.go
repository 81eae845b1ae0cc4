// Package ai builds runnable driver programs around user code with an LLM.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/codeduel/platform/internal/problem"
)

var (
	ErrNotConfigured = errors.New("driver generator not configured")
	ErrRateLimited   = errors.New("driver generator rate limited")
	ErrEmptyOutput   = errors.New("driver generator returned no code")
)

// Config holds connection details for the chat-completions endpoint.
type Config struct {
	URL         string
	Key         string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Generator implements the driver generation step of a submission.
type Generator struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}

	return &Generator{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "driver_generator").Logger(),
	}
}

// Generate returns a complete program in language that runs userCode against
// testCases and prints "Accepted" when every case passes. Only rate-limit
// responses are retried.
func (g *Generator) Generate(ctx context.Context, language, userCode string, testCases []problem.TestCase) (string, error) {
	if g.config.URL == "" || g.config.Key == "" {
		return "", ErrNotConfigured
	}

	body, err := g.buildRequest(language, userCode, testCases)
	if err != nil {
		return "", err
	}

	backoff := retry.WithMaxRetries(uint64(g.config.MaxAttempts-1), retry.NewConstant(g.config.RetryDelay))

	var code string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		text, err := g.complete(ctx, body)
		if err != nil {
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("driver generation attempt failed")
			if errors.Is(err, ErrRateLimited) {
				return retry.RetryableError(err)
			}
			return err
		}
		code = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate driver code: %w", err)
	}

	return Clean(language, code), nil
}

func (g *Generator) complete(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.config.Key)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generator payload: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyOutput
	}
	return out.Choices[0].Message.Content, nil
}

func (g *Generator) buildRequest(language, userCode string, testCases []problem.TestCase) ([]byte, error) {
	cases, err := json.Marshal(testCases)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a coding engine. Write only executable code."},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, language, userCode, cases)},
		},
		Temperature: 0.1,
	})
}

const promptTemplate = `Produce one complete %[1]s source file that embeds the user's solution and runs it against the test cases below.

USER CODE:
%[2]s

TEST CASES (JSON):
%[3]s

Rules:
1. Insert the user code verbatim before the entry point. Do not modify it.
2. Decode the test inputs yourself and emit them as literals; the program must not parse strings at runtime.
3. When the function takes several arguments, emit one literal collection per argument.
4. Use only the standard library.
5. For C++ include "using namespace std;".
6. Print "Accepted" if every case passes. Otherwise print "Wrong Answer" and exit with status 0. Print nothing else.

Return raw code with no markdown.`

var fencePattern = regexp.MustCompile("(?i)```[a-z+]*\\n?")

// Clean strips markdown fences and makes sure C++ output has the headers
// and using-directive the runner expects.
func Clean(language, text string) string {
	text = fencePattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if language == "cpp" {
		if !strings.Contains(text, "#include <iostream>") {
			text = "#include <iostream>\n" + text
		}
		if !strings.Contains(text, "#include <vector>") {
			text = "#include <vector>\n" + text
		}
		if !strings.Contains(text, "using namespace std;") {
			text = afterIncludes(text, "using namespace std;")
		}
	}
	return text
}

// afterIncludes inserts line below the last #include directive.
func afterIncludes(text, line string) string {
	lines := strings.Split(text, "\n")
	last := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#include") {
			last = i
		}
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:last+1]...)
	out = append(out, line)
	out = append(out, lines[last+1:]...)
	return strings.Join(out, "\n")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
