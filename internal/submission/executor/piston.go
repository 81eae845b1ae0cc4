// Package executor runs source code in the remote Piston sandbox.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultURL = "https://emkc.org/api/v2/piston/execute"

var languageVersions = map[string]string{
	"cpp":        "10.2.0",
	"python":     "3.10.0",
	"java":       "15.0.2",
	"javascript": "18.15.0",
}

// NormalizeLanguage lower-cases a language name and maps aliases.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "c++" {
		return "cpp"
	}
	return lang
}

// Version returns the pinned runtime version for a language, or "*".
func Version(lang string) string {
	if v, ok := languageVersions[lang]; ok {
		return v
	}
	return "*"
}

// Result is the run stage outcome.
type Result struct {
	ExitCode int    `json:"code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Output   string `json:"output"`
}

// Client talks to the Piston execute endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a Piston client; an empty url uses the public endpoint.
func NewClient(url string, timeout time.Duration, logger zerolog.Logger) *Client {
	if url == "" {
		url = defaultURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "executor").Logger(),
	}
}

// Execute runs source in language and returns the run stage result.
// A compile failure is reported through Stderr.
func (c *Client) Execute(ctx context.Context, language, source string) (*Result, error) {
	body, err := json.Marshal(executeRequest{
		Language: language,
		Version:  Version(language),
		Files:    []file{{Content: source}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&msg)
		return nil, fmt.Errorf("executor returned status %d: %s", resp.StatusCode, msg.Message)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode executor payload: %w", err)
	}

	if out.Compile != nil && out.Compile.ExitCode != 0 && out.Run.Stderr == "" {
		out.Run.Stderr = out.Compile.Stderr
		if out.Run.Stderr == "" {
			out.Run.Stderr = out.Compile.Output
		}
	}

	c.logger.Debug().
		Str("language", language).
		Int("exit_code", out.Run.ExitCode).
		Bool("stderr", out.Run.Stderr != "").
		Msg("execution finished")

	return &out.Run, nil
}

type file struct {
	Content string `json:"content"`
}

type executeRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []file `json:"files"`
}

type executeResponse struct {
	Run     Result  `json:"run"`
	Compile *Result `json:"compile,omitempty"`
}
