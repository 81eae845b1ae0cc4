package leaderboard

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/codeduel/platform/pkg/http/errors"
)

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc          *Service
	defaultLimit int
	logger       zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, defaultLimit int, logger zerolog.Logger) *HTTPHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &HTTPHandler{
		svc:          svc,
		defaultLimit: defaultLimit,
		logger:       logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the ranked leaderboard.
// Route: GET /v1/leaderboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), h.defaultLimit)
	top, err := h.svc.Top(r.Context(), limit)
	if err != nil {
		h.logger.Warn().Err(err).Msg("redis leaderboard fetch failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeLeaderboardFetchFailed, "Leaderboard unavailable")
		return
	}
	if top == nil {
		top = []Entry{}
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"top":         top,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
