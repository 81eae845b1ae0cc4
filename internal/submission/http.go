package submission

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth/jwt"
	"github.com/codeduel/platform/internal/problem"
	httperrors "github.com/codeduel/platform/pkg/http/errors"
)

// HTTPHandler serves the submission endpoints.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// Submit handles POST /v1/submit.
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	claims, ok := jwt.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	result, err := h.service.Submit(r.Context(), claims.UserID, req)
	switch {
	case err == nil:
		httperrors.RespondJSON(w, http.StatusOK, result)
	case errors.Is(err, ErrMissingFields):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Missing fields")
	case errors.Is(err, problem.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeProblemNotFound, "Problem not found")
	default:
		h.logger.Error().Err(err).
			Str("user_id", claims.UserID.String()).
			Int("problem_id", int(req.ProblemID)).
			Msg("submission failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSubmitFailed, "Execution Failed")
	}
}

// Solved handles GET /v1/solved-problems/me.
func (h *HTTPHandler) Solved(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	claims, ok := jwt.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	solves, err := h.service.Solved(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("list solved problems failed")
		httperrors.RespondInternalError(w, "Server Error")
		return
	}
	if solves == nil {
		solves = []Solve{}
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": solves})
}
