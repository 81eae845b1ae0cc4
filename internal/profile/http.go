package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth/jwt"
	httperrors "github.com/codeduel/platform/pkg/http/errors"
)

// HTTPHandler serves /v1/profile/me.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandler creates the profile endpoint handler.
func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// Me handles GET and PUT /v1/profile/me.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := h.service.GetOrCreate(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User account not found")
				return
			}
			h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("get profile failed")
			httperrors.RespondInternalError(w, "Server Error")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": p})

	case http.MethodPut:
		var d Details
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
		p, err := h.service.Update(r.Context(), claims.UserID, d)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				httperrors.RespondNotFound(w, httperrors.ErrCodeProfileNotFound, "Profile not found")
				return
			}
			h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("update profile failed")
			httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeProfileUpdateFailed, "Server Error")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Profile updated successfully",
			"data":    p,
		})

	default:
		httperrors.RespondMethodNotAllowed(w)
	}
}
