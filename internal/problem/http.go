package problem

import (
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/codeduel/platform/pkg/http/errors"
)

// HTTPHandler serves the public problem list.
type HTTPHandler struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewHTTPHandler creates the problem list handler.
func NewHTTPHandler(catalog *Catalog, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, logger: logger}
}

// List handles GET /v1/problems.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	list, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list problems failed")
		httperrors.RespondInternalError(w, "Server Error: Unable to fetch problems.")
		return
	}
	if len(list) == 0 {
		httperrors.RespondNotFound(w, httperrors.ErrCodeProblemNotFound, "No problem statements found.")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(list),
		"data":    list,
	})
}
