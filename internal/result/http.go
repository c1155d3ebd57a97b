package result

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/auth"
	"github.com/studykit/studykit/internal/db/repository"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
)

// HTTPHandler exposes result retrieval endpoints.
type HTTPHandler struct {
	assembler *Assembler
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a result HTTP handler.
func NewHTTPHandler(assembler *Assembler, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		assembler: assembler,
		logger:    logger.With().Str("component", "result_http").Logger(),
	}
}

// HandleGet responds to GET /v1/tests/{id} with the full stored
// result. Results are looked up by id alone; the id is the capability.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	rawID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/tests/"), "/")
	testID, err := uuid.Parse(rawID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidTestID, "Invalid test id")
		return
	}

	view, err := h.assembler.Get(r.Context(), testID)
	if errors.Is(err, repository.ErrNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeTestNotFound, "Test not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("test_id", testID.String()).Msg("result lookup failed")
		httperrors.RespondInternalError(w, "Could not load result")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// HandleHistory responds to GET /v1/tests with the caller's test
// history.
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	history, err := h.assembler.History(r.Context(), claims.UserID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("history lookup failed")
		httperrors.RespondInternalError(w, "Could not load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
