package generate

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
	"github.com/studykit/studykit/internal/mcq"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
)

// maxPDFBytes caps uploaded PDF size.
const maxPDFBytes = 16 << 20

// HTTPHandler exposes REST endpoints for MCQ generation and history.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a generation HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "generate_http").Logger(),
	}
}

type generatePayload struct {
	SourceType   string `json:"source_type"`
	Text         string `json:"text"`
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	Title        string `json:"title"`
}

// HandleGenerate responds to POST /v1/mcq/generate. The body is either
// JSON or, for PDF uploads, multipart form data with a pdf_file part.
func (h *HTTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	req, ok := h.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	questions, err := h.svc.Generate(r.Context(), auth.UserIDFromContext(r.Context()), req)
	switch {
	case errors.Is(err, ErrEmptySource):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeEmptySource, "Provide text, a topic, or a PDF file")
		return
	case errors.Is(err, ErrNoQuestions):
		httperrors.RespondBadGateway(w, httperrors.ErrCodeGenerationFailed, "Could not generate questions from the given source")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("generation failed")
		httperrors.RespondBadGateway(w, httperrors.ErrCodeUpstreamError, "Question generation is temporarily unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mcqs":  questions,
		"count": len(questions),
	})
}

// HandleHistory responds to GET /v1/mcq/history with the caller's
// generation history.
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

	sets, err := h.svc.History(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("history lookup failed")
		httperrors.RespondInternalError(w, "Could not load history")
		return
	}

	history := make([]map[string]interface{}, 0, len(sets))
	for _, s := range sets {
		history = append(history, setSummary(s))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// HandleSet responds to GET /v1/mcq/sets/{id} with one stored set.
func (h *HTTPHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/v1/mcq/sets/")
	setID, err := uuid.Parse(strings.TrimSuffix(rawID, "/"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid set id")
		return
	}

	set, questions, err := h.svc.Set(r.Context(), setID, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Set not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("set lookup failed")
		httperrors.RespondInternalError(w, "Could not load set")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"set":  setSummary(set),
		"mcqs": questions,
	})
}

// decodeGenerateRequest parses either encoding into a Request,
// extracting PDF text inline so the service never sees raw uploads.
func (h *HTTPHandler) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var payload generatePayload

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxPDFBytes); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid multipart form")
			return Request{}, false
		}
		payload.SourceType = r.FormValue("source_type")
		payload.Text = r.FormValue("text")
		payload.Topic = r.FormValue("topic")
		payload.Difficulty = r.FormValue("difficulty")
		payload.Title = r.FormValue("title")
		if raw := r.FormValue("num_questions"); raw != "" {
			payload.NumQuestions, _ = strconv.Atoi(raw)
		}

		if payload.SourceType == mcq.SourcePDF {
			file, _, err := r.FormFile("pdf_file")
			if err != nil {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "pdf_file is required for PDF generation")
				return Request{}, false
			}
			defer file.Close()

			text, err := ExtractPDFText(file)
			if err != nil {
				h.logger.Warn().Err(err).Msg("pdf extraction failed")
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPDF, "Could not extract text from PDF")
				return Request{}, false
			}
			payload.Text = text
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return Request{}, false
		}
	}

	if payload.SourceType == "" {
		payload.SourceType = mcq.SourceText
	}

	return Request{
		SourceType:   payload.SourceType,
		Text:         payload.Text,
		Topic:        payload.Topic,
		NumQuestions: payload.NumQuestions,
		Difficulty:   payload.Difficulty,
		Title:        payload.Title,
	}, true
}

func setSummary(s repository.MCQSet) map[string]interface{} {
	return map[string]interface{}{
		"set_id":      s.SetID,
		"title":       s.Title,
		"source_type": s.SourceType,
		"difficulty":  s.Difficulty,
		"created_at":  s.CreatedAt,
		"mcq_count":   s.MCQCount,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
