package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/auth"
	"github.com/studykit/studykit/internal/generate"
	"github.com/studykit/studykit/internal/mcq"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
)

// CreateLimits bounds test creation parameters.
type CreateLimits struct {
	DefaultQuestionCount int
	DefaultTimeMinutes   int
	MaxQuestions         int
}

// HTTPHandler exposes test creation, spec retrieval, and the direct
// HTTP submit path.
type HTTPHandler struct {
	specs     *SpecStore
	generator *generate.Service
	submitter Submitter
	limits    CreateLimits
	logger    zerolog.Logger
}

// NewHTTPHandler constructs the test HTTP handler.
func NewHTTPHandler(specs *SpecStore, generator *generate.Service, submitter Submitter, limits CreateLimits, logger zerolog.Logger) *HTTPHandler {
	if limits.DefaultQuestionCount <= 0 {
		limits.DefaultQuestionCount = 5
	}
	if limits.DefaultTimeMinutes <= 0 {
		limits.DefaultTimeMinutes = 10
	}
	if limits.MaxQuestions <= 0 {
		limits.MaxQuestions = 30
	}
	return &HTTPHandler{
		specs:     specs,
		generator: generator,
		submitter: submitter,
		limits:    limits,
		logger:    logger.With().Str("component", "test_http").Logger(),
	}
}

type createTestPayload struct {
	Title           string         `json:"title"`
	SourceType      string         `json:"source_type"`
	Text            string         `json:"text"`
	Topic           string         `json:"topic"`
	NumQuestions    int            `json:"num_questions"`
	Difficulty      string         `json:"difficulty"`
	TimeMinutes     int            `json:"time_duration"`
	Questions       []mcq.Question `json:"questions"`
}

// HandleCreate responds to POST /v1/tests. Questions come either
// pre-built in the payload (e.g. from a stored set) or are generated
// from the given source. The finished spec is frozen in the spec store
// and echoed back, answer keys included.
func (h *HTTPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	payload, ok := h.decodeCreatePayload(w, r)
	if !ok {
		return
	}

	questions := payload.Questions
	if len(questions) == 0 {
		var err error
		questions, err = h.generator.Generate(r.Context(), auth.UserIDFromContext(r.Context()), generate.Request{
			SourceType:   payload.SourceType,
			Text:         payload.Text,
			Topic:        payload.Topic,
			NumQuestions: payload.NumQuestions,
			Difficulty:   payload.Difficulty,
			Title:        payload.Title,
		})
		switch {
		case errors.Is(err, generate.ErrEmptySource):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeEmptySource, "Provide questions, text, a topic, or a PDF file")
			return
		case errors.Is(err, generate.ErrNoQuestions):
			httperrors.RespondBadGateway(w, httperrors.ErrCodeGenerationFailed, "Could not generate questions from the given source")
			return
		case err != nil:
			h.logger.Error().Err(err).Msg("test generation failed")
			httperrors.RespondBadGateway(w, httperrors.ErrCodeTestCreationFailed, "Test creation is temporarily unavailable")
			return
		}
	}

	if len(questions) > h.limits.MaxQuestions {
		questions = questions[:h.limits.MaxQuestions]
	}

	minutes := payload.TimeMinutes
	if minutes <= 0 {
		minutes = h.limits.DefaultTimeMinutes
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = "Practice test"
	}
	difficulty := payload.Difficulty
	if !mcq.ValidDifficulty(difficulty) {
		difficulty = mcq.DifficultyMedium
	}

	spec := mcq.TestSpec{
		ID:                uuid.NewString(),
		Title:             title,
		Difficulty:        difficulty,
		TimeBudgetSeconds: minutes * 60,
		Questions:         questions,
	}

	if err := h.specs.Put(r.Context(), spec); err != nil {
		h.logger.Error().Err(err).Str("spec_id", spec.ID).Msg("spec store write failed")
		httperrors.RespondInternalError(w, "Could not create test")
		return
	}

	respondJSON(w, http.StatusCreated, spec)
}

// HandleGetSpec responds to GET /v1/tests/specs/{id} with a frozen
// spec, for clients resuming the pre-attempt screen.
func (h *HTTPHandler) HandleGetSpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/tests/specs/"), "/")
	if id == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Spec id required")
		return
	}

	spec, err := h.specs.Get(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("spec_id", id).Msg("spec store read failed")
		httperrors.RespondInternalError(w, "Could not load test")
		return
	}
	if spec == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSpecNotFound, "Test not found or expired")
		return
	}

	respondJSON(w, http.StatusOK, spec)
}

// HandleSubmit responds to POST /v1/tests/submit: the direct HTTP
// scoring path used by clients that run the timer themselves. It goes
// through the same Submitter as timed attempts.
func (h *HTTPHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	res, err := h.submitter.Submit(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("http submission failed")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSubmitFailed, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) decodeCreatePayload(w http.ResponseWriter, r *http.Request) (createTestPayload, bool) {
	var payload createTestPayload

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid multipart form")
			return createTestPayload{}, false
		}
		payload.Title = r.FormValue("title")
		payload.SourceType = r.FormValue("source_type")
		payload.Text = r.FormValue("source_text")
		payload.Topic = r.FormValue("topic")
		payload.Difficulty = r.FormValue("difficulty")
		payload.NumQuestions = atoiDefault(r.FormValue("num_questions"), 0)
		payload.TimeMinutes = atoiDefault(r.FormValue("time_duration"), 0)

		if payload.SourceType == mcq.SourcePDF {
			file, _, err := r.FormFile("pdf_file")
			if err != nil {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "pdf_file is required for PDF tests")
				return createTestPayload{}, false
			}
			defer file.Close()

			text, err := generate.ExtractPDFText(file)
			if err != nil {
				h.logger.Warn().Err(err).Msg("pdf extraction failed")
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPDF, "Could not extract text from PDF")
				return createTestPayload{}, false
			}
			payload.Text = text
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return createTestPayload{}, false
		}
	}

	if payload.NumQuestions <= 0 {
		payload.NumQuestions = h.limits.DefaultQuestionCount
	}
	return payload, true
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
