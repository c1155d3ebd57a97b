package summarize

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/generate"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
)

const maxPDFBytes = 16 << 20

// HTTPHandler exposes POST /v1/summary/generate.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a summarization HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "summarize_http").Logger(),
	}
}

type summaryPayload struct {
	SourceType    string `json:"source_type"`
	Text          string `json:"text"`
	SummaryLength string `json:"summary_length"`
}

// HandleGenerate responds to POST /v1/summary/generate. Accepts JSON
// or multipart form data with a pdf_file part.
func (h *HTTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var payload summaryPayload

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxPDFBytes); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid multipart form")
			return
		}
		payload.SourceType = r.FormValue("source_type")
		payload.Text = r.FormValue("text")
		payload.SummaryLength = r.FormValue("summary_length")

		if payload.SourceType == "pdf" {
			file, _, err := r.FormFile("pdf_file")
			if err != nil {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "pdf_file is required for PDF summaries")
				return
			}
			defer file.Close()

			text, err := generate.ExtractPDFText(file)
			if err != nil {
				h.logger.Warn().Err(err).Msg("pdf extraction failed")
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPDF, "Could not extract text from PDF")
				return
			}
			payload.Text = text
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
	}

	if payload.SummaryLength == "" {
		payload.SummaryLength = LengthMedium
	}

	summary, err := h.svc.Summarize(r.Context(), payload.Text, payload.SummaryLength)
	switch {
	case errors.Is(err, ErrEmptySource):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeEmptySource, "Provide text or a PDF file")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("summarization failed")
		httperrors.RespondBadGateway(w, httperrors.ErrCodeSummaryFailed, "Summarization is temporarily unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"summary":        summary,
		"summary_length": payload.SummaryLength,
	})
}
