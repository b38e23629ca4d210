package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/legallink/backend/internal/ingestion"
	"github.com/legallink/backend/internal/service/ingest"
	"github.com/legallink/backend/pkg/utils"
)

// maxUploadBytes bounds one-off document uploads.
const maxUploadBytes = 20 << 20

// Analyzer is the slice of the ingest service this handler needs.
type Analyzer interface {
	AnalyzeUpload(ctx context.Context, filename string, data []byte) (*ingest.Analysis, error)
}

// Handler analyzes uploaded statute documents without indexing them.
type Handler struct {
	svc Analyzer
}

func New(svc Analyzer) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	analysis, err := h.svc.AnalyzeUpload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupportedFile) {
			utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, analysis)
}
