package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ophthalmoscan/fundus-api/internal/classifier"
	"github.com/ophthalmoscan/fundus-api/internal/imaging"
	"github.com/ophthalmoscan/fundus-api/internal/pipeline"
)

// ModelStatus is what the health endpoint needs to know about the model.
type ModelStatus interface {
	Ready() bool
}

type Handler struct {
	pipe      *pipeline.Pipeline
	status    ModelStatus
	modelType string
	log       *zap.SugaredLogger
}

func NewHandler(pipe *pipeline.Pipeline, status ModelStatus, modelType string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		pipe:      pipe,
		status:    status,
		modelType: modelType,
		log:       log,
	}
}

// Health reports whether the classifier loaded. The process serves this even
// when the model is missing so operators see "degraded" instead of a dead
// endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.status.Ready() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"modelLoaded": h.status.Ready(),
		"modelType":   h.modelType,
	})
}

// Predict accepts a multipart upload with an "image" file field and a
// user_id form field or query parameter, and returns the calibrated
// prediction.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// 10MB multipart cap.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided, use 'image' as the form field name")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	// FormValue covers both the form field and the query string.
	userID := r.FormValue("user_id")

	h.log.Infow("prediction request", "filename", header.Filename, "size", header.Size, "user_id", userID)

	result, err := h.pipe.Predict(r.Context(), data, header.Filename, userID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, imaging.ErrInvalidInput), errors.Is(err, imaging.ErrDecode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, classifier.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, "model not loaded")
	default:
		h.log.Errorw("prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to analyze image")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
