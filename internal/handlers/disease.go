package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/services"
)

// MaxImageSize caps disease-detection uploads.
const MaxImageSize = 10 << 20

type DiseaseHandler struct {
	diseaseService *services.DiseaseService
}

func NewDiseaseHandler(diseaseService *services.DiseaseService) *DiseaseHandler {
	return &DiseaseHandler{diseaseService: diseaseService}
}

// Upload accepts a multipart "image" and answers 202 with the queued job id.
func (h *DiseaseHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("Image must be at most 10 MB"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("Validation failed", map[string]string{"image": "Image is required"}))
		return
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("Image must be at most 10 MB"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Failed to read image"))
		return
	}

	job, err := h.diseaseService.Submit(r.Context(), middleware.GetUserID(r.Context()), data)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *DiseaseHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid job ID"))
		return
	}

	job, err := h.diseaseService.Get(r.Context(), middleware.GetUserID(r.Context()), jobID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
