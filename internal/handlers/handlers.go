package handlers

import (
	"encoding/json"
	"net/http"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

func errorRespWithFields(message string, fields map[string]string) models.ErrorResponse {
	return models.ErrorResponse{Error: message, Fields: fields}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("Validation failed", e.Fields))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp(e.Message))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp(e.Message))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp(e.Message))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp(e.Message))
	default:
		logger.ErrorWithFields("unhandled service error", logger.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorResp("An unexpected error occurred"))
	}
}
