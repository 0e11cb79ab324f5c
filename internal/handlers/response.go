package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

func respondJSON(w http.ResponseWriter, logger *utils.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes the {"error": message} envelope. Errors that are not
// AppErrors never leak their text.
func respondError(w http.ResponseWriter, logger *utils.Logger, err error) {
	status, message := errorStatus(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request error", "status", status, "error", err)
	} else {
		logger.Warn("Request error", "status", status, "error", message)
	}

	respondJSON(w, logger, status, map[string]string{"error": message})
}

func errorStatus(err error) (int, string) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, appErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// NotFound renders the envelope for unknown routes.
func NotFound(logger *utils.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, logger, utils.NewAppError(http.StatusNotFound, utils.ErrInvalidInput, "Not found", nil))
	})
}

func MethodNotAllowed(logger *utils.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, logger, utils.NewAppError(http.StatusMethodNotAllowed, utils.ErrInvalidInput, "Method not allowed", nil))
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
