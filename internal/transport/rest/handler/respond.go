package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"counselhub/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps application error codes onto HTTP statuses. The
// structured error (code, message, details) goes to the client as-is so a
// dashboard can explain a skipped run rather than showing a generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeInvalidInput,
		apperr.CodeNoSubjectsFound,
		apperr.CodeNoSubmissionsFound,
		apperr.CodeNoNewSubmissions:
		status = http.StatusBadRequest
	case apperr.CodeAnalysisInProgress:
		status = http.StatusConflict
	case apperr.CodeNarrativeQuota:
		status = http.StatusTooManyRequests
	case apperr.CodeNarrativeAuth:
		status = http.StatusUnauthorized
	case apperr.CodeNarrativeUnavailable:
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": appErr})
}
