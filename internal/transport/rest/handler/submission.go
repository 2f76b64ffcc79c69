package handler

import (
	"encoding/json"
	"net/http"

	"counselhub/internal/model"
	"counselhub/internal/service"
)

// SubmissionHandler handles public questionnaire submission.
type SubmissionHandler struct {
	submissionSvc *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(submissionSvc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc}
}

// Submit handles POST /v1/submissions.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var submission model.Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.submissionSvc.Submit(r.Context(), &submission)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}
