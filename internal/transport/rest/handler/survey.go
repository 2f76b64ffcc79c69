package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"counselhub/internal/service"
	"counselhub/internal/transport/rest/middleware"
)

// SurveyHandler handles survey-template endpoints.
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler.
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// Get handles GET /v1/surveys/{surveyId}. Public, so students can load the
// questionnaire they were linked to.
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.Get(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// List handles GET /v1/counselors/{counselorId}/surveys.
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	counselorID := mux.Vars(r)["counselorId"]
	if counselorID == "" || counselorID != middleware.GetCounselorID(r.Context()) {
		writeError(w, http.StatusForbidden, "token does not match counselor")
		return
	}

	surveys, err := h.surveySvc.ListByCounselor(r.Context(), counselorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, surveys)
}
