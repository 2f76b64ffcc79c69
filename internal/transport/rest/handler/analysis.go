package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"counselhub/internal/apperr"
	"counselhub/internal/cache"
	"counselhub/internal/service"
	"counselhub/internal/transport/rest/middleware"
)

// AnalysisHandler handles analysis-run endpoints.
type AnalysisHandler struct {
	analysisSvc   *service.AnalysisService
	analysisCache cache.AnalysisCache
	logger        *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analysisSvc *service.AnalysisService, analysisCache cache.AnalysisCache, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc, analysisCache: analysisCache, logger: logger}
}

// Run handles POST /v1/counselors/{counselorId}/analyses. The per-counselor
// lock is taken here rather than inside the service so that a lock failure
// never touches the pipeline at all.
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := h.authorizedCounselor(w, r)
	if !ok {
		return
	}

	acquired, err := h.analysisCache.AcquireRunLock(r.Context(), counselorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to acquire analysis lock")
		return
	}
	if !acquired {
		writeServiceError(w, apperr.New(apperr.CodeAnalysisInProgress, "an analysis is already running for this counselor"))
		return
	}
	// The release must survive a client disconnect: the request context is
	// canceled then, and a canceled release would leave the lock held for
	// the full TTL.
	defer func() {
		if err := h.analysisCache.ReleaseRunLock(context.WithoutCancel(r.Context()), counselorID); err != nil {
			h.logger.Warn("failed to release analysis lock",
				zap.String("counselorId", counselorID),
				zap.Error(err))
		}
	}()

	run, err := h.analysisSvc.Run(r.Context(), counselorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

// History handles GET /v1/counselors/{counselorId}/analyses.
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := h.authorizedCounselor(w, r)
	if !ok {
		return
	}

	summaries, err := h.analysisSvc.History(r.Context(), counselorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Get handles GET /v1/counselors/{counselorId}/analyses/{runId}.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := h.authorizedCounselor(w, r)
	if !ok {
		return
	}

	run, err := h.analysisSvc.GetRun(r.Context(), counselorID, mux.Vars(r)["runId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// Latest handles GET /v1/counselors/{counselorId}/analyses/latest.
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := h.authorizedCounselor(w, r)
	if !ok {
		return
	}

	summary, err := h.analysisSvc.Latest(r.Context(), counselorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// authorizedCounselor checks that the path counselor matches the token's.
func (h *AnalysisHandler) authorizedCounselor(w http.ResponseWriter, r *http.Request) (string, bool) {
	counselorID := mux.Vars(r)["counselorId"]
	if counselorID == "" || counselorID != middleware.GetCounselorID(r.Context()) {
		writeError(w, http.StatusForbidden, "token does not match counselor")
		return "", false
	}
	return counselorID, true
}
