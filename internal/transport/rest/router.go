package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"counselhub/internal/cache"
	"counselhub/internal/service"
	"counselhub/internal/transport/rest/handler"
	"counselhub/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	SurveyService     *service.SurveyService
	SubmissionService *service.SubmissionService
	AnalysisService   *service.AnalysisService
	AnalysisCache     cache.AnalysisCache
	JWTSecret         string
	Logger            *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	submissionHandler := handler.NewSubmissionHandler(c.SubmissionService)
	analysisHandler := handler.NewAnalysisHandler(c.AnalysisService, c.AnalysisCache, c.Logger)

	authMW := middleware.NewAuthMiddleware(c.JWTSecret)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes: students submit questionnaires without an account
	v1.HandleFunc("/submissions", submissionHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Counselor routes (require counselor auth)
	counselorRoutes := v1.NewRoute().Subrouter()
	counselorRoutes.Use(authMW.RequireCounselor)

	counselorRoutes.HandleFunc("/counselors/{counselorId}/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	counselorRoutes.HandleFunc("/counselors/{counselorId}/analyses", analysisHandler.Run).Methods("POST", "OPTIONS")
	counselorRoutes.HandleFunc("/counselors/{counselorId}/analyses", analysisHandler.History).Methods("GET", "OPTIONS")
	counselorRoutes.HandleFunc("/counselors/{counselorId}/analyses/latest", analysisHandler.Latest).Methods("GET", "OPTIONS")
	counselorRoutes.HandleFunc("/counselors/{counselorId}/analyses/{runId}", analysisHandler.Get).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
