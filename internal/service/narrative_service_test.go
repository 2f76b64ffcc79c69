package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselhub/internal/apperr"
	"counselhub/internal/config"
	"counselhub/internal/model"
)

func newTestNarrativeService(baseURL, apiKey string) *NarrativeService {
	return NewNarrativeService(&config.NarrativeConfig{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     "test-model",
		TimeoutMS: 2000,
	})
}

func sampleSubjects() []model.SubjectAnalysis {
	return []model.SubjectAnalysis{
		{SubjectID: "stu-1", Name: "Ada Kaya", RawScore: 5, MaxScore: 6, RiskScore: 72.5},
		{SubjectID: "stu-2", Name: "Ben Demir", RawScore: 2, MaxScore: 6, RiskScore: 28.0},
	}
}

func TestNarrativeMockWhenDisabled(t *testing.T) {
	svc := newTestNarrativeService("http://unused", "")

	summary, err := svc.OverallSummary(context.Background(), sampleSubjects(), 50.3)
	require.NoError(t, err)
	assert.Contains(t, summary, "50.3")
	assert.Contains(t, summary, "moderate")

	assessment, err := svc.SubjectAssessment(context.Background(), &sampleSubjects()[0])
	require.NoError(t, err)
	assert.Contains(t, assessment, "Ada Kaya")
	assert.Contains(t, assessment, "high")
}

func TestNarrativeCallSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Generated prose.  "}}]}`))
	}))
	defer srv.Close()

	svc := newTestNarrativeService(srv.URL, "test-key")

	got, err := svc.OverallSummary(context.Background(), sampleSubjects(), 50.0)
	require.NoError(t, err)
	assert.Equal(t, "Generated prose.", got)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestNarrativeErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected apperr.Code
	}{
		{"quota exhausted", http.StatusTooManyRequests, apperr.CodeNarrativeQuota},
		{"bad credentials", http.StatusUnauthorized, apperr.CodeNarrativeAuth},
		{"forbidden credentials", http.StatusForbidden, apperr.CodeNarrativeAuth},
		{"server error", http.StatusInternalServerError, apperr.CodeNarrativeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			svc := newTestNarrativeService(srv.URL, "test-key")

			_, err := svc.OverallSummary(context.Background(), sampleSubjects(), 50.0)
			assert.True(t, apperr.IsCode(err, tt.expected), "got %v", err)
		})
	}
}

func TestNarrativeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc := newTestNarrativeService(srv.URL, "test-key")

	_, err := svc.SurveyNarrative(context.Background(), &model.SurveyBreakdown{
		Survey:        model.SurveyDescriptor{ID: "svy-1", Title: "Wellbeing Check"},
		SubjectScores: map[string]model.SubjectSurveyScore{},
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeNarrativeUnavailable))
}

func TestNarrativeUnreachable(t *testing.T) {
	svc := newTestNarrativeService("http://127.0.0.1:1", "test-key")

	_, err := svc.OverallSummary(context.Background(), sampleSubjects(), 50.0)
	assert.True(t, apperr.IsCode(err, apperr.CodeNarrativeUnavailable))
}

func TestRiskBand(t *testing.T) {
	assert.Equal(t, "low", riskBand(0))
	assert.Equal(t, "low", riskBand(39.9))
	assert.Equal(t, "moderate", riskBand(40))
	assert.Equal(t, "moderate", riskBand(69.9))
	assert.Equal(t, "high", riskBand(70))
	assert.Equal(t, "high", riskBand(100))
}
