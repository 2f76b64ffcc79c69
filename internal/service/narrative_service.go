package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"counselhub/internal/apperr"
	"counselhub/internal/config"
	"counselhub/internal/model"
)

// NarrativeGenerator turns numeric scoring results into prose for counselors.
type NarrativeGenerator interface {
	OverallSummary(ctx context.Context, subjects []model.SubjectAnalysis, aggregateRisk float64) (string, error)
	SurveyNarrative(ctx context.Context, breakdown *model.SurveyBreakdown) (string, error)
	SubjectAssessment(ctx context.Context, subject *model.SubjectAnalysis) (string, error)
}

// NarrativeService calls a chat-completions API to generate counselor-facing
// text. Without an API key it produces deterministic template text instead,
// so the scoring pipeline works in development and tests.
type NarrativeService struct {
	config *config.NarrativeConfig
	client *http.Client
}

// NewNarrativeService creates a new narrative service.
func NewNarrativeService(cfg *config.NarrativeConfig) *NarrativeService {
	return &NarrativeService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// OverallSummary generates the run-wide summary across all subjects.
func (s *NarrativeService) OverallSummary(ctx context.Context, subjects []model.SubjectAnalysis, aggregateRisk float64) (string, error) {
	if !s.config.IsEnabled() {
		return s.mockOverallSummary(subjects, aggregateRisk), nil
	}
	return s.callChat(ctx, s.buildOverallPrompt(subjects, aggregateRisk))
}

// SurveyNarrative generates the per-survey commentary.
func (s *NarrativeService) SurveyNarrative(ctx context.Context, breakdown *model.SurveyBreakdown) (string, error) {
	if !s.config.IsEnabled() {
		return s.mockSurveyNarrative(breakdown), nil
	}
	return s.callChat(ctx, s.buildSurveyPrompt(breakdown))
}

// SubjectAssessment generates the per-subject assessment line.
func (s *NarrativeService) SubjectAssessment(ctx context.Context, subject *model.SubjectAnalysis) (string, error) {
	if !s.config.IsEnabled() {
		return s.mockAssessment(subject), nil
	}
	return s.callChat(ctx, s.buildAssessmentPrompt(subject))
}

// callChat makes a chat-completions request and maps failures onto the
// application error taxonomy so callers can tell quota exhaustion from bad
// credentials from everything else.
func (s *NarrativeService) callChat(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an assistant for school counselors. Write short, professional prose. Never include student-identifying advice beyond what is given."},
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.ChatEndpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.New(apperr.CodeNarrativeUnavailable, "narrative service unreachable").WithDetail("cause", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.New(apperr.CodeNarrativeUnavailable, "narrative service response unreadable")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperr.New(apperr.CodeNarrativeQuota, "narrative service quota exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", apperr.New(apperr.CodeNarrativeAuth, "narrative service rejected credentials")
	case resp.StatusCode != http.StatusOK:
		return "", apperr.New(apperr.CodeNarrativeUnavailable, "narrative service error").
			WithDetail("status", resp.StatusCode)
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", apperr.New(apperr.CodeNarrativeUnavailable, "narrative service returned malformed payload")
	}
	if len(chatResp.Choices) == 0 {
		return "", apperr.New(apperr.CodeNarrativeUnavailable, "narrative service returned no choices")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Prompt builders

func (s *NarrativeService) buildOverallPrompt(subjects []model.SubjectAnalysis, aggregateRisk float64) string {
	var sb strings.Builder
	sb.WriteString("Summarize the overall wellbeing picture for a counselor's student group in 3-4 sentences.\n")
	fmt.Fprintf(&sb, "Aggregate risk score: %.1f/100.\n", aggregateRisk)
	sb.WriteString("Per-student risk scores:\n")
	for _, subj := range subjects {
		fmt.Fprintf(&sb, "- %s: %.1f/100 (raw %d of %d)\n", subj.Name, subj.RiskScore, subj.RawScore, subj.MaxScore)
	}
	sb.WriteString("Highlight who may need attention first. Do not invent facts beyond the scores.")
	return sb.String()
}

func (s *NarrativeService) buildSurveyPrompt(breakdown *model.SurveyBreakdown) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a 2-3 sentence commentary on the survey %q for a school counselor.\n", breakdown.Survey.Title)
	fmt.Fprintf(&sb, "Average risk score across respondents: %.1f/100.\n", breakdown.AvgRiskScore)
	fmt.Fprintf(&sb, "Respondent count: %d.\n", len(breakdown.SubjectScores))
	sb.WriteString("Focus on what the average suggests and whether follow-up is warranted.")
	return sb.String()
}

func (s *NarrativeService) buildAssessmentPrompt(subject *model.SubjectAnalysis) string {
	return fmt.Sprintf(
		"Write one sentence assessing a student's questionnaire results for their counselor.\nStudent: %s. Risk score: %.1f/100 (raw %d of %d).\nBe factual and measured.",
		subject.Name, subject.RiskScore, subject.RawScore, subject.MaxScore)
}

// Mock implementations

func riskBand(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "moderate"
	default:
		return "low"
	}
}

func (s *NarrativeService) mockOverallSummary(subjects []model.SubjectAnalysis, aggregateRisk float64) string {
	return fmt.Sprintf("Across %d students the aggregate risk score is %.1f/100, indicating %s overall risk. Review individual assessments for detail.",
		len(subjects), aggregateRisk, riskBand(aggregateRisk))
}

func (s *NarrativeService) mockSurveyNarrative(breakdown *model.SurveyBreakdown) string {
	return fmt.Sprintf("%d students completed %q with an average risk score of %.1f/100 (%s).",
		len(breakdown.SubjectScores), breakdown.Survey.Title, breakdown.AvgRiskScore, riskBand(breakdown.AvgRiskScore))
}

func (s *NarrativeService) mockAssessment(subject *model.SubjectAnalysis) string {
	return fmt.Sprintf("%s scored %d of %d, a %s risk level of %.1f/100.",
		subject.Name, subject.RawScore, subject.MaxScore, riskBand(subject.RiskScore), subject.RiskScore)
}
