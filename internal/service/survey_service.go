package service

import (
	"context"

	"counselhub/internal/apperr"
	"counselhub/internal/model"
	"counselhub/internal/repository"
)

// SurveyService exposes survey templates to respondents and counselors.
type SurveyService struct {
	surveyRepo repository.SurveyRepo
}

// NewSurveyService creates a new survey service.
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{surveyRepo: surveyRepo}
}

// Get returns one survey template.
func (s *SurveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, apperr.New(apperr.CodeNotFound, "survey not found")
	}
	return survey, nil
}

// ListByCounselor returns the counselor's survey templates.
func (s *SurveyService) ListByCounselor(ctx context.Context, counselorID string) ([]*model.Survey, error) {
	return s.surveyRepo.ListByCounselor(ctx, counselorID)
}
