package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"counselhub/internal/apperr"
	"counselhub/internal/model"
	"counselhub/internal/repository"
)

// SubmissionService accepts completed questionnaires into the analysis pool.
type SubmissionService struct {
	surveyRepo     repository.SurveyRepo
	submissionRepo repository.SubmissionRepo
	logger         *zap.Logger
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(surveyRepo repository.SurveyRepo, submissionRepo repository.SubmissionRepo, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		logger:         logger,
	}
}

// Submit validates and stores a completed questionnaire. The counselor is
// derived from the survey, never trusted from the request, and the record is
// immutable once stored: a student re-taking a survey creates a new
// submission rather than replacing the old one.
func (s *SubmissionService) Submit(ctx context.Context, submission *model.Submission) (*model.Submission, error) {
	if submission.SurveyID == "" || submission.SubjectID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "surveyId and subjectId are required")
	}
	if len(submission.Answers) == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "a submission needs at least one answer")
	}

	survey, err := s.surveyRepo.GetByID(ctx, submission.SurveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, apperr.New(apperr.CodeNotFound, "survey not found")
	}

	submission.ID = uuid.New().String()
	submission.CounselorID = survey.CounselorID
	submission.CompletedAt = time.Now()

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("submission recorded",
		zap.String("submissionId", submission.ID),
		zap.String("surveyId", submission.SurveyID),
		zap.String("subjectId", submission.SubjectID))

	return submission, nil
}
