package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"counselhub/internal/apperr"
	"counselhub/internal/model"
)

func newSubmissionFixture() (*SubmissionService, *fakeSubmissionRepo) {
	surveys := &fakeSurveyRepo{
		surveys: map[string]*model.Survey{
			"svy-1": {
				ID:          "svy-1",
				CounselorID: "counselor-1",
				Title:       "Wellbeing Check",
				Questions: []model.Question{
					{Text: "q1", Options: []string{"never", "always"}},
				},
			},
		},
	}
	submissions := &fakeSubmissionRepo{}
	return NewSubmissionService(surveys, submissions, zap.NewNop()), submissions
}

func TestSubmitStoresWithDerivedCounselor(t *testing.T) {
	svc, repo := newSubmissionFixture()

	created, err := svc.Submit(context.Background(), &model.Submission{
		SurveyID:  "svy-1",
		SubjectID: "stu-1",
		// A spoofed counselor id must be overwritten from the survey.
		CounselorID: "someone-else",
		Answers: []model.Answer{
			{Options: []string{"never", "always"}, ChosenOption: "always"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "counselor-1", created.CounselorID)
	assert.False(t, created.CompletedAt.IsZero())
	require.Len(t, repo.submissions, 1)
}

func TestSubmitEachSubmissionIsDistinct(t *testing.T) {
	svc, repo := newSubmissionFixture()
	answers := []model.Answer{{Options: []string{"never", "always"}, ChosenOption: "never"}}

	first, err := svc.Submit(context.Background(), &model.Submission{SurveyID: "svy-1", SubjectID: "stu-1", Answers: answers})
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), &model.Submission{SurveyID: "svy-1", SubjectID: "stu-1", Answers: answers})
	require.NoError(t, err)

	// A re-take appends, never replaces.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, repo.submissions, 2)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newSubmissionFixture()
	answers := []model.Answer{{Options: []string{"never", "always"}, ChosenOption: "never"}}

	tests := []struct {
		name       string
		submission *model.Submission
		expected   apperr.Code
	}{
		{
			name:       "missing survey id",
			submission: &model.Submission{SubjectID: "stu-1", Answers: answers},
			expected:   apperr.CodeInvalidInput,
		},
		{
			name:       "missing subject id",
			submission: &model.Submission{SurveyID: "svy-1", Answers: answers},
			expected:   apperr.CodeInvalidInput,
		},
		{
			name:       "no answers",
			submission: &model.Submission{SurveyID: "svy-1", SubjectID: "stu-1"},
			expected:   apperr.CodeInvalidInput,
		},
		{
			name:       "unknown survey",
			submission: &model.Submission{SurveyID: "svy-missing", SubjectID: "stu-1", Answers: answers},
			expected:   apperr.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.submission)
			assert.True(t, apperr.IsCode(err, tt.expected), "got %v", err)
		})
	}
}
