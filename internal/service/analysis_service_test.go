package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"counselhub/internal/apperr"
	"counselhub/internal/model"
)

// In-memory fakes

type fakeUserRepo struct {
	counselors map[string]*model.Counselor
	students   []*model.Student
}

func (f *fakeUserRepo) GetCounselor(ctx context.Context, id string) (*model.Counselor, error) {
	return f.counselors[id], nil
}

func (f *fakeUserRepo) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListStudentsByCounselor(ctx context.Context, counselorID string) ([]*model.Student, error) {
	var out []*model.Student
	for _, s := range f.students {
		if s.CounselorID == counselorID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSurveyRepo struct {
	surveys map[string]*model.Survey
}

func (f *fakeSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	return f.surveys[id], nil
}

func (f *fakeSurveyRepo) ListByCounselor(ctx context.Context, counselorID string) ([]*model.Survey, error) {
	var out []*model.Survey
	for _, s := range f.surveys {
		if s.CounselorID == counselorID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	submissions []*model.Submission
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	f.submissions = append(f.submissions, submission)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	for _, s := range f.submissions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubmissionRepo) ListByCounselor(ctx context.Context, counselorID string) ([]*model.Submission, error) {
	var out []*model.Submission
	for _, s := range f.submissions {
		if s.CounselorID == counselorID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeRunRepo struct {
	runs []*model.AnalysisRun
}

func (f *fakeRunRepo) Append(ctx context.Context, run *model.AnalysisRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, counselorID, runID string) (*model.AnalysisRun, error) {
	for _, r := range f.runs {
		if r.ID == runID && r.CounselorID == counselorID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) ListByCounselor(ctx context.Context, counselorID string) ([]*model.AnalysisRun, error) {
	var out []*model.AnalysisRun
	for _, r := range f.runs {
		if r.CounselorID == counselorID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAnalysisCache struct {
	locked  map[string]bool
	latest  map[string]*model.RunSummary
	setErrs int
}

func newFakeAnalysisCache() *fakeAnalysisCache {
	return &fakeAnalysisCache{locked: map[string]bool{}, latest: map[string]*model.RunSummary{}}
}

func (f *fakeAnalysisCache) AcquireRunLock(ctx context.Context, counselorID string) (bool, error) {
	if f.locked[counselorID] {
		return false, nil
	}
	f.locked[counselorID] = true
	return true, nil
}

func (f *fakeAnalysisCache) ReleaseRunLock(ctx context.Context, counselorID string) error {
	delete(f.locked, counselorID)
	return nil
}

func (f *fakeAnalysisCache) SetLatestRun(ctx context.Context, counselorID string, summary *model.RunSummary) error {
	f.latest[counselorID] = summary
	return nil
}

func (f *fakeAnalysisCache) GetLatestRun(ctx context.Context, counselorID string) (*model.RunSummary, error) {
	return f.latest[counselorID], nil
}

type fakeNarrative struct {
	overallErr error
	surveyErr  error
	subjectErr error
	surveyCall int
}

func (f *fakeNarrative) OverallSummary(ctx context.Context, subjects []model.SubjectAnalysis, aggregateRisk float64) (string, error) {
	if f.overallErr != nil {
		return "", f.overallErr
	}
	return "overall summary", nil
}

func (f *fakeNarrative) SurveyNarrative(ctx context.Context, breakdown *model.SurveyBreakdown) (string, error) {
	f.surveyCall++
	if f.surveyErr != nil {
		return "", f.surveyErr
	}
	return "survey narrative", nil
}

func (f *fakeNarrative) SubjectAssessment(ctx context.Context, subject *model.SubjectAnalysis) (string, error) {
	if f.subjectErr != nil {
		return "", f.subjectErr
	}
	return "assessment", nil
}

// Fixture

type fixture struct {
	svc         *AnalysisService
	users       *fakeUserRepo
	surveys     *fakeSurveyRepo
	submissions *fakeSubmissionRepo
	runs        *fakeRunRepo
	cache       *fakeAnalysisCache
	narrative   *fakeNarrative
}

const testCounselor = "counselor-1"

func newFixture() *fixture {
	f := &fixture{
		users: &fakeUserRepo{
			counselors: map[string]*model.Counselor{
				testCounselor: {ID: testCounselor, FirstName: "Jordan", LastName: "Reyes"},
			},
			students: []*model.Student{
				{ID: "stu-1", CounselorID: testCounselor, FirstName: "Ada", LastName: "Kaya"},
				{ID: "stu-2", CounselorID: testCounselor, FirstName: "Ben", LastName: "Demir"},
			},
		},
		surveys: &fakeSurveyRepo{
			surveys: map[string]*model.Survey{
				"svy-1": {
					ID:          "svy-1",
					CounselorID: testCounselor,
					Title:       "Wellbeing Check",
					Questions: []model.Question{
						{Text: "q1", Options: []string{"never", "sometimes", "always"}},
						{Text: "q2", Options: []string{"never", "sometimes", "always"}},
					},
				},
			},
		},
		submissions: &fakeSubmissionRepo{},
		runs:        &fakeRunRepo{},
		cache:       newFakeAnalysisCache(),
		narrative:   &fakeNarrative{},
	}
	f.svc = NewAnalysisService(f.users, f.surveys, f.submissions, f.runs, f.cache, f.narrative, zap.NewNop())
	return f
}

func (f *fixture) addSubmission(id, subjectID string, completedAt time.Time, options ...string) {
	answers := make([]model.Answer, 0, len(options))
	for _, opt := range options {
		answers = append(answers, model.Answer{
			Options:      []string{"never", "sometimes", "always"},
			ChosenOption: opt,
		})
	}
	f.submissions.submissions = append(f.submissions.submissions, &model.Submission{
		ID:          id,
		SurveyID:    "svy-1",
		SubjectID:   subjectID,
		CounselorID: testCounselor,
		Answers:     answers,
		CompletedAt: completedAt,
	})
}

// Tests

func TestRunUnknownCounselor(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Run(context.Background(), "nobody")

	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestRunNoStudents(t *testing.T) {
	f := newFixture()
	f.users.students = nil

	_, err := f.svc.Run(context.Background(), testCounselor)

	assert.True(t, apperr.IsCode(err, apperr.CodeNoSubjectsFound))
}

func TestRunNoSubmissions(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Run(context.Background(), testCounselor)

	assert.True(t, apperr.IsCode(err, apperr.CodeNoSubmissionsFound))
}

func TestRunScoresAndRecords(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.addSubmission("sub-1", "stu-1", now, "sometimes", "always") // raw 5 of 6
	f.addSubmission("sub-2", "stu-2", now, "never", "never")      // raw 2 of 6

	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	assert.Equal(t, 2, run.SubjectCount)
	assert.Equal(t, 2, run.SubmissionCount)
	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, run.ConsumedSubmissionIDs)
	assert.Equal(t, "overall summary", run.Result.OverallSummary)

	require.Len(t, run.Result.Subjects, 2)
	assert.Equal(t, "Ada Kaya", run.Result.Subjects[0].Name)
	assert.Equal(t, 5, run.Result.Subjects[0].RawScore)
	assert.Equal(t, 6, run.Result.Subjects[0].MaxScore)
	assert.Greater(t, run.Result.Subjects[0].RiskScore, run.Result.Subjects[1].RiskScore)
	assert.Equal(t, "assessment", run.Result.Subjects[0].Assessment)

	require.Len(t, run.Result.SurveyBreakdowns, 1)
	bd := run.Result.SurveyBreakdowns[0]
	assert.Equal(t, "Wellbeing Check", bd.Survey.Title)
	assert.Len(t, bd.SubjectScores, 2)
	assert.Equal(t, "survey narrative", bd.Narrative)

	// Provenance keyed subject -> survey.
	assert.Equal(t, 5, run.PerSubjectPerSurveyScores["stu-1"]["svy-1"].RawScore)

	// The run was appended and the summary cached.
	require.Len(t, f.runs.runs, 1)
	assert.NotNil(t, f.cache.latest[testCounselor])
	assert.Equal(t, run.ID, f.cache.latest[testCounselor].ID)
}

func TestRunIDsScopedPerCounselor(t *testing.T) {
	f := newFixture()
	other := "counselor-2"
	f.users.counselors[other] = &model.Counselor{ID: other, FirstName: "Sam", LastName: "Aksoy"}
	f.users.students = append(f.users.students,
		&model.Student{ID: "stu-9", CounselorID: other, FirstName: "Eda", LastName: "Polat"})
	f.surveys.surveys["svy-9"] = &model.Survey{
		ID:          "svy-9",
		CounselorID: other,
		Title:       "Focus Check",
		Questions: []model.Question{
			{Text: "q1", Options: []string{"never", "always"}},
		},
	}

	now := time.Now()
	f.addSubmission("sub-1", "stu-1", now, "always", "always")
	f.submissions.submissions = append(f.submissions.submissions, &model.Submission{
		ID:          "sub-9",
		SurveyID:    "svy-9",
		SubjectID:   "stu-9",
		CounselorID: other,
		Answers:     []model.Answer{{Options: []string{"never", "always"}, ChosenOption: "always"}},
		CompletedAt: now,
	})

	first, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)
	second, err := f.svc.Run(context.Background(), other)
	require.NoError(t, err)

	// Back-to-back runs can land in the same millisecond; the counselor
	// prefix keeps their ids distinct in the shared collection.
	assert.True(t, strings.HasPrefix(first.ID, testCounselor+"-"))
	assert.True(t, strings.HasPrefix(second.ID, other+"-"))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunSecondCallSeesNothingNew(t *testing.T) {
	f := newFixture()
	completed := time.Now().Add(-time.Hour)
	f.addSubmission("sub-1", "stu-1", completed, "always", "always")

	_, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	_, err = f.svc.Run(context.Background(), testCounselor)
	assert.True(t, apperr.IsCode(err, apperr.CodeNoNewSubmissions))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.Details["totalSubmissions"])
	assert.Equal(t, 1, appErr.Details["consumedSubmissions"])
	assert.Contains(t, appErr.Details, "lastRunAt")

	// No second run was recorded.
	assert.Len(t, f.runs.runs, 1)
}

func TestRunIncrementalOnlyScoresNewBatch(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now().Add(-time.Hour), "always", "always")

	first, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SubmissionCount)

	f.addSubmission("sub-2", "stu-2", time.Now().Add(time.Minute), "never", "never")

	second, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SubmissionCount)
	assert.Equal(t, []string{"sub-2"}, second.ConsumedSubmissionIDs)
	require.Len(t, second.Result.Subjects, 1)
	assert.Equal(t, "stu-2", second.Result.Subjects[0].SubjectID)
}

func TestRunAbortsWhenOverallNarrativeFails(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now(), "always", "always")
	f.narrative.overallErr = apperr.New(apperr.CodeNarrativeQuota, "quota exceeded")

	_, err := f.svc.Run(context.Background(), testCounselor)

	assert.True(t, apperr.IsCode(err, apperr.CodeNarrativeQuota))
	// The failed run must leave no record, so a retry can consume the
	// same submissions.
	assert.Empty(t, f.runs.runs)

	f.narrative.overallErr = nil
	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1"}, run.ConsumedSubmissionIDs)
}

func TestRunAbortsWhenAssessmentFails(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now(), "always", "always")
	f.narrative.subjectErr = apperr.New(apperr.CodeNarrativeAuth, "bad key")

	_, err := f.svc.Run(context.Background(), testCounselor)

	assert.True(t, apperr.IsCode(err, apperr.CodeNarrativeAuth))
	assert.Empty(t, f.runs.runs)
}

func TestRunSurveyNarrativeFailureIsIsolated(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now(), "always", "always")
	f.narrative.surveyErr = apperr.New(apperr.CodeNarrativeUnavailable, "down")

	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	require.Len(t, run.Result.SurveyBreakdowns, 1)
	bd := run.Result.SurveyBreakdowns[0]
	assert.Empty(t, bd.Narrative)
	// Numbers survive the missing prose.
	assert.NotEmpty(t, bd.SubjectScores)
	assert.Greater(t, bd.AvgRiskScore, 0.0)
}

func TestRunSkipsSubmissionForMissingSurvey(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now(), "always", "always")
	f.submissions.submissions = append(f.submissions.submissions, &model.Submission{
		ID:          "sub-orphan",
		SurveyID:    "svy-gone",
		SubjectID:   "stu-2",
		CounselorID: testCounselor,
		Answers:     []model.Answer{{Options: []string{"a"}, ChosenOption: "a"}},
		CompletedAt: time.Now(),
	})

	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	// Only the resolvable submission is scored, but both are consumed.
	assert.Equal(t, 1, run.SubjectCount)
	assert.Len(t, run.ConsumedSubmissionIDs, 2)
}

func TestHistoryAndLatest(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now().Add(-time.Hour), "sometimes", "sometimes")

	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	history, err := f.svc.History(context.Background(), testCounselor)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, run.ID, history[0].ID)

	latest, err := f.svc.Latest(context.Background(), testCounselor)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)

	// Cold cache falls back to history.
	delete(f.cache.latest, testCounselor)
	latest, err = f.svc.Latest(context.Background(), testCounselor)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
}

func TestLatestWithNoRuns(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Latest(context.Background(), testCounselor)

	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestGetRun(t *testing.T) {
	f := newFixture()
	f.addSubmission("sub-1", "stu-1", time.Now(), "always", "always")

	run, err := f.svc.Run(context.Background(), testCounselor)
	require.NoError(t, err)

	got, err := f.svc.GetRun(context.Background(), testCounselor, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	_, err = f.svc.GetRun(context.Background(), "other-counselor", run.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}
