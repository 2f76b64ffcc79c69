package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"counselhub/internal/apperr"
	"counselhub/internal/cache"
	"counselhub/internal/model"
	"counselhub/internal/repository"
	"counselhub/internal/risk"
)

// AnalysisService runs the scoring pipeline: select new submissions, score
// them, generate narratives, and append an immutable run record.
type AnalysisService struct {
	userRepo       repository.UserRepo
	surveyRepo     repository.SurveyRepo
	submissionRepo repository.SubmissionRepo
	runRepo        repository.RunRepo
	analysisCache  cache.AnalysisCache
	narrative      NarrativeGenerator
	logger         *zap.Logger
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	userRepo repository.UserRepo,
	surveyRepo repository.SurveyRepo,
	submissionRepo repository.SubmissionRepo,
	runRepo repository.RunRepo,
	analysisCache cache.AnalysisCache,
	narrative NarrativeGenerator,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		userRepo:       userRepo,
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		runRepo:        runRepo,
		analysisCache:  analysisCache,
		narrative:      narrative,
		logger:         logger,
	}
}

// Run executes one analysis for the counselor. The run record is appended
// only after every scoring and narrative step has succeeded; any earlier
// failure leaves history untouched, so the unconsumed submissions remain
// available to a retry.
func (s *AnalysisService) Run(ctx context.Context, counselorID string) (*model.AnalysisRun, error) {
	counselor, err := s.userRepo.GetCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if counselor == nil {
		return nil, apperr.New(apperr.CodeNotFound, "counselor not found")
	}

	students, err := s.userRepo.ListStudentsByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, apperr.New(apperr.CodeNoSubjectsFound, "no students registered for this counselor")
	}

	pool, err := s.submissionRepo.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, apperr.New(apperr.CodeNoSubmissionsFound, "no submissions recorded for this counselor")
	}

	prior, err := s.runRepo.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	lastRunAt, consumed := runHistoryStats(prior)

	selected := SelectNewSubmissions(pool, consumed, lastRunAt)
	if len(selected) == 0 {
		noNew := apperr.New(apperr.CodeNoNewSubmissions, "every submission has already been analyzed").
			WithDetail("totalSubmissions", len(pool)).
			WithDetail("consumedSubmissions", len(consumed))
		if !lastRunAt.IsZero() {
			noNew = noNew.WithDetail("lastRunAt", lastRunAt)
		}
		return nil, noNew
	}

	run, err := s.score(ctx, counselorID, students, selected)
	if err != nil {
		return nil, err
	}

	if err := s.runRepo.Append(ctx, run); err != nil {
		return nil, err
	}

	// Cache failures must not undo a recorded run.
	if err := s.analysisCache.SetLatestRun(ctx, counselorID, run.Summary()); err != nil {
		s.logger.Warn("failed to cache latest run summary",
			zap.String("counselorId", counselorID),
			zap.String("runId", run.ID),
			zap.Error(err))
	}

	s.logger.Info("analysis run recorded",
		zap.String("counselorId", counselorID),
		zap.String("runId", run.ID),
		zap.Int("subjects", run.SubjectCount),
		zap.Int("submissions", run.SubmissionCount))

	return run, nil
}

// score builds the full run record from the selected submissions. Narrative
// generation order matters: the overall summary goes first so that a dead
// narrative backend aborts the run before per-survey fan-out starts.
func (s *AnalysisService) score(ctx context.Context, counselorID string, students []*model.Student, selected []*model.Submission) (*model.AnalysisRun, error) {
	studentsByID := make(map[string]*model.Student, len(students))
	for _, st := range students {
		studentsByID[st.ID] = st
	}

	surveys := make(map[string]*model.Survey)
	perSubject := make(map[string]map[string]model.SubjectSurveyScore)
	subjectTotals := make(map[string]*model.SubjectAnalysis)
	var subjectOrder []string

	for _, sub := range selected {
		survey, ok := surveys[sub.SurveyID]
		if !ok {
			var err error
			survey, err = s.surveyRepo.GetByID(ctx, sub.SurveyID)
			if err != nil {
				return nil, err
			}
			if survey == nil {
				s.logger.Warn("submission references missing survey",
					zap.String("submissionId", sub.ID),
					zap.String("surveyId", sub.SurveyID))
				continue
			}
			surveys[sub.SurveyID] = survey
		}

		raw := risk.ScaleScore(sub.Answers)
		maxScore := survey.MaxScore()
		riskScore := risk.Score(raw, maxScore)

		if _, ok := perSubject[sub.SubjectID]; !ok {
			perSubject[sub.SubjectID] = make(map[string]model.SubjectSurveyScore)
		}
		perSubject[sub.SubjectID][survey.ID] = model.SubjectSurveyScore{
			RawScore:  raw,
			MaxScore:  maxScore,
			RiskScore: round2(riskScore),
		}

		total, ok := subjectTotals[sub.SubjectID]
		if !ok {
			name := sub.SubjectID
			if st, found := studentsByID[sub.SubjectID]; found {
				name = st.FullName()
			}
			total = &model.SubjectAnalysis{SubjectID: sub.SubjectID, Name: name}
			subjectTotals[sub.SubjectID] = total
			subjectOrder = append(subjectOrder, sub.SubjectID)
		}
		total.RawScore += raw
		total.MaxScore += maxScore
	}

	if len(subjectTotals) == 0 {
		return nil, apperr.New(apperr.CodeNoSubmissionsFound, "no scorable submissions among the new batch")
	}

	subjects := make([]model.SubjectAnalysis, 0, len(subjectOrder))
	var aggregateSum float64
	for _, id := range subjectOrder {
		subj := subjectTotals[id]
		subj.RiskScore = round2(risk.Score(subj.RawScore, subj.MaxScore))
		aggregateSum += subj.RiskScore
		subjects = append(subjects, *subj)
	}
	aggregateRisk := round2(aggregateSum / float64(len(subjects)))

	overall, err := s.narrative.OverallSummary(ctx, subjects, aggregateRisk)
	if err != nil {
		return nil, err
	}

	for i := range subjects {
		assessment, err := s.narrative.SubjectAssessment(ctx, &subjects[i])
		if err != nil {
			return nil, err
		}
		subjects[i].Assessment = assessment
	}

	breakdowns := s.buildBreakdowns(ctx, surveys, perSubject)

	now := time.Now()
	run := &model.AnalysisRun{
		// Runs share one collection, so the time-derived id is scoped by
		// counselor to keep same-millisecond runs from colliding on _id.
		ID:          fmt.Sprintf("%s-%d", counselorID, now.UnixMilli()),
		CounselorID: counselorID,
		CreatedAt:   now,
		Result: model.RunResult{
			Subjects:           subjects,
			SurveyBreakdowns:   breakdowns,
			AggregateRiskScore: aggregateRisk,
			OverallSummary:     overall,
		},
		SubjectCount:              len(subjects),
		SubmissionCount:           len(selected),
		PerSubjectPerSurveyScores: perSubject,
	}
	for _, survey := range surveys {
		run.SurveysUsed = append(run.SurveysUsed, survey.Descriptor())
	}
	for _, sub := range selected {
		run.ConsumedSubmissionIDs = append(run.ConsumedSubmissionIDs, sub.ID)
	}
	return run, nil
}

// buildBreakdowns computes per-survey averages and fans narrative generation
// out across surveys. A narrative failure here is isolated: the breakdown
// keeps its numbers and ships with an empty narrative.
func (s *AnalysisService) buildBreakdowns(ctx context.Context, surveys map[string]*model.Survey, perSubject map[string]map[string]model.SubjectSurveyScore) []model.SurveyBreakdown {
	breakdowns := make([]model.SurveyBreakdown, 0, len(surveys))
	for _, survey := range surveys {
		bd := model.SurveyBreakdown{
			Survey:        survey.Descriptor(),
			SubjectScores: make(map[string]model.SubjectSurveyScore),
		}
		var sum float64
		for subjectID, scores := range perSubject {
			if score, ok := scores[survey.ID]; ok {
				bd.SubjectScores[subjectID] = score
				sum += score.RiskScore
			}
		}
		if n := len(bd.SubjectScores); n > 0 {
			bd.AvgRiskScore = round2(sum / float64(n))
		}
		breakdowns = append(breakdowns, bd)
	}

	var wg sync.WaitGroup
	for i := range breakdowns {
		wg.Add(1)
		go func(bd *model.SurveyBreakdown) {
			defer wg.Done()
			narrative, err := s.narrative.SurveyNarrative(ctx, bd)
			if err != nil {
				s.logger.Warn("survey narrative failed",
					zap.String("surveyId", bd.Survey.ID),
					zap.Error(err))
				return
			}
			bd.Narrative = narrative
		}(&breakdowns[i])
	}
	wg.Wait()

	return breakdowns
}

// History returns the counselor's runs as compact summaries, oldest first.
func (s *AnalysisService) History(ctx context.Context, counselorID string) ([]*model.RunSummary, error) {
	runs, err := s.runRepo.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	summaries := make([]*model.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, run.Summary())
	}
	return summaries, nil
}

// GetRun returns one full run record.
func (s *AnalysisService) GetRun(ctx context.Context, counselorID, runID string) (*model.AnalysisRun, error) {
	run, err := s.runRepo.GetByID(ctx, counselorID, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.New(apperr.CodeNotFound, "analysis run not found")
	}
	return run, nil
}

// Latest returns the most recent run summary, preferring the cache and
// falling back to history when the cache is cold.
func (s *AnalysisService) Latest(ctx context.Context, counselorID string) (*model.RunSummary, error) {
	summary, err := s.analysisCache.GetLatestRun(ctx, counselorID)
	if err != nil {
		s.logger.Warn("latest-run cache read failed", zap.String("counselorId", counselorID), zap.Error(err))
	}
	if summary != nil {
		return summary, nil
	}

	runs, err := s.runRepo.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, apperr.New(apperr.CodeNotFound, "no analysis runs recorded yet")
	}
	latest := runs[len(runs)-1]
	return latest.Summary(), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
