package model

import "time"

// SubjectSurveyScore is one subject's score on one survey.
type SubjectSurveyScore struct {
	RawScore  int     `json:"rawScore" bson:"rawScore"`
	MaxScore  int     `json:"maxScore" bson:"maxScore"`
	RiskScore float64 `json:"riskScore" bson:"riskScore"`
}

// SubjectAnalysis is the per-subject slice of a run's result payload.
type SubjectAnalysis struct {
	SubjectID  string  `json:"subjectId" bson:"subjectId"`
	Name       string  `json:"name" bson:"name"`
	RawScore   int     `json:"rawScore" bson:"rawScore"`
	MaxScore   int     `json:"maxScore" bson:"maxScore"`
	RiskScore  float64 `json:"riskScore" bson:"riskScore"`
	Assessment string  `json:"assessment" bson:"assessment"`
}

// SurveyBreakdown is the per-survey slice of a run's result payload. A failed
// narrative sub-step leaves Narrative empty without failing the run.
type SurveyBreakdown struct {
	Survey        SurveyDescriptor              `json:"survey" bson:"survey"`
	SubjectScores map[string]SubjectSurveyScore `json:"subjectScores" bson:"subjectScores"`
	AvgRiskScore  float64                       `json:"avgRiskScore" bson:"avgRiskScore"`
	Narrative     string                        `json:"narrative,omitempty" bson:"narrative,omitempty"`
}

// RunResult is the full produced payload of one analysis invocation.
type RunResult struct {
	Subjects           []SubjectAnalysis `json:"subjects" bson:"subjects"`
	SurveyBreakdowns   []SurveyBreakdown `json:"surveyBreakdowns" bson:"surveyBreakdowns"`
	AggregateRiskScore float64           `json:"aggregateRiskScore" bson:"aggregateRiskScore"`
	OverallSummary     string            `json:"overallSummary" bson:"overallSummary"`
}

// AnalysisRun is the persisted unit of analysis work, appended to the owning
// counselor's history and never mutated afterward. ConsumedSubmissionIDs is
// the provenance record that keeps later runs from re-scoring the same
// submissions.
type AnalysisRun struct {
	ID                        string                                   `json:"id" bson:"_id"`
	CounselorID               string                                   `json:"counselorId" bson:"counselorId"`
	CreatedAt                 time.Time                                `json:"createdAt" bson:"createdAt"`
	Result                    RunResult                                `json:"result" bson:"result"`
	SubjectCount              int                                      `json:"subjectCount" bson:"subjectCount"`
	SubmissionCount           int                                      `json:"submissionCount" bson:"submissionCount"`
	SurveysUsed               []SurveyDescriptor                       `json:"surveysUsed" bson:"surveysUsed"`
	PerSubjectPerSurveyScores map[string]map[string]SubjectSurveyScore `json:"perSubjectPerSurveyScores" bson:"perSubjectPerSurveyScores"`
	ConsumedSubmissionIDs     []string                                 `json:"consumedSubmissionIds" bson:"consumedSubmissionIds"`
}

// RunSummary is the compact latest-run shape kept in the cache for the
// counselor dashboard.
type RunSummary struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	SubjectCount       int       `json:"subjectCount"`
	SubmissionCount    int       `json:"submissionCount"`
	AggregateRiskScore float64   `json:"aggregateRiskScore"`
}

// Summary derives the cacheable summary of a run.
func (r *AnalysisRun) Summary() *RunSummary {
	return &RunSummary{
		ID:                 r.ID,
		CreatedAt:          r.CreatedAt,
		SubjectCount:       r.SubjectCount,
		SubmissionCount:    r.SubmissionCount,
		AggregateRiskScore: r.Result.AggregateRiskScore,
	}
}
