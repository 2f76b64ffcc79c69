package model

import "time"

// Answer is one (question, chosen option) pair within a submission. Each
// answer carries the option list it was presented with, so scoring can
// validate the chosen option without a survey lookup.
type Answer struct {
	Question     string   `json:"question" bson:"question"`
	Options      []string `json:"options" bson:"options"`
	ChosenOption string   `json:"chosenOption" bson:"chosenOption"`
}

// Submission is one completed questionnaire. Immutable once created; the
// scoring engine never mutates it, and a re-take is a new submission.
type Submission struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	SurveyID    string    `json:"surveyId" bson:"surveyId"`
	SubjectID   string    `json:"subjectId" bson:"subjectId"`
	CounselorID string    `json:"counselorId" bson:"counselorId"`
	Answers     []Answer  `json:"answers" bson:"answers"`
	CompletedAt time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}
