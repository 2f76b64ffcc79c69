package model

import "time"

// Question is an ordered list of selectable options; a chosen option's
// position in the list is its ordinal value for scoring.
type Question struct {
	Text    string   `json:"text" bson:"text"`
	Options []string `json:"options" bson:"options"`
}

// Survey is a questionnaire template created by a counselor.
type Survey struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	CounselorID string     `json:"counselorId" bson:"counselorId"`
	Title       string     `json:"title" bson:"title"`
	Questions   []Question `json:"questions" bson:"questions"`
	IsActive    bool       `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// MaxScore is the theoretical maximum raw score: question count times the
// option count of the first question (option counts are uniform across a
// survey's questions).
func (s *Survey) MaxScore() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return len(s.Questions) * len(s.Questions[0].Options)
}

// Descriptor returns the compact shape persisted inside analysis runs.
func (s *Survey) Descriptor() SurveyDescriptor {
	d := SurveyDescriptor{
		ID:            s.ID,
		Title:         s.Title,
		QuestionCount: len(s.Questions),
	}
	if len(s.Questions) > 0 {
		d.OptionCount = len(s.Questions[0].Options)
	}
	return d
}

// SurveyDescriptor identifies a survey as used by a recorded analysis run.
type SurveyDescriptor struct {
	ID            string `json:"id" bson:"id"`
	Title         string `json:"title" bson:"title"`
	QuestionCount int    `json:"questionCount" bson:"questionCount"`
	OptionCount   int    `json:"optionCount" bson:"optionCount"`
}
