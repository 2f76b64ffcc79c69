package model

import "time"

// Counselor is a guidance counselor. Submissions and analysis runs are owned
// by the counselor and stored as separate collections keyed by counselor id;
// the counselor document itself stays small.
type Counselor struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" bson:"email"`
	FirstName string    `json:"firstName" bson:"firstName"`
	LastName  string    `json:"lastName" bson:"lastName"`
	Classes   []string  `json:"classes" bson:"classes"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Student is referenced by analyses as a subject; students own neither
// submissions nor runs.
type Student struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	CounselorID string `json:"counselorId" bson:"counselorId"`
	FirstName   string `json:"firstName" bson:"firstName"`
	LastName    string `json:"lastName" bson:"lastName"`
	Class       string `json:"class,omitempty" bson:"class,omitempty"`
	Age         int    `json:"age,omitempty" bson:"age,omitempty"`
}

// FullName returns the display name used in narrative requests.
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
