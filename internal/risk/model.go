package risk

// DefaultMaxScore is substituted when a survey's maximum is zero or unknown,
// so a degenerate model is never built.
const DefaultMaxScore = 100

// Term is a triangular membership function parameterized as (left, peak,
// right). Left == peak (or peak == right) gives a shouldered term.
type Term struct {
	Left  float64
	Peak  float64
	Right float64
}

// Model holds three input terms over the raw-score domain [0, maxScore] and
// three fixed output terms over the 0-100 risk domain. The input terms
// overlap so scores near a boundary produce blended strengths; the output
// terms are fixed in absolute risk space so crisp scores stay comparable
// across surveys of different length.
type Model struct {
	MaxScore float64

	InLow  Term
	InMid  Term
	InHigh Term

	OutLow  Term
	OutMid  Term
	OutHigh Term
}

// BuildModel derives the fuzzy model for a given maximum raw score. The
// model is cheap to build and is rebuilt on every scoring call; it is never
// shared across different maxima.
func BuildModel(maxScore float64) Model {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	return Model{
		MaxScore: maxScore,

		InLow:  Term{0, 0, 0.40 * maxScore},
		InMid:  Term{0.25 * maxScore, 0.50 * maxScore, 0.75 * maxScore},
		InHigh: Term{0.60 * maxScore, maxScore, maxScore},

		OutLow:  Term{0, 0, 40},
		OutMid:  Term{30, 50, 70},
		OutHigh: Term{60, 85, 100},
	}
}
