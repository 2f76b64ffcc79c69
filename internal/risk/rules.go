package risk

// Strengths holds the membership degrees of a raw score against the three
// input terms, each in [0, 1].
type Strengths struct {
	Low  float64
	Mid  float64
	High float64
}

// Evaluate computes the rule strength of a raw score against the model's
// input terms.
func Evaluate(score float64, m Model) Strengths {
	return Strengths{
		Low:  membership(score, m.InLow),
		Mid:  membership(score, m.InMid),
		High: membership(score, m.InHigh),
	}
}

// membership is the standard triangular function. The peak is checked first
// so shouldered terms (left == peak, as in the low input term) resolve to 1
// at the peak and fall straight into the descending branch for x in
// (left, right), never dividing by zero.
func membership(x float64, t Term) float64 {
	if x == t.Peak {
		return 1
	}
	if x <= t.Left || x >= t.Right {
		return 0
	}
	if x < t.Peak {
		return (x - t.Left) / (t.Peak - t.Left)
	}
	return (t.Right - x) / (t.Right - t.Peak)
}
