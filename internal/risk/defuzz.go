package risk

import "math"

// Defuzzify converts rule strengths into a crisp risk score in [0, 100] by
// center of gravity over the output domain sampled at every integer point.
// Each term's contribution at a sample is min(strength, membership), and all
// three terms' contributions are summed directly into the weighted average.
// That is a deliberate simplification of clipped-and-unioned area (the
// overlap bands are counted once per term, not maxed); downstream values
// depend on it, so it must not be "corrected" to textbook COG.
func Defuzzify(s Strengths, m Model) float64 {
	num, den := 0.0, 0.0
	for x := 0; x <= 100; x++ {
		fx := float64(x)
		num, den = accumulate(num, den, fx, s.Low, m.OutLow)
		num, den = accumulate(num, den, fx, s.Mid, m.OutMid)
		num, den = accumulate(num, den, fx, s.High, m.OutHigh)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func accumulate(num, den, x, strength float64, t Term) (float64, float64) {
	mu := math.Min(strength, membership(x, t))
	return num + x*mu, den + mu
}

// Score runs the full pipeline for one raw score against one maximum:
// build, evaluate, defuzzify. Rounding is left to the caller.
func Score(raw int, maxScore int) float64 {
	m := BuildModel(float64(maxScore))
	return Defuzzify(Evaluate(float64(raw), m), m)
}
