// Package risk implements the fuzzy risk-scoring core: raw scale scoring,
// triangular membership model construction, rule evaluation and
// center-of-gravity defuzzification. Everything here is pure computation;
// callers own persistence, logging and rounding.
package risk

import "counselhub/internal/model"

// ScaleScore maps a submission's answers to a raw score: each answer
// contributes its chosen option's one-based position in the option list.
// An answer whose chosen option is not in the list contributes zero; it is
// ignored, not rejected, so malformed data never aborts scoring.
func ScaleScore(answers []model.Answer) int {
	total := 0
	for _, a := range answers {
		for i, opt := range a.Options {
			if opt == a.ChosenOption {
				total += i + 1
				break
			}
		}
	}
	return total
}
