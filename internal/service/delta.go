package service

import (
	"time"

	"counselhub/internal/model"
)

// SelectNewSubmissions filters the full submission pool down to the ones a
// new analysis run should consume. A submission passes only when its id has
// never been consumed by a prior run AND it completed after the last run (a
// submission with no completion timestamp passes the recency check). On a
// first run both criteria are vacuous and everything passes. Input order is
// preserved.
func SelectNewSubmissions(pool []*model.Submission, consumed map[string]struct{}, lastRunAt time.Time) []*model.Submission {
	var selected []*model.Submission
	for _, sub := range pool {
		if _, ok := consumed[sub.ID]; ok {
			continue
		}
		if !lastRunAt.IsZero() && !sub.CompletedAt.IsZero() && !sub.CompletedAt.After(lastRunAt) {
			continue
		}
		selected = append(selected, sub)
	}
	return selected
}

// runHistoryStats folds a counselor's prior runs into the two inputs delta
// selection needs: the timestamp of the most recent run and the union of all
// submission ids any run has consumed.
func runHistoryStats(prior []*model.AnalysisRun) (time.Time, map[string]struct{}) {
	var lastRunAt time.Time
	consumed := make(map[string]struct{})
	for _, run := range prior {
		if run.CreatedAt.After(lastRunAt) {
			lastRunAt = run.CreatedAt
		}
		for _, id := range run.ConsumedSubmissionIDs {
			consumed[id] = struct{}{}
		}
	}
	return lastRunAt, consumed
}
