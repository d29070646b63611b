// Package stats derives history summaries and outcome insights.
package stats

import (
	"time"

	"github.com/verte-zerg/steady/internal/model"
)

const summaryWindow = 7 * 24 * time.Hour

// SummarizeHistory derives per-situation recency facts from the history log in one pass.
func SummarizeHistory(events []model.HistoryEvent, now time.Time) model.HistorySummary {
	summary := model.HistorySummary{
		At:                             now,
		LastShownBySituation:           map[model.Situation]time.Time{},
		ShownCountLast7DaysBySituation: map[model.Situation]int{},
		LastOutcomeRatingBySituation:   map[model.Situation]model.OutcomeRating{},
	}
	weekAgo := now.Add(-summaryWindow)
	for _, ev := range events {
		last, seen := summary.LastShownBySituation[ev.Situation]
		if !seen || ev.Timestamp.After(last) {
			summary.LastShownBySituation[ev.Situation] = ev.Timestamp
			summary.LastOutcomeRatingBySituation[ev.Situation] = ev.Outcome
		}
		if !ev.Timestamp.Before(weekAgo) {
			summary.ShownCountLast7DaysBySituation[ev.Situation]++
		}
	}
	return summary
}
