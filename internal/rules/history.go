package rules

import (
	"time"

	"github.com/verte-zerg/steady/internal/model"
)

// History-driven step text.
const (
	ResetStep         = "Try a calm reset first—take a breath, then begin fresh."
	NormalizationStep = "This is a pattern—that's normal. Consistency over time is what matters."
)

const (
	rotationWindow       = 48 * time.Hour
	recurringWeeklyCount = 3
)

// Adjustments are light, deterministic variations derived from history.
// The zero value means no history.
type Adjustments struct {
	PrependStep     string
	AppendStep      string
	RotateFirstStep bool
}

// HistoryAdjustments evaluates the three history signals for a situation independently.
func HistoryAdjustments(situation model.Situation, summary *model.HistorySummary) Adjustments {
	var adj Adjustments
	if summary == nil {
		return adj
	}
	if summary.LastOutcomeRatingBySituation[situation] == model.RatingDidnt {
		adj.PrependStep = ResetStep
	}
	// Rotation needs the summary instant; a zero At or a lastShown after At is ignored.
	if lastShown, ok := summary.LastShownBySituation[situation]; ok && !lastShown.IsZero() && !summary.At.IsZero() {
		if !lastShown.After(summary.At) && summary.At.Sub(lastShown) < rotationWindow {
			adj.RotateFirstStep = true
		}
	}
	if summary.ShownCountLast7DaysBySituation[situation] >= recurringWeeklyCount {
		adj.AppendStep = NormalizationStep
	}
	return adj
}
