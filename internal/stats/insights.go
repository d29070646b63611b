package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/steady/internal/model"
)

// Insight thresholds.
const (
	MinSampleSizeForPattern = 5
	MinDifferenceForPattern = 0.20
	MinRatedForStatement    = 10
	MinRatedForDashboard    = 3

	// rates are ratios of small integers; the epsilon keeps 0.6-0.4 at the boundary.
	rateEpsilon = 1e-9
)

type tally struct {
	successes int
	failures  int
}

func (t *tally) add(o model.OutcomeType) {
	switch o {
	case model.OutcomeSuccess:
		t.successes++
	case model.OutcomeNotSuccess:
		t.failures++
	}
}

func (t tally) rated() int {
	return t.successes + t.failures
}

func (t tally) rate() float64 {
	if t.rated() == 0 {
		return 0
	}
	return float64(t.successes) / float64(t.rated())
}

// ComputeInsights aggregates an already-filtered, newest-first outcome slice.
func ComputeInsights(outcomes []model.InteractionOutcome, approach model.Approach, situation model.Situation) model.ApproachInsights {
	var overall tally
	for _, o := range outcomes {
		overall.add(o.Outcome)
	}
	insights := model.ApproachInsights{
		ApproachID:     approach,
		SituationID:    situation,
		TotalUses:      len(outcomes),
		TotalSuccesses: overall.successes,
		TotalFailures:  overall.failures,
		RatedCount:     overall.rated(),
		SuccessRate:    overall.rate(),
	}
	if len(outcomes) > 0 {
		last := outcomes[0].Timestamp
		insights.LastUsed = &last
	}
	insights.Patterns = contextPatterns(outcomes, insights.SuccessRate)
	insights.Statement = primaryStatement(overall, insights.Patterns)
	return insights
}

func contextPatterns(outcomes []model.InteractionOutcome, baseline float64) []model.InsightPattern {
	patterns := []model.InsightPattern{}
	for _, ctx := range model.OutcomeContexts {
		var t tally
		for _, o := range outcomes {
			if o.HasContext(ctx) {
				t.add(o.Outcome)
			}
		}
		if t.rated() < MinSampleSizeForPattern {
			continue
		}
		rate := t.rate()
		diff := rate - baseline
		if math.Abs(diff) < rateEpsilon {
			continue
		}
		label := strings.ToLower(ctx.Label())
		statement := fmt.Sprintf("Less effective when %s", label)
		if diff > 0 {
			statement = fmt.Sprintf("Works better when %s", label)
		}
		patterns = append(patterns, model.InsightPattern{
			Context:       ctx,
			SuccessRate:   rate,
			SampleSize:    t.rated(),
			Statement:     statement,
			IsSignificant: math.Abs(diff) >= MinDifferenceForPattern-rateEpsilon,
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].IsSignificant != patterns[j].IsSignificant {
			return patterns[i].IsSignificant
		}
		return math.Abs(patterns[i].SuccessRate-baseline) > math.Abs(patterns[j].SuccessRate-baseline)
	})
	return patterns
}

func primaryStatement(overall tally, patterns []model.InsightPattern) *string {
	for _, p := range patterns {
		if p.IsSignificant {
			s := p.Statement
			return &s
		}
	}
	if overall.rated() >= MinRatedForStatement {
		s := fmt.Sprintf("Helped %d of %d times", overall.successes, overall.rated())
		return &s
	}
	return nil
}

// FormatTimeSinceUse renders how long ago an approach was last used.
// Timestamps ahead of now (clock skew) read as "Today".
func FormatTimeSinceUse(last *time.Time, now time.Time) string {
	if last == nil {
		return "Never used"
	}
	days := int(now.Sub(*last).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		if weeks := days / 7; weeks > 1 {
			return fmt.Sprintf("%d weeks ago", weeks)
		}
		return "1 week ago"
	default:
		if months := days / 30; months > 1 {
			return fmt.Sprintf("%d months ago", months)
		}
		return "1 month ago"
	}
}
