package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/steady/internal/model"
)

// DashboardRangeDays is the trailing window used by the dashboard.
const DashboardRangeDays = 30

// TieBreakApproach wins the dashboard when successes and rated counts are equal.
const TieBreakApproach = model.ApproachEmotionCoaching

// OutcomeSource reads the outcome log newest-first.
type OutcomeSource interface {
	FilteredOutcomes(ctx context.Context, filters model.OutcomeFilters) ([]model.InteractionOutcome, error)
}

// Insights computes outcome statistics over a source.
// Trailing windows are resolved by the source's own clock.
type Insights struct {
	Source OutcomeSource
}

// NewInsights returns Insights reading from src.
func NewInsights(src OutcomeSource) *Insights {
	return &Insights{Source: src}
}

// ComputeApproachInsights aggregates all outcomes for an approach, optionally narrowed
// to a situation ("" = any) and child (nil = any).
func (in *Insights) ComputeApproachInsights(ctx context.Context, approach model.Approach, situation model.Situation, childID *string) (model.ApproachInsights, error) {
	return in.insightsFor(ctx, model.OutcomeFilters{ChildID: childID, Approach: approach, Situation: situation})
}

func (in *Insights) insightsFor(ctx context.Context, filters model.OutcomeFilters) (model.ApproachInsights, error) {
	outcomes, err := in.Source.FilteredOutcomes(ctx, filters)
	if err != nil {
		return model.ApproachInsights{}, err
	}
	return ComputeInsights(outcomes, filters.Approach, filters.Situation), nil
}

// SituationInsights holds both approaches restricted to one situation.
type SituationInsights struct {
	Situation       model.Situation        `json:"situation" yaml:"situation"`
	ConnectRedirect model.ApproachInsights `json:"connectRedirect" yaml:"connectRedirect"`
	EmotionCoaching model.ApproachInsights `json:"emotionCoaching" yaml:"emotionCoaching"`
}

// GetSituationInsights compares both approaches for one situation.
func (in *Insights) GetSituationInsights(ctx context.Context, situation model.Situation, childID *string) (SituationInsights, error) {
	cr, err := in.ComputeApproachInsights(ctx, model.ApproachConnectRedirect, situation, childID)
	if err != nil {
		return SituationInsights{}, err
	}
	ec, err := in.ComputeApproachInsights(ctx, model.ApproachEmotionCoaching, situation, childID)
	if err != nil {
		return SituationInsights{}, err
	}
	return SituationInsights{Situation: situation, ConnectRedirect: cr, EmotionCoaching: ec}, nil
}

// GetDashboardInsightsSummary picks the top approach over the trailing window.
func (in *Insights) GetDashboardInsightsSummary(ctx context.Context, childID *string) (model.DashboardInsightsSummary, error) {
	recent, err := in.Source.FilteredOutcomes(ctx, model.OutcomeFilters{ChildID: childID, RangeDays: DashboardRangeDays})
	if err != nil {
		return model.DashboardInsightsSummary{}, err
	}
	tracked := 0
	for _, o := range recent {
		if o.Outcome.Rated() {
			tracked++
		}
	}
	if tracked < MinRatedForDashboard {
		return model.DashboardInsightsSummary{TotalTracked: tracked}, nil
	}

	cr, err := in.insightsFor(ctx, model.OutcomeFilters{ChildID: childID, Approach: model.ApproachConnectRedirect, RangeDays: DashboardRangeDays})
	if err != nil {
		return model.DashboardInsightsSummary{}, err
	}
	ec, err := in.insightsFor(ctx, model.OutcomeFilters{ChildID: childID, Approach: model.ApproachEmotionCoaching, RangeDays: DashboardRangeDays})
	if err != nil {
		return model.DashboardInsightsSummary{}, err
	}
	top := SelectTopApproach(cr, ec)
	return model.DashboardInsightsSummary{
		TopApproach:    &top,
		TotalTracked:   tracked,
		HasMinimumData: true,
	}, nil
}

// SelectTopApproach prefers more successes, then more rated outcomes, then TieBreakApproach.
func SelectTopApproach(a, b model.ApproachInsights) model.ApproachInsights {
	switch {
	case a.TotalSuccesses != b.TotalSuccesses:
		if a.TotalSuccesses > b.TotalSuccesses {
			return a
		}
		return b
	case a.RatedCount != b.RatedCount:
		if a.RatedCount > b.RatedCount {
			return a
		}
		return b
	case b.ApproachID == TieBreakApproach:
		return b
	default:
		return a
	}
}

// OutcomeLog is an in-memory OutcomeSource over a newest-first slice.
type OutcomeLog struct {
	Outcomes []model.InteractionOutcome
	Now      func() time.Time
}

// FilteredOutcomes implements OutcomeSource.
func (l OutcomeLog) FilteredOutcomes(_ context.Context, filters model.OutcomeFilters) ([]model.InteractionOutcome, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	var out []model.InteractionOutcome
	for _, o := range l.Outcomes {
		if filters.Match(o, now) {
			out = append(out, o)
		}
	}
	return out, nil
}
