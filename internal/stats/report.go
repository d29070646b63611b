package stats

import (
	"context"

	"github.com/verte-zerg/steady/internal/model"
)

// DefaultTrendWindow is the moving-average window for the success trend.
const DefaultTrendWindow = 5

// Report contains precomputed data for insights rendering.
type Report struct {
	Dashboard  model.DashboardInsightsSummary `json:"dashboard" yaml:"dashboard"`
	Trend      []float64                      `json:"trend" yaml:"trend"`
	Approaches []model.ApproachInsights       `json:"approaches" yaml:"approaches"`
	Situations []SituationInsights            `json:"situations" yaml:"situations"`
}

// BuildReport loads every insight view for a child (nil = all outcomes).
func BuildReport(ctx context.Context, in *Insights, childID *string, trendWindow int) (Report, error) {
	dashboard, err := in.GetDashboardInsightsSummary(ctx, childID)
	if err != nil {
		return Report{}, err
	}
	recent, err := in.Source.FilteredOutcomes(ctx, model.OutcomeFilters{ChildID: childID, RangeDays: DashboardRangeDays})
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Dashboard: dashboard,
		Trend:     SuccessTrend(recent, trendWindow),
	}
	for _, approach := range model.Approaches {
		ai, err := in.ComputeApproachInsights(ctx, approach, "", childID)
		if err != nil {
			return Report{}, err
		}
		report.Approaches = append(report.Approaches, ai)
	}
	for _, situation := range model.Situations {
		si, err := in.GetSituationInsights(ctx, situation, childID)
		if err != nil {
			return Report{}, err
		}
		report.Situations = append(report.Situations, si)
	}
	return report, nil
}
