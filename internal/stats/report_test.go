package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/steady/internal/model"
	"github.com/verte-zerg/steady/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "steady.db")
	st, err := store.Open(dbPath, store.WithClock(func() time.Time { return baseTime }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	results := []model.OutcomeType{
		model.OutcomeSuccess,
		model.OutcomeNotSuccess,
		model.OutcomeSuccess,
		model.OutcomeUnknown,
	}
	for i, result := range results {
		o := model.InteractionOutcome{
			ApproachID:  model.ApproachConnectRedirect,
			SituationID: model.SituationBedtime,
			Timestamp:   baseTime.Add(-time.Duration(len(results)-i) * time.Hour),
			Outcome:     result,
		}
		if _, err := st.AddOutcome(ctx, o); err != nil {
			t.Fatalf("add outcome: %v", err)
		}
	}

	report, err := BuildReport(ctx, NewInsights(st), nil, 2)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if !report.Dashboard.HasMinimumData || report.Dashboard.TotalTracked != 3 {
		t.Fatalf("unexpected dashboard: %+v", report.Dashboard)
	}
	if report.Dashboard.TopApproach.ApproachID != model.ApproachConnectRedirect {
		t.Fatalf("unexpected top approach: %+v", report.Dashboard.TopApproach)
	}
	if len(report.Trend) != 3 || report.Trend[2] != 0.5 {
		t.Fatalf("unexpected trend: %v", report.Trend)
	}
	if len(report.Approaches) != len(model.Approaches) || report.Approaches[0].TotalUses != 4 {
		t.Fatalf("unexpected approach insights: %+v", report.Approaches)
	}
	if len(report.Situations) != len(model.Situations) {
		t.Fatalf("expected one entry per situation, got %d", len(report.Situations))
	}
	for _, si := range report.Situations {
		if si.Situation == model.SituationBedtime && si.ConnectRedirect.TotalSuccesses != 2 {
			t.Fatalf("unexpected bedtime insights: %+v", si)
		}
	}
}
