package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/steady/internal/model"
)

var baseTime = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

// outcomes builds n outcomes of one type, newest first, each an hour older than the last.
func outcomes(n int, outcome model.OutcomeType, contexts ...model.OutcomeContext) []model.InteractionOutcome {
	out := make([]model.InteractionOutcome, n)
	for i := range out {
		out[i] = model.InteractionOutcome{
			ID:          fmt.Sprintf("%s-%d", outcome, i),
			UserID:      model.DefaultUserID,
			ApproachID:  model.ApproachConnectRedirect,
			SituationID: model.SituationTantrum,
			Timestamp:   baseTime.Add(-time.Duration(i) * time.Hour),
			Outcome:     outcome,
			Contexts:    contexts,
		}
	}
	return out
}

func concat(parts ...[]model.InteractionOutcome) []model.InteractionOutcome {
	var out []model.InteractionOutcome
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func findPattern(in model.ApproachInsights, ctx model.OutcomeContext) *model.InsightPattern {
	for i := range in.Patterns {
		if in.Patterns[i].Context == ctx {
			return &in.Patterns[i]
		}
	}
	return nil
}

func TestComputeInsightsEmpty(t *testing.T) {
	got := ComputeInsights(nil, model.ApproachConnectRedirect, "")
	want := model.ApproachInsights{
		ApproachID: model.ApproachConnectRedirect,
		Patterns:   []model.InsightPattern{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("empty insights (-want +got):\n%s", diff)
	}
}

func TestComputeInsightsBasicCounts(t *testing.T) {
	log := concat(
		outcomes(2, model.OutcomeSuccess),
		outcomes(1, model.OutcomeNotSuccess),
	)
	got := ComputeInsights(log, model.ApproachConnectRedirect, model.SituationTantrum)
	if got.TotalUses != 3 || got.TotalSuccesses != 2 || got.TotalFailures != 1 || got.RatedCount != 3 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.SuccessRate < 0.666 || got.SuccessRate > 0.667 {
		t.Fatalf("expected ~0.667 success rate, got %f", got.SuccessRate)
	}
	if got.LastUsed == nil || !got.LastUsed.Equal(log[0].Timestamp) {
		t.Fatalf("expected last used to be the first entry, got %v", got.LastUsed)
	}
	if got.SituationID != model.SituationTantrum {
		t.Fatalf("expected situation to be echoed, got %q", got.SituationID)
	}
}

func TestComputeInsightsExcludesUnknown(t *testing.T) {
	log := concat(
		outcomes(1, model.OutcomeSuccess),
		outcomes(1, model.OutcomeUnknown),
		outcomes(1, model.OutcomeNotSuccess),
	)
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	if got.TotalUses != 3 || got.RatedCount != 2 || got.SuccessRate != 0.5 {
		t.Fatalf("expected 3 uses, 2 rated, 0.5 rate; got %+v", got)
	}
}

func TestComputeInsightsGeneralStatement(t *testing.T) {
	log := concat(outcomes(8, model.OutcomeSuccess), outcomes(4, model.OutcomeNotSuccess))
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	if got.Statement == nil || *got.Statement != "Helped 8 of 12 times" {
		t.Fatalf("unexpected statement: %v", got.Statement)
	}

	few := ComputeInsights(outcomes(5, model.OutcomeSuccess), model.ApproachConnectRedirect, "")
	if few.Statement != nil {
		t.Fatalf("expected no statement below 10 rated, got %q", *few.Statement)
	}
}

func TestComputeInsightsPositivePattern(t *testing.T) {
	log := concat(
		outcomes(5, model.OutcomeSuccess, model.OutcomeContextTired),
		outcomes(1, model.OutcomeSuccess),
		outcomes(4, model.OutcomeNotSuccess),
	)
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	p := findPattern(got, model.OutcomeContextTired)
	if p == nil {
		t.Fatalf("expected tired pattern")
	}
	if !p.IsSignificant || p.SuccessRate != 1.0 || p.Statement != "Works better when tired" {
		t.Fatalf("unexpected pattern: %+v", p)
	}
	if got.Statement == nil || *got.Statement != "Works better when tired" {
		t.Fatalf("significant pattern should drive the statement, got %v", got.Statement)
	}
}

func TestComputeInsightsNegativePattern(t *testing.T) {
	log := concat(
		outcomes(5, model.OutcomeNotSuccess, model.OutcomeContextRushed),
		outcomes(5, model.OutcomeSuccess),
	)
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	p := findPattern(got, model.OutcomeContextRushed)
	if p == nil || !p.IsSignificant || p.SuccessRate != 0 || p.Statement != "Less effective when rushed" {
		t.Fatalf("unexpected rushed pattern: %+v", p)
	}
}

func TestComputeInsightsSampleSizeGate(t *testing.T) {
	four := concat(
		outcomes(4, model.OutcomeSuccess, model.OutcomeContextHungry),
		outcomes(6, model.OutcomeNotSuccess),
	)
	if p := findPattern(ComputeInsights(four, model.ApproachConnectRedirect, ""), model.OutcomeContextHungry); p != nil {
		t.Fatalf("4 rated samples must not produce a pattern: %+v", p)
	}

	five := concat(
		outcomes(5, model.OutcomeSuccess, model.OutcomeContextHungry),
		outcomes(6, model.OutcomeNotSuccess),
	)
	if p := findPattern(ComputeInsights(five, model.ApproachConnectRedirect, ""), model.OutcomeContextHungry); p == nil {
		t.Fatalf("5 rated samples should produce a pattern")
	}

	unknowns := concat(
		outcomes(4, model.OutcomeSuccess, model.OutcomeContextHungry),
		outcomes(3, model.OutcomeUnknown, model.OutcomeContextHungry),
		outcomes(6, model.OutcomeNotSuccess),
	)
	if p := findPattern(ComputeInsights(unknowns, model.ApproachConnectRedirect, ""), model.OutcomeContextHungry); p != nil {
		t.Fatalf("unknown outcomes must not count toward the sample size: %+v", p)
	}
}

func TestComputeInsightsSignificanceBoundaryInclusive(t *testing.T) {
	exact := concat(
		outcomes(3, model.OutcomeSuccess, model.OutcomeContextTired),
		outcomes(2, model.OutcomeNotSuccess, model.OutcomeContextTired),
		outcomes(1, model.OutcomeSuccess),
		outcomes(4, model.OutcomeNotSuccess),
	)
	// overall 4/10 = 0.4; tired 3/5 = 0.6 -> exactly 0.2 apart.
	in := ComputeInsights(exact, model.ApproachConnectRedirect, "")
	p := findPattern(in, model.OutcomeContextTired)
	if p == nil {
		t.Fatalf("expected tired pattern at the boundary")
	}
	if !p.IsSignificant {
		t.Fatalf("a 20 point difference should be significant (inclusive), got %+v", p)
	}
}

func TestComputeInsightsDropsPatternEqualToBaseline(t *testing.T) {
	log := concat(
		outcomes(3, model.OutcomeSuccess, model.OutcomeContextTired),
		outcomes(3, model.OutcomeNotSuccess, model.OutcomeContextTired),
		outcomes(2, model.OutcomeSuccess),
		outcomes(2, model.OutcomeNotSuccess),
	)
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	if p := findPattern(got, model.OutcomeContextTired); p != nil {
		t.Fatalf("pattern equal to baseline should be dropped: %+v", p)
	}
}

func TestComputeInsightsPatternOrdering(t *testing.T) {
	log := concat(
		// hungry: 5/5 success, significant
		outcomes(5, model.OutcomeSuccess, model.OutcomeContextHungry),
		// tired: 3/6, close to baseline, not significant
		outcomes(3, model.OutcomeSuccess, model.OutcomeContextTired),
		outcomes(3, model.OutcomeNotSuccess, model.OutcomeContextTired),
		// rushed: 0/6, significant and further from baseline
		outcomes(6, model.OutcomeNotSuccess, model.OutcomeContextRushed),
		outcomes(4, model.OutcomeSuccess),
	)
	// overall 12/21 ≈ 0.571: hungry +0.43, rushed -0.57, tired -0.07.
	got := ComputeInsights(log, model.ApproachConnectRedirect, "")
	var order []model.OutcomeContext
	for _, p := range got.Patterns {
		order = append(order, p.Context)
	}
	want := []model.OutcomeContext{model.OutcomeContextRushed, model.OutcomeContextHungry, model.OutcomeContextTired}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("pattern order (-want +got):\n%s", diff)
	}
	if got.Patterns[2].IsSignificant {
		t.Fatalf("tired pattern should not be significant")
	}
	if *got.Statement != "Less effective when rushed" {
		t.Fatalf("statement should come from the strongest significant pattern, got %q", *got.Statement)
	}
}

func TestFormatTimeSinceUse(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return &ts
	}
	tests := []struct {
		last *time.Time
		want string
	}{
		{last: nil, want: "Never used"},
		{last: at("2024-01-15T08:00:00Z"), want: "Today"},
		{last: at("2024-01-17T08:00:00Z"), want: "Today"},
		{last: at("2024-01-14T08:00:00Z"), want: "Yesterday"},
		{last: at("2024-01-12T08:00:00Z"), want: "3 days ago"},
		{last: at("2024-01-08T08:00:00Z"), want: "1 week ago"},
		{last: at("2024-01-01T08:00:00Z"), want: "2 weeks ago"},
		{last: at("2023-12-15T08:00:00Z"), want: "1 month ago"},
		{last: at("2023-11-15T08:00:00Z"), want: "2 months ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeSinceUse(tt.last, now); got != tt.want {
			t.Fatalf("FormatTimeSinceUse(%v) = %q, want %q", tt.last, got, tt.want)
		}
	}
}
