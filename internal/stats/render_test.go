package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/steady/internal/model"
)

func TestRenderDecision(t *testing.T) {
	out := model.DecisionOutput{
		DoThisNow:    []string{"Stay close and calm", "Name the feeling out loud for them"},
		AvoidThis:    []string{"Lecturing mid-meltdown"},
		WhyThisWorks: "A calm adult helps a flooded brain settle.",
	}
	var buf bytes.Buffer
	if err := RenderDecision(&buf, model.SituationTantrum, model.ApproachConnectRedirect, out, 24); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"Tantrum / Meltdown · Connect → Redirect\n",
		"1. Stay close and calm\n",
		"2. Name the feeling out\n   loud for them\n",
		"- Lecturing mid-meltdown\n",
		"Why this works\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestRenderDashboardWithoutData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderDashboard(&buf, model.DashboardInsightsSummary{TotalTracked: 1}, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Track 2 more outcome(s)") {
		t.Fatalf("unexpected dashboard output:\n%s", buf.String())
	}
}

func TestRenderInsightsIncludesPatterns(t *testing.T) {
	log := concat(
		outcomes(5, model.OutcomeNotSuccess, model.OutcomeContextRushed),
		outcomes(5, model.OutcomeSuccess),
	)
	in := ComputeInsights(log, model.ApproachConnectRedirect, model.SituationTantrum)
	var buf bytes.Buffer
	if err := RenderInsights(&buf, in, baseTime); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"Success rate: 50%", "Last used: Today", "Insight: Less effective when rushed", "Rushed"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil, baseTime); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No history yet.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
