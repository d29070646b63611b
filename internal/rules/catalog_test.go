package rules

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/steady/internal/model"
)

func TestBaseGuidanceIsTotal(t *testing.T) {
	for _, approach := range model.Approaches {
		for _, situation := range model.Situations {
			g := BaseGuidance(situation, approach)
			if len(g.DoThisNow) < 2 {
				t.Fatalf("%s/%s: expected at least 2 steps, got %d", approach, situation, len(g.DoThisNow))
			}
			if len(g.AvoidThis) < 2 {
				t.Fatalf("%s/%s: expected at least 2 avoid items, got %d", approach, situation, len(g.AvoidThis))
			}
			if g.WhyThisWorks == "" {
				t.Fatalf("%s/%s: missing rationale", approach, situation)
			}
		}
	}
}

func TestBaseGuidanceFallsBackOutsideVocabulary(t *testing.T) {
	want := BaseGuidance(model.SituationTantrum, model.DefaultApproach)
	if diff := cmp.Diff(want, BaseGuidance(model.Situation("nap"), model.Approach("gentle"))); diff != "" {
		t.Fatalf("unknown inputs should use the default tantrum entry (-want +got):\n%s", diff)
	}
	ec := BaseGuidance(model.SituationTantrum, model.ApproachEmotionCoaching)
	if diff := cmp.Diff(ec, BaseGuidance(model.Situation("nap"), model.ApproachEmotionCoaching)); diff != "" {
		t.Fatalf("unknown situation should keep the approach (-want +got):\n%s", diff)
	}
}

func TestCheckCatalogReportsGaps(t *testing.T) {
	partial := map[model.Approach]map[model.Situation]Guidance{
		model.ApproachConnectRedirect: catalog[model.ApproachConnectRedirect],
	}
	if err := checkCatalog(partial); err == nil {
		t.Fatalf("expected missing approach to be reported")
	}

	missingSituation := map[model.Approach]map[model.Situation]Guidance{
		model.ApproachConnectRedirect: catalog[model.ApproachConnectRedirect],
		model.ApproachEmotionCoaching: {
			model.SituationTantrum: catalog[model.ApproachEmotionCoaching][model.SituationTantrum],
		},
	}
	if err := checkCatalog(missingSituation); err == nil {
		t.Fatalf("expected missing situation to be reported")
	}
}

func TestModifierOrder(t *testing.T) {
	got := TemperamentModifiers(model.Temperament{Reactivity: 7, Persistence: 6, Sensitivity: 9}, DefaultConfig())
	if diff := cmp.Diff([]string{ReactivityModifier, SensitivityModifier}, got); diff != "" {
		t.Fatalf("temperament modifiers (-want +got):\n%s", diff)
	}

	active := []model.ContextFactor{model.ContextPublic, model.ContextHungry, model.ContextPublic}
	if diff := cmp.Diff([]string{HungryModifier, PublicModifier}, ContextModifiers(active)); diff != "" {
		t.Fatalf("context modifiers (-want +got):\n%s", diff)
	}
	if got := ContextModifiers(nil); len(got) != 0 {
		t.Fatalf("expected no context modifiers, got %v", got)
	}
}

func TestHistoryAdjustmentsIndependent(t *testing.T) {
	if diff := cmp.Diff(Adjustments{}, HistoryAdjustments(model.SituationTantrum, nil)); diff != "" {
		t.Fatalf("nil summary should produce no adjustments:\n%s", diff)
	}
	summary := summaryFor(model.SituationTantrum, now.Add(-2*time.Hour), 3, model.RatingDidnt)
	want := Adjustments{PrependStep: ResetStep, AppendStep: NormalizationStep, RotateFirstStep: true}
	if diff := cmp.Diff(want, HistoryAdjustments(model.SituationTantrum, summary)); diff != "" {
		t.Fatalf("adjustments (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Adjustments{}, HistoryAdjustments(model.SituationBedtime, summary)); diff != "" {
		t.Fatalf("other situations must be unaffected:\n%s", diff)
	}
}

func TestHistoryRotationWindow(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		lastShown time.Time
		want      bool
	}{
		{name: "shown recently", at: now, lastShown: now.Add(-47 * time.Hour), want: true},
		{name: "shown at window edge", at: now, lastShown: now.Add(-48 * time.Hour), want: false},
		{name: "shown weeks ago", at: now, lastShown: now.AddDate(0, 0, -30), want: false},
		{name: "zero summary instant", lastShown: now.AddDate(0, 0, -30), want: false},
		{name: "zero summary instant recent show", lastShown: now.Add(-time.Hour), want: false},
		{name: "shown after summary instant", at: now, lastShown: now.Add(time.Hour), want: false},
	}
	for _, tt := range tests {
		summary := &model.HistorySummary{
			At:                   tt.at,
			LastShownBySituation: map[model.Situation]time.Time{model.SituationTantrum: tt.lastShown},
		}
		if got := HistoryAdjustments(model.SituationTantrum, summary).RotateFirstStep; got != tt.want {
			t.Fatalf("%s: RotateFirstStep = %v, want %v", tt.name, got, tt.want)
		}
	}
}
