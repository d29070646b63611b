package rules

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/verte-zerg/steady/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	calm     = model.Temperament{Reactivity: 5, Persistence: 5, Sensitivity: 5}
	reactive = model.Temperament{Reactivity: 8, Persistence: 5, Sensitivity: 5}
	extreme  = model.Temperament{Reactivity: 10, Persistence: 10, Sensitivity: 10}
	now      = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
)

func summaryFor(situation model.Situation, lastShown time.Time, count int, rating model.OutcomeRating) *model.HistorySummary {
	s := &model.HistorySummary{
		At:                             now,
		LastShownBySituation:           map[model.Situation]time.Time{},
		ShownCountLast7DaysBySituation: map[model.Situation]int{situation: count},
		LastOutcomeRatingBySituation:   map[model.Situation]model.OutcomeRating{},
	}
	if !lastShown.IsZero() {
		s.LastShownBySituation[situation] = lastShown
		s.LastOutcomeRatingBySituation[situation] = rating
	}
	return s
}

func TestDecideTantrumReactiveNoHistory(t *testing.T) {
	base := BaseGuidance(model.SituationTantrum, model.ApproachConnectRedirect)
	got := Decide(model.SituationTantrum, model.ApproachConnectRedirect, reactive, nil, nil)
	want := model.DecisionOutput{
		DoThisNow:    append(append([]string(nil), base.DoThisNow...), ReactivityModifier),
		AvoidThis:    base.AvoidThis,
		WhyThisWorks: "Connection activates the calming system before the thinking brain can engage.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decision mismatch (-want +got):\n%s", diff)
	}
}

func TestDecideTantrumAfterFailedAttempt(t *testing.T) {
	summary := summaryFor(model.SituationTantrum, now.Add(-72*time.Hour), 2, model.RatingDidnt)
	got := Decide(model.SituationTantrum, model.ApproachConnectRedirect, reactive, nil, summary)
	if len(got.DoThisNow) != 5 {
		t.Fatalf("expected 5 steps, got %d: %v", len(got.DoThisNow), got.DoThisNow)
	}
	if got.DoThisNow[0] != ResetStep {
		t.Fatalf("expected reset step first, got %q", got.DoThisNow[0])
	}
	for _, step := range got.DoThisNow {
		if step == NormalizationStep {
			t.Fatalf("normalization step must not appear with 2 recent occurrences")
		}
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	summary := summaryFor(model.SituationBedtime, now.Add(-time.Hour), 4, model.RatingSomewhat)
	factors := []model.ContextFactor{model.ContextPublic, model.ContextTired}
	first := Decide(model.SituationBedtime, model.ApproachEmotionCoaching, extreme, factors, summary)
	second := Decide(model.SituationBedtime, model.ApproachEmotionCoaching, extreme, factors, summary)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated calls differ:\n%s", diff)
	}
}

func TestDecideBounds(t *testing.T) {
	factorSets := [][]model.ContextFactor{nil, model.ContextFactors}
	temperaments := []model.Temperament{calm, extreme}
	for _, approach := range model.Approaches {
		for _, situation := range model.Situations {
			for _, factors := range factorSets {
				for _, temp := range temperaments {
					plain := Decide(situation, approach, temp, factors, nil)
					if len(plain.DoThisNow) < 1 || len(plain.DoThisNow) > 4 {
						t.Fatalf("%s/%s: %d steps without history", approach, situation, len(plain.DoThisNow))
					}
					full := Decide(situation, approach, temp, factors, summaryFor(situation, now.Add(-time.Hour), 5, model.RatingDidnt))
					if len(full.DoThisNow) > 5 {
						t.Fatalf("%s/%s: %d steps with history", approach, situation, len(full.DoThisNow))
					}
					if len(full.AvoidThis) < 2 || len(full.AvoidThis) > 3 {
						t.Fatalf("%s/%s: %d avoid items", approach, situation, len(full.AvoidThis))
					}
				}
			}
		}
	}
}

func TestDecideInjectsSingleModifier(t *testing.T) {
	got := Decide(model.SituationSibling, model.ApproachConnectRedirect, extreme, model.ContextFactors, nil)
	modifiers := map[string]bool{
		ReactivityModifier: true, PersistenceModifier: true, SensitivityModifier: true,
		TiredModifier: true, HungryModifier: true, OverstimulatedModifier: true, PublicModifier: true,
	}
	count := 0
	for _, step := range got.DoThisNow {
		if modifiers[step] {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one modifier step, got %d", count)
	}
	if got.DoThisNow[len(got.DoThisNow)-1] != TiredModifier {
		t.Fatalf("context modifier should win over temperament, got %q", got.DoThisNow[len(got.DoThisNow)-1])
	}
}

func TestDecideRotatesFirstTwoSteps(t *testing.T) {
	base := BaseGuidance(model.SituationRefusing, model.ApproachEmotionCoaching)
	summary := summaryFor(model.SituationRefusing, now.Add(-47*time.Hour), 1, model.RatingWorked)
	got := Decide(model.SituationRefusing, model.ApproachEmotionCoaching, calm, nil, summary)
	want := []string{base.DoThisNow[1], base.DoThisNow[0], base.DoThisNow[2]}
	if diff := cmp.Diff(want, got.DoThisNow); diff != "" {
		t.Fatalf("rotation mismatch (-want +got):\n%s", diff)
	}

	stale := summaryFor(model.SituationRefusing, now.Add(-48*time.Hour), 1, model.RatingWorked)
	got = Decide(model.SituationRefusing, model.ApproachEmotionCoaching, calm, nil, stale)
	if diff := cmp.Diff(base.DoThisNow, got.DoThisNow); diff != "" {
		t.Fatalf("no rotation expected at 48h (-want +got):\n%s", diff)
	}
}

func TestDecidePublicAvoid(t *testing.T) {
	got := Decide(model.SituationTransition, model.ApproachConnectRedirect, calm, []model.ContextFactor{model.ContextPublic}, nil)
	if len(got.AvoidThis) != 3 || got.AvoidThis[2] != PublicAvoid {
		t.Fatalf("expected public avoid item appended, got %v", got.AvoidThis)
	}
	if got.DoThisNow[len(got.DoThisNow)-1] != PublicModifier {
		t.Fatalf("expected public modifier step, got %v", got.DoThisNow)
	}
}

func TestDecideEmptySummaryMatchesNoHistory(t *testing.T) {
	empty := &model.HistorySummary{At: now}
	for _, situation := range model.Situations {
		with := Decide(situation, model.ApproachConnectRedirect, reactive, nil, empty)
		without := Decide(situation, model.ApproachConnectRedirect, reactive, nil, nil)
		if diff := cmp.Diff(without, with); diff != "" {
			t.Fatalf("%s: empty summary changed output:\n%s", situation, diff)
		}
	}
}

func TestDecideDoesNotMutateCatalog(t *testing.T) {
	before := BaseGuidance(model.SituationTantrum, model.ApproachConnectRedirect)
	summary := summaryFor(model.SituationTantrum, now.Add(-time.Hour), 3, model.RatingDidnt)
	_ = Decide(model.SituationTantrum, model.ApproachConnectRedirect, extreme, model.ContextFactors, summary)
	after := BaseGuidance(model.SituationTantrum, model.ApproachConnectRedirect)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("catalog mutated:\n%s", diff)
	}
}

func TestEngineConfigUpdates(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got := engine.Decide(model.SituationBedtime, model.ApproachConnectRedirect, calm, nil, nil)
	if len(got.DoThisNow) != 3 {
		t.Fatalf("expected no modifier at default thresholds, got %v", got.DoThisNow)
	}

	five := 5
	if err := engine.Apply(Patch{HighSensitivityThreshold: &five}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got = engine.Decide(model.SituationBedtime, model.ApproachConnectRedirect, calm, nil, nil)
	if got.DoThisNow[len(got.DoThisNow)-1] != SensitivityModifier {
		t.Fatalf("expected sensitivity modifier after lowering threshold, got %v", got.DoThisNow)
	}
	if cfg := engine.Config(); cfg.HighReactivityThreshold != 7 || cfg.HighSensitivityThreshold != 5 {
		t.Fatalf("unexpected config after patch: %+v", cfg)
	}

	bad := 11
	if err := engine.Apply(Patch{HighReactivityThreshold: &bad}); err == nil {
		t.Fatalf("expected out-of-range threshold to be rejected")
	}
	if engine.Config().HighReactivityThreshold != 7 {
		t.Fatalf("rejected patch must not change config")
	}
	weight := 1.5
	if err := engine.SetConfig(Config{TemperamentWeight: weight}); err == nil {
		t.Fatalf("expected weight above 1 to be rejected")
	}
}
