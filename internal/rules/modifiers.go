package rules

import "github.com/verte-zerg/steady/internal/model"

// Modifier sentences.
const (
	ReactivityModifier  = "Allow extra time—reactions may be intense."
	PersistenceModifier = "Stay consistent—they'll test the boundary longer."
	SensitivityModifier = "Lower your voice and reduce stimulation."

	TiredModifier          = "Keep it simple—they have less capacity right now."
	HungryModifier         = "Address hunger first if possible."
	OverstimulatedModifier = "Move to a quieter space if you can."
	PublicModifier         = "Focus on getting through, not teaching—debrief later at home."
)

var contextModifierText = map[model.ContextFactor]string{
	model.ContextTired:          TiredModifier,
	model.ContextHungry:         HungryModifier,
	model.ContextOverstimulated: OverstimulatedModifier,
	model.ContextPublic:         PublicModifier,
}

// TemperamentModifiers returns advisories for each trait at or above its threshold,
// in reactivity, persistence, sensitivity order.
func TemperamentModifiers(t model.Temperament, cfg Config) []string {
	var out []string
	if t.Reactivity >= cfg.HighReactivityThreshold {
		out = append(out, ReactivityModifier)
	}
	if t.Persistence >= cfg.HighPersistenceThreshold {
		out = append(out, PersistenceModifier)
	}
	if t.Sensitivity >= cfg.HighSensitivityThreshold {
		out = append(out, SensitivityModifier)
	}
	return out
}

// ContextModifiers returns one advisory per active factor in model.ContextFactors order.
func ContextModifiers(active []model.ContextFactor) []string {
	var out []string
	for _, factor := range model.ContextFactors {
		if hasFactor(active, factor) {
			out = append(out, contextModifierText[factor])
		}
	}
	return out
}

func hasFactor(active []model.ContextFactor, factor model.ContextFactor) bool {
	for _, f := range active {
		if f == factor {
			return true
		}
	}
	return false
}
