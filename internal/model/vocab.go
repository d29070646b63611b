package model

import (
	"fmt"
	"strings"
)

// Situation is the category of behavior being addressed.
type Situation string

// Situations.
const (
	SituationTantrum    Situation = "tantrum"
	SituationRefusing   Situation = "refusing"
	SituationBedtime    Situation = "bedtime"
	SituationSibling    Situation = "sibling"
	SituationTransition Situation = "transition"
)

// Situations lists every situation in display order.
var Situations = []Situation{
	SituationTantrum,
	SituationRefusing,
	SituationBedtime,
	SituationSibling,
	SituationTransition,
}

var situationLabels = map[Situation]string{
	SituationTantrum:    "Tantrum / Meltdown",
	SituationRefusing:   "Refusing instructions",
	SituationBedtime:    "Bedtime battle",
	SituationSibling:    "Sibling conflict",
	SituationTransition: "Transition trouble",
}

// Label returns the display label.
func (s Situation) Label() string {
	if l, ok := situationLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseSituation converts user input to a Situation.
func ParseSituation(v string) (Situation, error) {
	s := Situation(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := situationLabels[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSituation, v)
	}
	return s, nil
}

// ContextFactor is a transient circumstance toggled per session.
type ContextFactor string

// Context factors.
const (
	ContextTired          ContextFactor = "tired"
	ContextHungry         ContextFactor = "hungry"
	ContextOverstimulated ContextFactor = "overstimulated"
	ContextPublic         ContextFactor = "public"
)

// ContextFactors lists every context factor in priority order.
var ContextFactors = []ContextFactor{
	ContextTired,
	ContextHungry,
	ContextOverstimulated,
	ContextPublic,
}

var contextFactorLabels = map[ContextFactor]string{
	ContextTired:          "Tired",
	ContextHungry:         "Hungry",
	ContextOverstimulated: "Overstimulated",
	ContextPublic:         "Public place",
}

// Label returns the display label.
func (c ContextFactor) Label() string {
	if l, ok := contextFactorLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseContextFactors parses a comma-separated list, dropping duplicates.
func ParseContextFactors(v string) ([]ContextFactor, error) {
	var out []ContextFactor
	seen := map[ContextFactor]bool{}
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		c := ContextFactor(part)
		if _, ok := contextFactorLabels[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContext, part)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Approach is a parenting philosophy; exactly one is active at a time.
type Approach string

// Approaches.
const (
	ApproachConnectRedirect Approach = "connect-redirect"
	ApproachEmotionCoaching Approach = "emotion-coaching"
)

// DefaultApproach is active until the user switches.
const DefaultApproach = ApproachConnectRedirect

// Approaches lists every approach in display order.
var Approaches = []Approach{ApproachConnectRedirect, ApproachEmotionCoaching}

// ApproachInfo describes an approach for display.
type ApproachInfo struct {
	Name        string
	ShortName   string
	Description string
}

var approachInfo = map[Approach]ApproachInfo{
	ApproachConnectRedirect: {
		Name:        "Connect → Redirect",
		ShortName:   "Connect first",
		Description: "Start by connecting with your child emotionally, then redirect behavior once they feel heard. Focus on co-regulation before problem-solving.",
	},
	ApproachEmotionCoaching: {
		Name:        "Emotion Coaching + Boundaries",
		ShortName:   "Coach emotions",
		Description: "Name and validate emotions while maintaining clear, consistent boundaries. Help your child understand their feelings without giving in to inappropriate behavior.",
	},
}

// Info returns display information for the approach.
func (a Approach) Info() ApproachInfo {
	if info, ok := approachInfo[a]; ok {
		return info
	}
	return ApproachInfo{Name: string(a), ShortName: string(a)}
}

// ParseApproach converts user input to an Approach.
func ParseApproach(v string) (Approach, error) {
	a := Approach(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := approachInfo[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownApproach, v)
	}
	return a, nil
}

// OutcomeRating is the coarse rating stored with history events.
type OutcomeRating string

// Outcome ratings.
const (
	RatingWorked   OutcomeRating = "worked"
	RatingSomewhat OutcomeRating = "somewhat"
	RatingDidnt    OutcomeRating = "didnt"
)

// ParseOutcomeRating converts user input to an OutcomeRating.
func ParseOutcomeRating(v string) (OutcomeRating, error) {
	switch r := OutcomeRating(strings.ToLower(strings.TrimSpace(v))); r {
	case RatingWorked, RatingSomewhat, RatingDidnt:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, v)
	}
}

// OutcomeType is the tri-state result in the outcome log.
type OutcomeType string

// Outcome types.
const (
	OutcomeSuccess    OutcomeType = "SUCCESS"
	OutcomeNotSuccess OutcomeType = "NOT_SUCCESS"
	OutcomeUnknown    OutcomeType = "UNKNOWN"
)

// Rated reports whether the outcome counts toward success rates.
func (o OutcomeType) Rated() bool {
	return o == OutcomeSuccess || o == OutcomeNotSuccess
}

// ParseOutcomeType converts user input to an OutcomeType.
func ParseOutcomeType(v string) (OutcomeType, error) {
	switch o := OutcomeType(strings.ToUpper(strings.TrimSpace(v))); o {
	case OutcomeSuccess, OutcomeNotSuccess, OutcomeUnknown:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, v)
	}
}

// OutcomeContext is a tag attached to an outcome when it was logged.
type OutcomeContext string

// Outcome contexts.
const (
	OutcomeContextTired      OutcomeContext = "tired"
	OutcomeContextHungry     OutcomeContext = "hungry"
	OutcomeContextRushed     OutcomeContext = "rushed"
	OutcomeContextPublic     OutcomeContext = "public"
	OutcomeContextBedtime    OutcomeContext = "bedtime"
	OutcomeContextTransition OutcomeContext = "transition"
)

// OutcomeContexts lists every outcome context in evaluation order.
var OutcomeContexts = []OutcomeContext{
	OutcomeContextTired,
	OutcomeContextHungry,
	OutcomeContextRushed,
	OutcomeContextPublic,
	OutcomeContextBedtime,
	OutcomeContextTransition,
}

var outcomeContextLabels = map[OutcomeContext]string{
	OutcomeContextTired:      "Tired",
	OutcomeContextHungry:     "Hungry",
	OutcomeContextRushed:     "Rushed",
	OutcomeContextPublic:     "In public",
	OutcomeContextBedtime:    "Near bedtime",
	OutcomeContextTransition: "During a transition",
}

// Label returns the display label.
func (c OutcomeContext) Label() string {
	if l, ok := outcomeContextLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseOutcomeContexts parses a comma-separated list of at most MaxOutcomeContexts tags.
func ParseOutcomeContexts(v string) ([]OutcomeContext, error) {
	var out []OutcomeContext
	seen := map[OutcomeContext]bool{}
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		c := OutcomeContext(part)
		if _, ok := outcomeContextLabels[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContext, part)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) > MaxOutcomeContexts {
		return nil, ErrTooManyContexts
	}
	return out, nil
}
