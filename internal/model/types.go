// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors returned at input boundaries.
var (
	ErrInvalidTemperament = errors.New("temperament values must be between 0 and 10")
	ErrInvalidAge         = errors.New("child age must be between 2 and 10")
	ErrUnknownSituation   = errors.New("unknown situation")
	ErrUnknownApproach    = errors.New("unknown approach")
	ErrUnknownContext     = errors.New("unknown context")
	ErrUnknownOutcome     = errors.New("unknown outcome")
	ErrTooManyContexts    = fmt.Errorf("at most %d outcome contexts may be selected", MaxOutcomeContexts)
)

const (
	// MinTemperament and MaxTemperament bound each temperament score.
	MinTemperament = 0
	MaxTemperament = 10
	// MinChildAge and MaxChildAge bound the profile age.
	MinChildAge = 2
	MaxChildAge = 10
	// MaxOutcomeContexts is how many context tags a single outcome may carry.
	MaxOutcomeContexts = 3
	// DefaultUserID is the placeholder user for single-user installations.
	DefaultUserID = "default"
)

// Temperament holds the three 0-10 trait scores of a child.
type Temperament struct {
	Reactivity  int `json:"reactivity" yaml:"reactivity"`
	Persistence int `json:"persistence" yaml:"persistence"`
	Sensitivity int `json:"sensitivity" yaml:"sensitivity"`
}

// DefaultTemperament is the middle-of-the-road profile.
var DefaultTemperament = Temperament{Reactivity: 5, Persistence: 5, Sensitivity: 5}

// Validate checks that all scores are within range.
func (t Temperament) Validate() error {
	for _, v := range []int{t.Reactivity, t.Persistence, t.Sensitivity} {
		if v < MinTemperament || v > MaxTemperament {
			return ErrInvalidTemperament
		}
	}
	return nil
}

// ChildProfile is the single profile kept per installation.
type ChildProfile struct {
	Name        string      `json:"name" yaml:"name"`
	Age         int         `json:"age" yaml:"age"`
	Temperament Temperament `json:"temperament" yaml:"temperament"`
	LastUpdated time.Time   `json:"lastUpdated" yaml:"lastUpdated"`
}

// DefaultChildProfile is used when no profile has been saved yet.
var DefaultChildProfile = ChildProfile{Age: 4, Temperament: DefaultTemperament}

// Validate checks age and temperament ranges.
func (p ChildProfile) Validate() error {
	if p.Age < MinChildAge || p.Age > MaxChildAge {
		return ErrInvalidAge
	}
	return p.Temperament.Validate()
}

// ChildID returns the key used to scope outcomes to this child.
// An empty name means outcomes are recorded without a child.
func (p ChildProfile) ChildID() string {
	return p.Name
}

// DecisionOutput is one structured recommendation.
type DecisionOutput struct {
	DoThisNow    []string `json:"doThisNow" yaml:"doThisNow"`
	AvoidThis    []string `json:"avoidThis" yaml:"avoidThis"`
	WhyThisWorks string   `json:"whyThisWorks" yaml:"whyThisWorks"`
}

// HistoryEvent records one recommendation session and its coarse rating.
type HistoryEvent struct {
	ID             string          `json:"id" yaml:"id"`
	Timestamp      time.Time       `json:"timestamp" yaml:"timestamp"`
	Situation      Situation       `json:"situation" yaml:"situation"`
	ContextFactors []ContextFactor `json:"contextFactors" yaml:"contextFactors"`
	Approach       Approach        `json:"approach" yaml:"approach"`
	Output         DecisionOutput  `json:"output" yaml:"output"`
	Outcome        OutcomeRating   `json:"outcome" yaml:"outcome"`
	ChildAge       int             `json:"childAge" yaml:"childAge"`
	Temperament    Temperament     `json:"temperament" yaml:"temperament"`
}

// InteractionOutcome is one entry of the finer-grained outcome log.
type InteractionOutcome struct {
	ID          string           `json:"id" yaml:"id"`
	UserID      string           `json:"userId" yaml:"userId"`
	ChildID     string           `json:"childId,omitempty" yaml:"childId,omitempty"`
	ApproachID  Approach         `json:"approachId" yaml:"approachId"`
	SituationID Situation        `json:"situationId" yaml:"situationId"`
	Timestamp   time.Time        `json:"timestamp" yaml:"timestamp"`
	Outcome     OutcomeType      `json:"outcome" yaml:"outcome"`
	Contexts    []OutcomeContext `json:"contexts" yaml:"contexts"`
	Notes       string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// HasContext reports whether the outcome was tagged with c.
func (o InteractionOutcome) HasContext(c OutcomeContext) bool {
	for _, have := range o.Contexts {
		if have == c {
			return true
		}
	}
	return false
}

// HistorySummary is derived from the history log for the rules engine.
type HistorySummary struct {
	// At is the instant the summary was computed; recency checks measure from it.
	// Step rotation is skipped when At is zero.
	At                             time.Time
	LastShownBySituation           map[Situation]time.Time
	ShownCountLast7DaysBySituation map[Situation]int
	LastOutcomeRatingBySituation   map[Situation]OutcomeRating
}

// OutcomeFilters selects a subset of the outcome log.
type OutcomeFilters struct {
	// ChildID filters by child when non-nil; a pointer to "" selects outcomes without a child.
	ChildID   *string
	Approach  Approach
	Situation Situation
	// RangeDays keeps outcomes from the last N days when > 0.
	RangeDays int
}

// Match reports whether o passes the filters relative to now.
func (f OutcomeFilters) Match(o InteractionOutcome, now time.Time) bool {
	if f.ChildID != nil && o.ChildID != *f.ChildID {
		return false
	}
	if f.Approach != "" && o.ApproachID != f.Approach {
		return false
	}
	if f.Situation != "" && o.SituationID != f.Situation {
		return false
	}
	if f.RangeDays > 0 && o.Timestamp.Before(f.Cutoff(now)) {
		return false
	}
	return true
}

// Cutoff returns the earliest timestamp kept by RangeDays.
func (f OutcomeFilters) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -f.RangeDays)
}

// InsightPattern is a per-context success-rate comparison against the baseline.
type InsightPattern struct {
	Context       OutcomeContext `json:"context" yaml:"context"`
	SuccessRate   float64        `json:"successRate" yaml:"successRate"`
	SampleSize    int            `json:"sampleSize" yaml:"sampleSize"`
	Statement     string         `json:"statement" yaml:"statement"`
	IsSignificant bool           `json:"isSignificant" yaml:"isSignificant"`
}

// ApproachInsights aggregates the outcome log for one approach.
type ApproachInsights struct {
	ApproachID     Approach         `json:"approachId" yaml:"approachId"`
	SituationID    Situation        `json:"situationId,omitempty" yaml:"situationId,omitempty"`
	TotalUses      int              `json:"totalUses" yaml:"totalUses"`
	TotalSuccesses int              `json:"totalSuccesses" yaml:"totalSuccesses"`
	TotalFailures  int              `json:"totalFailures" yaml:"totalFailures"`
	SuccessRate    float64          `json:"successRate" yaml:"successRate"`
	RatedCount     int              `json:"ratedCount" yaml:"ratedCount"`
	LastUsed       *time.Time       `json:"lastUsed" yaml:"lastUsed"`
	Patterns       []InsightPattern `json:"patterns" yaml:"patterns"`
	Statement      *string          `json:"statement" yaml:"statement"`
}

// DashboardInsightsSummary is the cross-approach dashboard view.
type DashboardInsightsSummary struct {
	TopApproach    *ApproachInsights `json:"topApproach" yaml:"topApproach"`
	TotalTracked   int               `json:"totalTracked" yaml:"totalTracked"`
	HasMinimumData bool              `json:"hasMinimumData" yaml:"hasMinimumData"`
}
