package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/verte-zerg/steady/internal/model"
)

const (
	maxSteps            = 4
	maxStepsWithHistory = 5
	maxAvoid            = 3

	// PublicAvoid is added to the avoid list in public places.
	PublicAvoid = "Don't worry about what others think right now."
)

// Config holds the tunable rule thresholds.
type Config struct {
	HighReactivityThreshold  int
	HighPersistenceThreshold int
	HighSensitivityThreshold int
	// TemperamentWeight is the 0-1 influence of temperament. It is validated and
	// carried for callers but the current rules only use the thresholds.
	TemperamentWeight float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		HighReactivityThreshold:  7,
		HighPersistenceThreshold: 7,
		HighSensitivityThreshold: 7,
		TemperamentWeight:        0.5,
	}
}

// Validate checks the threshold and weight ranges.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"reactivity threshold":  c.HighReactivityThreshold,
		"persistence threshold": c.HighPersistenceThreshold,
		"sensitivity threshold": c.HighSensitivityThreshold,
	} {
		if v < model.MinTemperament || v > model.MaxTemperament {
			return fmt.Errorf("%s must be between %d and %d", name, model.MinTemperament, model.MaxTemperament)
		}
	}
	if c.TemperamentWeight < 0 || c.TemperamentWeight > 1 {
		return fmt.Errorf("temperament weight must be between 0 and 1")
	}
	return nil
}

// Patch is a partial Config update; nil fields are left unchanged.
type Patch struct {
	HighReactivityThreshold  *int
	HighPersistenceThreshold *int
	HighSensitivityThreshold *int
	TemperamentWeight        *float64
}

func (p Patch) applyTo(c Config) Config {
	if p.HighReactivityThreshold != nil {
		c.HighReactivityThreshold = *p.HighReactivityThreshold
	}
	if p.HighPersistenceThreshold != nil {
		c.HighPersistenceThreshold = *p.HighPersistenceThreshold
	}
	if p.HighSensitivityThreshold != nil {
		c.HighSensitivityThreshold = *p.HighSensitivityThreshold
	}
	if p.TemperamentWeight != nil {
		c.TemperamentWeight = *p.TemperamentWeight
	}
	return c
}

// Engine composes decisions using a shared, mutable Config.
// Config changes apply to subsequent Decide calls only.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
}

// NewEngine returns an engine using cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the configuration.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

// Apply merges a partial update into the configuration.
func (e *Engine) Apply(p Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := p.applyTo(e.cfg)
	if err := next.Validate(); err != nil {
		return err
	}
	e.cfg = next
	return nil
}

// Decide builds the recommendation. A nil summary behaves exactly like no history.
func (e *Engine) Decide(situation model.Situation, approach model.Approach, temperament model.Temperament, factors []model.ContextFactor, summary *model.HistorySummary) model.DecisionOutput {
	return compose(e.Config(), situation, approach, temperament, factors, summary)
}

// Decide builds a recommendation with DefaultConfig.
func Decide(situation model.Situation, approach model.Approach, temperament model.Temperament, factors []model.ContextFactor, summary *model.HistorySummary) model.DecisionOutput {
	return compose(DefaultConfig(), situation, approach, temperament, factors, summary)
}

func compose(cfg Config, situation model.Situation, approach model.Approach, temperament model.Temperament, factors []model.ContextFactor, summary *model.HistorySummary) model.DecisionOutput {
	base := BaseGuidance(situation, approach)
	modifiers := append(ContextModifiers(factors), TemperamentModifiers(temperament, cfg)...)
	adj := HistoryAdjustments(situation, summary)

	steps := base.DoThisNow
	if adj.RotateFirstStep && len(steps) >= 2 {
		steps[0], steps[1] = steps[1], steps[0]
	}
	if len(modifiers) > 0 {
		steps = append(steps, modifiers[0])
	}
	if adj.PrependStep != "" {
		steps = append([]string{adj.PrependStep}, steps...)
	}
	if adj.AppendStep != "" {
		steps = append(steps, adj.AppendStep)
	}
	limit := maxSteps
	if adj.PrependStep != "" || adj.AppendStep != "" {
		limit = maxStepsWithHistory
	}
	if len(steps) > limit {
		steps = steps[:limit]
	}

	avoid := base.AvoidThis
	if hasFactor(factors, model.ContextPublic) && !mentionsPublic(avoid) {
		avoid = append(avoid, PublicAvoid)
	}
	if len(avoid) > maxAvoid {
		avoid = avoid[:maxAvoid]
	}

	return model.DecisionOutput{
		DoThisNow:    steps,
		AvoidThis:    avoid,
		WhyThisWorks: base.WhyThisWorks,
	}
}

func mentionsPublic(items []string) bool {
	for _, item := range items {
		if strings.Contains(item, "public") {
			return true
		}
	}
	return false
}
