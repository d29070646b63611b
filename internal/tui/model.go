// Package tui provides the Bubble Tea "help me now" interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/steady/internal/model"
	"github.com/verte-zerg/steady/internal/rules"
	"github.com/verte-zerg/steady/internal/stats"
	"github.com/verte-zerg/steady/internal/store"
)

type phase int

const (
	phasePick phase = iota
	phaseDecision
	phaseOutcome
)

var factorKeys = map[string]model.ContextFactor{
	"t": model.ContextTired,
	"h": model.ContextHungry,
	"o": model.ContextOverstimulated,
	"p": model.ContextPublic,
}

var ratingKeys = map[string]model.OutcomeRating{
	"w": model.RatingWorked,
	"s": model.RatingSomewhat,
	"d": model.RatingDidnt,
}

var outcomeKeys = map[string]model.OutcomeType{
	"y": model.OutcomeSuccess,
	"n": model.OutcomeNotSuccess,
	"u": model.OutcomeUnknown,
}

// Model implements the Bubble Tea guidance UI.
type Model struct {
	store    *store.Store
	engine   *rules.Engine
	logger   *zap.Logger
	profile  model.ChildProfile
	approach model.Approach
	now      func() time.Time

	width  int
	height int

	phase     phase
	situation model.Situation
	factors   map[model.ContextFactor]bool
	decision  model.DecisionOutput
	tags      []model.OutcomeContext
	status    string

	dashboard    model.DashboardInsightsSummary
	hasDashboard bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	avoidStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the guidance TUI model.
func NewModel(st *store.Store, engine *rules.Engine, profile model.ChildProfile, approach model.Approach, logger *zap.Logger) *Model {
	m := &Model{
		store:    st,
		engine:   engine,
		logger:   logger,
		profile:  profile,
		approach: approach,
		now:      time.Now,
	}
	m.resetSession()
	m.loadDashboard()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.phase {
		case phasePick:
			return m.updatePick(key)
		case phaseDecision:
			m.updateDecision(key)
		case phaseOutcome:
			m.updateOutcome(key)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) updatePick(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		if m.situation == "" {
			m.status = "Pick a situation first (1-5)."
			return m, nil
		}
		m.generate()
		return m, nil
	}
	if f, ok := factorKeys[key]; ok {
		m.factors[f] = !m.factors[f]
		return m, nil
	}
	if idx, ok := digit(key); ok && idx < len(model.Situations) {
		m.situation = model.Situations[idx]
		m.status = ""
	}
	return m, nil
}

func (m *Model) updateDecision(key string) {
	if key == "esc" {
		m.phase = phasePick
		return
	}
	rating, ok := ratingKeys[key]
	if !ok {
		return
	}
	m.saveHistory(rating)
	m.tags = nil
	m.phase = phaseOutcome
}

func (m *Model) updateOutcome(key string) {
	if key == "esc" {
		m.resetSession()
		return
	}
	if outcome, ok := outcomeKeys[key]; ok {
		m.saveOutcome(outcome)
		m.resetSession()
		return
	}
	if idx, ok := digit(key); ok && idx < len(model.OutcomeContexts) {
		m.toggleTag(model.OutcomeContexts[idx])
	}
}

func (m *Model) toggleTag(c model.OutcomeContext) {
	for i, have := range m.tags {
		if have == c {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			return
		}
	}
	if len(m.tags) >= model.MaxOutcomeContexts {
		m.status = fmt.Sprintf("Pick at most %d tags.", model.MaxOutcomeContexts)
		return
	}
	m.tags = append(m.tags, c)
}

func (m *Model) activeFactors() []model.ContextFactor {
	var out []model.ContextFactor
	for _, f := range model.ContextFactors {
		if m.factors[f] {
			out = append(out, f)
		}
	}
	return out
}

func (m *Model) generate() {
	ctx := context.Background()
	var summary *model.HistorySummary
	events, err := m.store.ListHistory(ctx, 0)
	if err != nil {
		m.logger.Warn("failed to load history; deciding without it", zap.Error(err))
	} else {
		s := stats.SummarizeHistory(events, m.now())
		summary = &s
	}
	m.decision = m.engine.Decide(m.situation, m.approach, m.profile.Temperament, m.activeFactors(), summary)
	m.logger.Debug("decision generated",
		zap.String("situation", string(m.situation)),
		zap.String("approach", string(m.approach)),
		zap.Int("steps", len(m.decision.DoThisNow)))
	m.status = ""
	m.phase = phaseDecision
}

func (m *Model) saveHistory(rating model.OutcomeRating) {
	ev := model.HistoryEvent{
		Timestamp:      m.now(),
		Situation:      m.situation,
		ContextFactors: m.activeFactors(),
		Approach:       m.approach,
		Output:         m.decision,
		Outcome:        rating,
		ChildAge:       m.profile.Age,
		Temperament:    m.profile.Temperament,
	}
	if _, err := m.store.AddHistoryEvent(context.Background(), ev); err != nil {
		m.logger.Error("failed to save history event", zap.Error(err))
		m.status = "Could not save to history."
	}
}

func (m *Model) saveOutcome(outcome model.OutcomeType) {
	o := model.InteractionOutcome{
		ChildID:     m.profile.ChildID(),
		ApproachID:  m.approach,
		SituationID: m.situation,
		Timestamp:   m.now(),
		Outcome:     outcome,
		Contexts:    append([]model.OutcomeContext(nil), m.tags...),
	}
	if _, err := m.store.AddOutcome(context.Background(), o); err != nil {
		m.logger.Error("failed to save outcome", zap.Error(err))
		m.status = "Could not save the outcome."
		return
	}
	m.status = "Saved. Thanks for tracking."
	m.loadDashboard()
}

func (m *Model) loadDashboard() {
	childID := m.profile.ChildID()
	summary, err := stats.NewInsights(m.store).GetDashboardInsightsSummary(context.Background(), &childID)
	if err != nil {
		m.logger.Warn("failed to load dashboard", zap.Error(err))
		return
	}
	m.dashboard = summary
	m.hasDashboard = true
}

func (m *Model) resetSession() {
	m.phase = phasePick
	m.situation = ""
	m.factors = map[model.ContextFactor]bool{}
	m.decision = model.DecisionOutput{}
	m.tags = nil
}

// View implements tea.Model.
func (m *Model) View() string {
	contentWidth := int(float64(m.width) * 0.70)
	if m.width == 0 {
		contentWidth = 72
	}
	if contentWidth < 20 {
		contentWidth = 20
	}
	var body string
	switch m.phase {
	case phaseDecision:
		body = m.viewDecision(contentWidth)
	case phaseOutcome:
		body = m.viewOutcome()
	default:
		body = m.viewPick()
	}
	header := titleStyle.Render("Steady · " + m.approach.Info().Name)
	parts := []string{header, "", body}
	if m.status != "" {
		parts = append(parts, "", statusStyle.Render(m.status))
	}
	content := lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(parts, "\n"))
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return placed + "\n" + footerLine
}

func (m *Model) viewPick() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("What's happening?") + "\n")
	for i, s := range model.Situations {
		line := fmt.Sprintf("%d  %s", i+1, s.Label())
		if s == m.situation {
			line = selectedStyle.Render(line)
		} else {
			line = pendingStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + headingStyle.Render("Right now they are") + "\n")
	segments := make([]string, 0, len(model.ContextFactors))
	for _, f := range model.ContextFactors {
		label := fmt.Sprintf("[%s] %s", factorKey(f), f.Label())
		if m.factors[f] {
			label = selectedStyle.Render(label)
		} else {
			label = pendingStyle.Render(label)
		}
		segments = append(segments, label)
	}
	b.WriteString(strings.Join(segments, "  ") + "\n\n")
	b.WriteString(footerStyle.Render("1-5 situation · t/h/o/p context · enter guidance · q quit"))
	return b.String()
}

func (m *Model) viewDecision(width int) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(m.situation.Label()) + "\n\n")
	b.WriteString(headingStyle.Render("Do this now") + "\n")
	for i, step := range m.decision.DoThisNow {
		b.WriteString(strings.Join(hangingLines(fmt.Sprintf("%d. ", i+1), step, width), "\n") + "\n")
	}
	b.WriteString("\n" + headingStyle.Render("Avoid this") + "\n")
	for _, item := range m.decision.AvoidThis {
		b.WriteString(avoidStyle.Render(strings.Join(hangingLines("✕ ", item, width), "\n")) + "\n")
	}
	b.WriteString("\n" + headingStyle.Render("Why this works") + "\n")
	b.WriteString(pendingStyle.Render(strings.Join(hangingLines("", m.decision.WhyThisWorks, width), "\n")) + "\n\n")
	b.WriteString(footerStyle.Render("How did it go? w worked · s somewhat · d didn't · esc back"))
	return b.String()
}

func (m *Model) viewOutcome() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Did it help?") + "\n\n")
	b.WriteString(headingStyle.Render("Anything going on?") + "\n")
	for i, c := range model.OutcomeContexts {
		line := fmt.Sprintf("%d  %s", i+1, c.Label())
		if hasTag(m.tags, c) {
			line = selectedStyle.Render(line)
		} else {
			line = pendingStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("y helped · n didn't help · u skip · 1-%d tag (max %d)", len(model.OutcomeContexts), model.MaxOutcomeContexts)))
	return b.String()
}

func (m *Model) renderFooter() string {
	if !m.hasDashboard {
		return ""
	}
	var footer string
	if !m.dashboard.HasMinimumData {
		footer = fmt.Sprintf("Track %d more outcome(s) to see what's working",
			stats.MinRatedForDashboard-m.dashboard.TotalTracked)
	} else {
		top := m.dashboard.TopApproach
		footer = fmt.Sprintf("Working best: %s · helped %d of %d · %d tracked (30 days)",
			top.ApproachID.Info().ShortName, top.TotalSuccesses, top.RatedCount, m.dashboard.TotalTracked)
	}
	return footerStyle.Render(footer)
}

func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

func factorKey(f model.ContextFactor) string {
	for k, v := range factorKeys {
		if v == f {
			return k
		}
	}
	return "?"
}

func hasTag(tags []model.OutcomeContext, c model.OutcomeContext) bool {
	for _, t := range tags {
		if t == c {
			return true
		}
	}
	return false
}
