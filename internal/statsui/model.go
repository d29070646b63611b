// Package statsui provides the Bubble Tea insights interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/steady/internal/model"
	"github.com/verte-zerg/steady/internal/stats"
)

const tabDashboard = 0

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	tabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea insights UI.
type Model struct {
	insights    *stats.Insights
	childID     *string
	trendWindow int
	now         func() time.Time

	report stats.Report
	errMsg string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	situationTbl table.Model
	situationIdx int

	width  int
	height int

	editing   bool
	settingInputs []textinput.Model
	settingIndex  int
	settingsErr  string
}

// NewModel constructs an insights UI model. A nil childID shows every outcome.
func NewModel(src stats.OutcomeSource, childID *string, trendWindow int) *Model {
	if trendWindow < 1 {
		trendWindow = stats.DefaultTrendWindow
	}
	tabs := []string{"Dashboard"}
	for _, a := range model.Approaches {
		tabs = append(tabs, a.Info().ShortName)
	}
	tabs = append(tabs, "By situation")
	m := &Model{
		insights:    stats.NewInsights(src),
		childID:     childID,
		trendWindow: trendWindow,
		now:         time.Now,
		tabs:        tabs,
	}
	m.initInputs()
	m.situationTbl = buildSituationTable(nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

func (m *Model) situationTab() int {
	return len(m.tabs) - 1
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.editing && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateSettings(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "s":
			m.situationIdx = (m.situationIdx + 1) % len(model.Situations)
			m.applySituationTable()
			return m, nil
		case "=":
			m.trendWindow = nextTrendWindow(m.trendWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.trendWindow = prevTrendWindow(m.trendWindow)
			m.refreshReport()
			return m, nil
		case "/":
			return m.openSettings()
		case "g", "home":
			if m.activeTab == m.situationTab() {
				m.situationTbl.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == m.situationTab() {
				m.situationTbl.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == m.situationTab() {
				var cmd tea.Cmd
				m.situationTbl, cmd = m.situationTbl.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.settingInputs = []textinput.Model{
		newSettingInput("Child (blank = all): "),
		newSettingInput("Trend window: "),
	}
	m.settingInputs[0].Placeholder = "name"
	m.syncSettingInputs()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeTabStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.editing && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func newSettingInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) syncSettingInputs() {
	if len(m.settingInputs) == 0 {
		return
	}
	if m.childID != nil {
		m.settingInputs[0].SetValue(*m.childID)
	} else {
		m.settingInputs[0].SetValue("")
	}
	m.settingInputs[1].SetValue(strconv.Itoa(m.trendWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.situationTbl.SetWidth(m.width)
	m.situationTbl.SetHeight(max(1, vpHeight-3))
	for i := range m.settingInputs {
		promptWidth := lipgloss.Width(m.settingInputs[i].Prompt)
		m.settingInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	n := len(m.tabs)
	if n == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + n) % n
	if m.activeTab == m.situationTab() {
		m.situationTbl.Focus()
		return
	}
	m.situationTbl.Blur()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeTabStyle.Render(tab))
		} else {
			parts = append(parts, tabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	settings := padLines(m.renderSettingsLine(), m.width)
	return tabs + "\n" + settings
}

func (m *Model) renderSettingsLine() string {
	child := "all"
	if m.childID != nil {
		child = *m.childID
		if child == "" {
			child = "none"
		}
	}
	summary := fmt.Sprintf("Settings: child=%s  trend window=%d", child, m.trendWindow)
	if m.activeTab == m.situationTab() {
		summary += "  situation=" + model.Situations[m.situationIdx].Label()
	}
	summary = truncateLine(summary, m.width)
	return mutedStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Trend: -/=  Settings: /  Quit: q"
	if m.activeTab == m.situationTab() {
		help = "Nav: left/right  Situation: s  Trend: -/=  Settings: /  Quit: q"
	}
	return mutedStyle.Render(help)
}

func (m *Model) renderSettingsHelp() string {
	return mutedStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
}

func (m *Model) renderFooter() string {
	if m.editing {
		return m.renderSettingsHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.settingInputs {
		lines = append(lines, input.View())
	}
	if m.settingsErr != "" {
		lines = append(lines, errStyle.Render(m.settingsErr))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.editing {
		return fitLines(m.renderSettingsForm(), m.width, height)
	}
	if m.activeTab == m.situationTab() {
		situation := model.Situations[m.situationIdx]
		title := cardValueStyle.Render(situation.Label())
		view := tableMutedStyle.Render(m.situationTbl.View())
		return fitLines(title+"\n\n"+view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.insights, m.childID, m.trendWindow)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load insights.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.applySituationTable()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load insights.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabDashboard].SetContent(renderDashboard(m.report, width))
	for i, ai := range m.report.Approaches {
		m.viewports[i+1].SetContent(renderApproach(ai, m.now()))
	}
}

func (m *Model) applySituationTable() {
	if m.situationIdx >= len(m.report.Situations) {
		m.situationTbl.SetRows(nil)
		return
	}
	m.situationTbl.SetRows(situationRows(m.report.Situations[m.situationIdx]))
}

func renderDashboard(report stats.Report, width int) string {
	summary := report.Dashboard
	if !summary.HasMinimumData {
		return fmt.Sprintf("Track %d more outcome(s) to see what's working.\n\nOutcomes tracked (30 days): %d",
			stats.MinRatedForDashboard-summary.TotalTracked, summary.TotalTracked)
	}
	top := summary.TopApproach
	cards := []string{
		metricCard("Working best", top.ApproachID.Info().ShortName),
		metricCard("Helped", fmt.Sprintf("%d of %d", top.TotalSuccesses, top.RatedCount)),
		metricCard("Tracked (30d)", fmt.Sprintf("%d", summary.TotalTracked)),
	}
	var body string
	if width < 60 {
		body = strings.Join(cards, "\n")
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	if top.Statement != nil {
		body += "\n\n" + *top.Statement
	}
	if len(report.Trend) > 0 {
		body += "\n\n" + mutedStyle.Render("Success trend") + "\n[" + stats.Sparkline(report.Trend) + "]"
	}
	return body
}

func renderApproach(ai model.ApproachInsights, now time.Time) string {
	var buf bytes.Buffer
	if err := stats.RenderInsights(&buf, ai, now); err != nil {
		return fmt.Sprintf("Failed to render insights: %v", err)
	}
	if ai.TotalUses == 0 {
		buf.WriteString("No outcomes logged for this approach yet.\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func situationColumns() []table.Column {
	return []table.Column{
		{Title: "Approach", Width: 16},
		{Title: "Uses", Width: 5},
		{Title: "Rated", Width: 5},
		{Title: "Helped", Width: 6},
		{Title: "Success", Width: 7},
		{Title: "Insight", Width: 30},
	}
}

func situationRows(si stats.SituationInsights) []table.Row {
	rows := make([]table.Row, 0, 2)
	for _, ai := range []model.ApproachInsights{si.ConnectRedirect, si.EmotionCoaching} {
		rate := "-"
		if ai.RatedCount > 0 {
			rate = fmt.Sprintf("%.0f%%", ai.SuccessRate*100)
		}
		insight := ""
		if ai.Statement != nil {
			insight = *ai.Statement
		}
		rows = append(rows, table.Row{
			ai.ApproachID.Info().ShortName,
			fmt.Sprintf("%d", ai.TotalUses),
			fmt.Sprintf("%d", ai.RatedCount),
			fmt.Sprintf("%d", ai.TotalSuccesses),
			rate,
			insight,
		})
	}
	return rows
}

func buildSituationTable(rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(situationColumns()),
		table.WithRows(rows),
		table.WithHeight(max(1, height)),
	)
	t.SetWidth(width)
	t.SetStyles(situationTableStyles())
	return t
}

func situationTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) openSettings() (tea.Model, tea.Cmd) {
	m.editing = true
	m.settingsErr = ""
	m.syncSettingInputs()
	return m, m.focusSetting(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.settingsErr = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applySettings(); err != nil {
			m.settingsErr = err.Error()
			return m, nil
		}
		m.editing = false
		m.settingsErr = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.focusSetting(m.settingIndex + 1)
	case tea.KeyShiftTab:
		return m, m.focusSetting(m.settingIndex - 1)
	}
	var cmd tea.Cmd
	m.settingInputs[m.settingIndex], cmd = m.settingInputs[m.settingIndex].Update(msg)
	return m, cmd
}

func (m *Model) focusSetting(idx int) tea.Cmd {
	n := len(m.settingInputs)
	if n == 0 {
		return nil
	}
	m.settingIndex = (idx%n + n) % n
	var cmd tea.Cmd
	for i := range m.settingInputs {
		if i != m.settingIndex {
			m.settingInputs[i].Blur()
			continue
		}
		cmd = m.settingInputs[i].Focus()
	}
	return cmd
}

func (m *Model) applySettings() error {
	window := stats.DefaultTrendWindow
	if raw := strings.TrimSpace(m.settingInputs[1].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("trend window must be a whole number of at least 1")
		}
		window = n
	}

	m.childID = nil
	if child := strings.TrimSpace(m.settingInputs[0].Value()); child != "" {
		m.childID = &child
	}
	m.trendWindow = window
	return nil
}

func nextTrendWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevTrendWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
