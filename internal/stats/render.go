package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/steady/internal/model"
)

const (
	terminalWidthBackup = 80
	maxRenderWidth      = 100
)

// TerminalWidth returns the width of w when it is a terminal, else a fixed fallback.
func TerminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	if width > maxRenderWidth {
		return maxRenderWidth
	}
	return width
}

// RenderDecision prints a recommendation as numbered steps and avoid bullets.
func RenderDecision(w io.Writer, situation model.Situation, approach model.Approach, out model.DecisionOutput, width int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s\n\n", situation.Label(), approach.Info().Name)
	b.WriteString("Do this now\n")
	for i, step := range out.DoThisNow {
		writeHanging(&b, fmt.Sprintf("%d. ", i+1), step, width)
	}
	b.WriteString("\nAvoid this\n")
	for _, item := range out.AvoidThis {
		writeHanging(&b, "- ", item, width)
	}
	b.WriteString("\nWhy this works\n")
	writeHanging(&b, "", out.WhyThisWorks, width)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHanging(b *strings.Builder, prefix, text string, width int) {
	indent := strings.Repeat(" ", len(prefix))
	for i, line := range WrapText(text, width-len(prefix)) {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(indent)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// RenderInsights prints one approach's statistics and pattern table.
func RenderInsights(w io.Writer, in model.ApproachInsights, now time.Time) error {
	var b strings.Builder
	title := in.ApproachID.Info().Name
	if in.SituationID != "" {
		title += " · " + in.SituationID.Label()
	}
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "Uses: %d  Rated: %d  Helped: %d  Didn't help: %d\n",
		in.TotalUses, in.RatedCount, in.TotalSuccesses, in.TotalFailures)
	if in.RatedCount > 0 {
		fmt.Fprintf(&b, "Success rate: %.0f%%\n", in.SuccessRate*100)
	}
	fmt.Fprintf(&b, "Last used: %s\n", FormatTimeSinceUse(in.LastUsed, now))
	if in.Statement != nil {
		fmt.Fprintf(&b, "Insight: %s\n", *in.Statement)
	}
	if len(in.Patterns) > 0 {
		rows := make([][]string, 0, len(in.Patterns))
		for _, p := range in.Patterns {
			mark := ""
			if p.IsSignificant {
				mark = "*"
			}
			rows = append(rows, []string{
				p.Context.Label(),
				fmt.Sprintf("%.0f%%", p.SuccessRate*100),
				fmt.Sprintf("%d", p.SampleSize),
				mark,
				p.Statement,
			})
		}
		b.WriteString("\n")
		for _, line := range formatTable([]string{"Context", "Success", "Rated", "Sig", "Pattern"}, rows, map[int]bool{1: true, 2: true}) {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDashboard prints the dashboard summary line and the trend sparkline.
func RenderDashboard(w io.Writer, summary model.DashboardInsightsSummary, trend []float64) error {
	var b strings.Builder
	b.WriteString("What's working (last 30 days)\n")
	if !summary.HasMinimumData {
		fmt.Fprintf(&b, "Track %d more outcome(s) to see what's working.\n",
			MinRatedForDashboard-summary.TotalTracked)
	} else {
		top := summary.TopApproach
		fmt.Fprintf(&b, "Top approach: %s, helped %d of %d times\n",
			top.ApproachID.Info().Name, top.TotalSuccesses, top.RatedCount)
		if top.Statement != nil {
			fmt.Fprintf(&b, "%s\n", *top.Statement)
		}
		fmt.Fprintf(&b, "Outcomes tracked: %d\n", summary.TotalTracked)
	}
	if len(trend) > 0 {
		fmt.Fprintf(&b, "Trend: [%s]\n", Sparkline(trend))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHistory prints recent history events newest first.
func RenderHistory(w io.Writer, events []model.HistoryEvent, now time.Time) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No history yet.")
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		ts := ev.Timestamp
		factors := make([]string, 0, len(ev.ContextFactors))
		for _, f := range ev.ContextFactors {
			factors = append(factors, string(f))
		}
		rows = append(rows, []string{
			FormatTimeSinceUse(&ts, now),
			ev.Situation.Label(),
			ev.Approach.Info().ShortName,
			strings.Join(factors, ","),
			string(ev.Outcome),
		})
	}
	for _, line := range formatTable([]string{"When", "Situation", "Approach", "Context", "Outcome"}, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
