package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/steady/internal/export"
	"github.com/verte-zerg/steady/internal/model"
	"github.com/verte-zerg/steady/internal/stats"
	"github.com/verte-zerg/steady/internal/statsui"
)

const defaultHistoryLimit = 20

var (
	decideSituation string
	decideContext   string
	decideApproach  string
	decideNoHistory bool
	decideJSON      bool
	decideRate      string

	profileName        string
	profileAge         int
	profileReactivity  int
	profilePersistence int
	profileSensitivity int

	logSituation string
	logOutcome   string
	logApproach  string
	logContext   string
	logNotes     string

	insightsApproach    string
	insightsSituation   string
	insightsChild       string
	insightsTrendWindow int
	insightsTUI         bool
	insightsJSON        bool

	historyLimit int

	exportFormat string
	exportOutput string

	resetHistoryOnly bool
	resetYes         bool
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Print guidance for a situation",
		Args:  cobra.NoArgs,
		RunE:  runDecideCmd,
	}
	cmd.Flags().StringVar(&decideSituation, "situation", "", "situation (tantrum, refusing, bedtime, sibling, transition)")
	cmd.Flags().StringVar(&decideContext, "context", "", "comma-separated context factors (tired, hungry, overstimulated, public)")
	cmd.Flags().StringVar(&decideApproach, "approach", "", "approach override (connect-redirect, emotion-coaching)")
	cmd.Flags().BoolVar(&decideNoHistory, "no-history", false, "ignore past sessions")
	cmd.Flags().BoolVar(&decideJSON, "json", false, "print the decision as JSON")
	cmd.Flags().StringVar(&decideRate, "rate", "", "save the session to history with a rating (worked, somewhat, didnt)")
	_ = cmd.MarkFlagRequired("situation")
	return cmd
}

func runDecideCmd(cmd *cobra.Command, _ []string) error {
	situation, err := model.ParseSituation(decideSituation)
	if err != nil {
		return err
	}
	factors, err := model.ParseContextFactors(decideContext)
	if err != nil {
		return err
	}
	var rating model.OutcomeRating
	if flagChanged(cmd, "rate") {
		if rating, err = model.ParseOutcomeRating(decideRate); err != nil {
			return err
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}
	approach, err := a.approach(ctx, cmd, "approach", decideApproach)
	if err != nil {
		return err
	}

	var summary *model.HistorySummary
	if !decideNoHistory {
		events, err := a.store.ListHistory(ctx, 0)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		s := stats.SummarizeHistory(events, time.Now())
		summary = &s
	}
	out := a.engine.Decide(situation, approach, profile.Temperament, factors, summary)
	a.logger.Debug("decision generated",
		zap.String("situation", string(situation)),
		zap.String("approach", string(approach)),
		zap.Bool("history", summary != nil),
		zap.Int("steps", len(out.DoThisNow)))

	if rating != "" {
		ev, err := a.store.AddHistoryEvent(ctx, model.HistoryEvent{
			Situation:      situation,
			ContextFactors: factors,
			Approach:       approach,
			Output:         out,
			Outcome:        rating,
			ChildAge:       profile.Age,
			Temperament:    profile.Temperament,
		})
		if err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		a.logger.Info("history event saved", zap.String("id", ev.ID), zap.String("rating", string(rating)))
	}

	w := cmd.OutOrStdout()
	if decideJSON {
		return export.Write(w, export.FormatJSON, out)
	}
	return stats.RenderDecision(w, situation, approach, out, stats.TerminalWidth(w))
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the child profile",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
	cmd.Flags().StringVar(&profileName, "name", "", "child name")
	cmd.Flags().IntVar(&profileAge, "age", 0, "child age (2-10)")
	cmd.Flags().IntVar(&profileReactivity, "reactivity", 0, "reactivity (0-10)")
	cmd.Flags().IntVar(&profilePersistence, "persistence", 0, "persistence (0-10)")
	cmd.Flags().IntVar(&profileSensitivity, "sensitivity", 0, "sensitivity (0-10)")
	return cmd
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}

	changed := false
	for _, name := range []string{"name", "age", "reactivity", "persistence", "sensitivity"} {
		changed = changed || flagChanged(cmd, name)
	}
	if changed {
		applyStringFlag(cmd, "name", &profile.Name, strings.TrimSpace(profileName))
		applyIntFlag(cmd, "age", &profile.Age, profileAge)
		applyIntFlag(cmd, "reactivity", &profile.Temperament.Reactivity, profileReactivity)
		applyIntFlag(cmd, "persistence", &profile.Temperament.Persistence, profilePersistence)
		applyIntFlag(cmd, "sensitivity", &profile.Temperament.Sensitivity, profileSensitivity)
		if profile, err = a.store.SaveProfile(ctx, profile); err != nil {
			return err
		}
		a.logger.Info("profile saved", zap.Int("age", profile.Age))
	}
	return printProfile(cmd.OutOrStdout(), profile)
}

func printProfile(w io.Writer, p model.ChildProfile) error {
	name := p.Name
	if name == "" {
		name = "(unnamed)"
	}
	updated := "never"
	if !p.LastUpdated.IsZero() {
		updated = p.LastUpdated.Local().Format("2006-01-02 15:04")
	}
	_, err := fmt.Fprintf(w, "Name:        %s\nAge:         %d\nReactivity:  %d\nPersistence: %d\nSensitivity: %d\nUpdated:     %s\n",
		name, p.Age, p.Temperament.Reactivity, p.Temperament.Persistence, p.Temperament.Sensitivity, updated)
	return err
}

func newApproachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approach [id]",
		Short: "Show or switch the active approach",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runApproachCmd,
	}
}

func runApproachCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()
	if len(args) == 1 {
		approach, err := model.ParseApproach(args[0])
		if err != nil {
			return err
		}
		if err := a.store.SaveApproach(ctx, approach); err != nil {
			return err
		}
		a.logger.Info("approach saved", zap.String("approach", string(approach)))
		if a.fileCfg.Guidance.Approach != nil {
			logErrf("note: [guidance] approach in the config file still takes precedence\n")
		}
	}

	active, err := a.approach(ctx, cmd, "", "")
	if err != nil {
		return err
	}
	for _, approach := range model.Approaches {
		marker := " "
		if approach == active {
			marker = "*"
		}
		info := approach.Info()
		if _, err := fmt.Fprintf(w, "%s %-17s %s\n  %s\n", marker, approach, info.Name, info.Description); err != nil {
			return err
		}
	}
	return nil
}

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record how an interaction went",
		Args:  cobra.NoArgs,
		RunE:  runLogCmd,
	}
	cmd.Flags().StringVar(&logSituation, "situation", "", "situation the approach was used in")
	cmd.Flags().StringVar(&logOutcome, "outcome", "", "SUCCESS, NOT_SUCCESS or UNKNOWN")
	cmd.Flags().StringVar(&logApproach, "approach", "", "approach used (default: active approach)")
	cmd.Flags().StringVar(&logContext, "context", "", "up to 3 comma-separated tags (tired, hungry, rushed, public, bedtime, transition)")
	cmd.Flags().StringVar(&logNotes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("situation")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func runLogCmd(cmd *cobra.Command, _ []string) error {
	situation, err := model.ParseSituation(logSituation)
	if err != nil {
		return err
	}
	outcome, err := model.ParseOutcomeType(logOutcome)
	if err != nil {
		return err
	}
	contexts, err := model.ParseOutcomeContexts(logContext)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}
	approach, err := a.approach(ctx, cmd, "approach", logApproach)
	if err != nil {
		return err
	}
	saved, err := a.store.AddOutcome(ctx, model.InteractionOutcome{
		ChildID:     profile.ChildID(),
		ApproachID:  approach,
		SituationID: situation,
		Outcome:     outcome,
		Contexts:    contexts,
		Notes:       strings.TrimSpace(logNotes),
	})
	if err != nil {
		return err
	}
	a.logger.Info("outcome saved",
		zap.String("id", saved.ID),
		zap.String("approach", string(approach)),
		zap.String("outcome", string(outcome)))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", saved.ID)
	return err
}

func newOutcomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Edit recorded outcomes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace the notes of an outcome",
		Args:  cobra.ExactArgs(2),
		RunE:  runOutcomeNotesCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an outcome",
		Args:  cobra.ExactArgs(1),
		RunE:  runOutcomeDeleteCmd,
	})
	return cmd
}

func runOutcomeNotesCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.store.UpdateOutcomeNotes(commandContext(cmd), args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("outcome %q not found", args[0])
	}
	a.logger.Info("outcome notes updated", zap.String("id", args[0]))
	return nil
}

func runOutcomeDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.store.DeleteOutcome(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("outcome %q not found", args[0])
	}
	a.logger.Info("outcome deleted", zap.String("id", args[0]))
	return nil
}

func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show what's working",
		Args:  cobra.NoArgs,
		RunE:  runInsightsCmd,
	}
	cmd.Flags().StringVar(&insightsApproach, "approach", "", "limit to one approach")
	cmd.Flags().StringVar(&insightsSituation, "situation", "", "limit to one situation")
	cmd.Flags().StringVar(&insightsChild, "child", "", "child name (default: all outcomes)")
	cmd.Flags().IntVar(&insightsTrendWindow, "trend-window", stats.DefaultTrendWindow, "moving average window for the trend")
	cmd.Flags().BoolVar(&insightsTUI, "tui", false, "open the interactive viewer")
	cmd.Flags().BoolVar(&insightsJSON, "json", false, "print the full report as JSON")
	return cmd
}

func runInsightsCmd(cmd *cobra.Command, _ []string) error {
	var (
		approach  model.Approach
		situation model.Situation
		err       error
	)
	if insightsApproach != "" {
		if approach, err = model.ParseApproach(insightsApproach); err != nil {
			return err
		}
	}
	if insightsSituation != "" {
		if situation, err = model.ParseSituation(insightsSituation); err != nil {
			return err
		}
	}
	if insightsTrendWindow <= 0 {
		return fmt.Errorf("--trend-window must be greater than 0")
	}
	var childID *string
	if flagChanged(cmd, "child") {
		child := strings.TrimSpace(insightsChild)
		childID = &child
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if insightsTUI {
		program := tea.NewProgram(statsui.NewModel(a.store, childID, insightsTrendWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run insights TUI: %w", err)
		}
		return nil
	}

	ctx := commandContext(cmd)
	in := stats.NewInsights(a.store)
	w := cmd.OutOrStdout()
	report, err := stats.BuildReport(ctx, in, childID, insightsTrendWindow)
	if err != nil {
		return err
	}
	if insightsJSON {
		return export.Write(w, export.FormatJSON, report)
	}
	if err := stats.RenderDashboard(w, report.Dashboard, report.Trend); err != nil {
		return err
	}
	now := time.Now()
	approaches := model.Approaches
	if approach != "" {
		approaches = []model.Approach{approach}
	}
	for _, ap := range approaches {
		ai, err := in.ComputeApproachInsights(ctx, ap, situation, childID)
		if err != nil {
			return err
		}
		if err := stats.RenderInsights(w, ai, now); err != nil {
			return err
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent guidance sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of sessions to show (0 = all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.store.ListHistory(commandContext(cmd), historyLimit)
	if err != nil {
		return err
	}
	return stats.RenderHistory(cmd.OutOrStdout(), events, time.Now())
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export profile, history and outcomes",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", string(export.FormatJSON), "json or yaml")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := export.Build(commandContext(cmd), a.store, time.Now())
	if err != nil {
		return err
	}
	if exportOutput == "" {
		return export.Write(cmd.OutOrStdout(), format, snapshot)
	}

	file, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.Write(file, format, snapshot); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	a.logger.Info("export written",
		zap.String("path", exportOutput),
		zap.String("format", string(format)),
		zap.Int("history", len(snapshot.History)),
		zap.Int("outcomes", len(snapshot.Outcomes)))
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored data",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetHistoryOnly, "history-only", false, "only clear guidance history")
	cmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	what := "the profile, approach, history and outcome log"
	if resetHistoryOnly {
		what = "the guidance history"
	}
	if !resetYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s?", what))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	if resetHistoryOnly {
		err = a.store.ResetHistory(ctx)
	} else {
		err = a.store.ResetAll(ctx)
	}
	if err != nil {
		return err
	}
	a.logger.Info("data reset", zap.Bool("history_only", resetHistoryOnly))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", what)
	return err
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
