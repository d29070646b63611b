// Package main provides the CLI entrypoint for steady.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/steady/internal/config"
	"github.com/verte-zerg/steady/internal/logging"
	"github.com/verte-zerg/steady/internal/model"
	"github.com/verte-zerg/steady/internal/rules"
	"github.com/verte-zerg/steady/internal/store"
	"github.com/verte-zerg/steady/internal/tui"
)

var (
	globalDBPath     string
	globalConfigPath string
	globalLogLevel   string
	globalLogFile    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "steady",
		Short:         "In-the-moment parenting guidance",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runGuideCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalDBPath, "db", "", "database path (default: $XDG_DATA_HOME/steady/steady.db)")
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/steady/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalLogFile, "log-file", "", "log file (default: $XDG_DATA_HOME/steady/steady.log)")

	rootCmd.AddCommand(newDecideCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newApproachCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newOutcomeCmd())
	rootCmd.AddCommand(newInsightsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app bundles the resources shared by every command.
type app struct {
	store   *store.Store
	engine  *rules.Engine
	logger  *zap.Logger
	fileCfg config.FileConfig
}

// openApp resolves configuration (flag > environment > TOML > default) and
// opens the store, logger and rules engine.
func openApp(cmd *cobra.Command) (*app, error) {
	env, err := config.LoadEnv(config.ConfigDir())
	if err != nil {
		return nil, err
	}
	configPath := resolvePath(cmd, "config", globalConfigPath, env.ConfigPath, config.DefaultConfigPath())
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := logging.DefaultLevel
	applyStringConfig(cmd, "log-level", &level, fileCfg.Log.Level)
	applyStringEnv(cmd, "log-level", &level, env.LogLevel)
	applyStringFlag(cmd, "log-level", &level, globalLogLevel)
	logFile := config.DefaultLogPath()
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	applyStringEnv(cmd, "log-file", &logFile, env.LogFile)
	applyStringFlag(cmd, "log-file", &logFile, globalLogFile)
	logger, err := logging.New(logging.Options{Level: level, File: logFile})
	if err != nil {
		return nil, err
	}

	engine, err := rules.NewEngine(rules.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := engine.Apply(fileCfg.Rules.Patch()); err != nil {
		return nil, fmt.Errorf("invalid [rules] in %s: %w", configPath, err)
	}

	dbPath := resolvePath(cmd, "db", globalDBPath, env.DBPath, config.DefaultDBPath())
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("app opened",
		zap.String("db", dbPath),
		zap.String("config", configPath),
		zap.String("command", cmd.Name()))
	return &app{store: st, engine: engine, logger: logger, fileCfg: fileCfg}, nil
}

func (a *app) Close() {
	if cerr := a.store.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
	_ = a.logger.Sync()
}

// profile returns the saved profile or the default one.
func (a *app) profile(ctx context.Context) (model.ChildProfile, error) {
	p, err := a.store.GetProfile(ctx)
	if err != nil {
		return model.ChildProfile{}, err
	}
	if p == nil {
		return model.DefaultChildProfile, nil
	}
	return *p, nil
}

// approach resolves the active approach: flag, then [guidance] approach, then the stored preference.
func (a *app) approach(ctx context.Context, cmd *cobra.Command, flagName, flagValue string) (model.Approach, error) {
	if flagChanged(cmd, flagName) {
		return model.ParseApproach(flagValue)
	}
	if a.fileCfg.Guidance.Approach != nil {
		parsed, err := model.ParseApproach(*a.fileCfg.Guidance.Approach)
		if err != nil {
			return "", fmt.Errorf("invalid [guidance] approach: %w", err)
		}
		return parsed, nil
	}
	return a.store.GetApproach(ctx)
}

func runGuideCmd(cmd *cobra.Command, _ []string) error {
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
	approach, err := a.approach(ctx, cmd, "", "")
	if err != nil {
		return err
	}

	m := tui.NewModel(a.store, a.engine, profile, approach, a.logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	env, err := config.LoadEnv(config.ConfigDir())
	if err != nil {
		return err
	}
	path := resolvePath(cmd, "config", globalConfigPath, env.ConfigPath, config.DefaultConfigPath())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editorCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resolvePath picks flag, then environment, then the default.
func resolvePath(cmd *cobra.Command, flagName, flagValue, envValue, def string) string {
	out := def
	applyStringEnv(cmd, flagName, &out, envValue)
	applyStringFlag(cmd, flagName, &out, flagValue)
	return out
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyStringEnv(cmd *cobra.Command, name string, target *string, value string) {
	if value == "" {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = value
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !flagChanged(cmd, name) {
		return
	}
	*target = value
}

func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if !flagChanged(cmd, name) {
		return
	}
	*target = value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func defaultConfigTemplate() string {
	d := rules.DefaultConfig()
	return fmt.Sprintf(`# steady configuration
# Uncomment a value to enable it. Precedence: CLI flag > STEADY_* environment > this file > default.
# A .env file next to this config is loaded into the environment when present.

[rules]
# reactivity-threshold = %d    # Reactivity score that adds the high-reactivity step (0-10)
# persistence-threshold = %d   # Persistence score that adds the high-persistence step (0-10)
# sensitivity-threshold = %d   # Sensitivity score that adds the high-sensitivity step (0-10)
# temperament-weight = %.1f     # Influence of temperament (0-1)

[guidance]
# approach = %q  # Pins the approach, overriding 'steady approach <id>'

[log]
# level = %q               # debug, info, warn, error
# file = "/path/to/steady.log"  # Default: $XDG_DATA_HOME/steady/steady.log
`,
		d.HighReactivityThreshold,
		d.HighPersistenceThreshold,
		d.HighSensitivityThreshold,
		d.TemperamentWeight,
		model.DefaultApproach,
		logging.DefaultLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
