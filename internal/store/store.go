// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/steady/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	// MaxHistoryEvents is how many history events are retained.
	MaxHistoryEvents = 50
	// MaxOutcomes is how many outcome log entries are retained.
	MaxOutcomes = 200

	approachKey = "approach"
)

// Store wraps SQLite access for profile, history and outcome data.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps and trailing windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			reactivity INTEGER NOT NULL,
			persistence INTEGER NOT NULL,
			sensitivity INTEGER NOT NULL,
			last_updated TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history_events (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			situation TEXT NOT NULL,
			context_factors TEXT NOT NULL,
			approach TEXT NOT NULL,
			output TEXT NOT NULL,
			outcome TEXT NOT NULL,
			child_age INTEGER NOT NULL,
			reactivity INTEGER NOT NULL,
			persistence INTEGER NOT NULL,
			sensitivity INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			child_id TEXT NOT NULL,
			approach_id TEXT NOT NULL,
			situation_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			outcome TEXT NOT NULL,
			contexts TEXT NOT NULL,
			notes TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_approach ON outcomes(approach_id, situation_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveProfile validates and stores the child profile, stamping LastUpdated.
func (s *Store) SaveProfile(ctx context.Context, p model.ChildProfile) (model.ChildProfile, error) {
	if err := p.Validate(); err != nil {
		return model.ChildProfile{}, err
	}
	p.LastUpdated = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (id, name, age, reactivity, persistence, sensitivity, last_updated)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, age = excluded.age,
			reactivity = excluded.reactivity, persistence = excluded.persistence,
			sensitivity = excluded.sensitivity, last_updated = excluded.last_updated`,
		p.Name,
		p.Age,
		p.Temperament.Reactivity,
		p.Temperament.Persistence,
		p.Temperament.Sensitivity,
		p.LastUpdated.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.ChildProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// GetProfile returns the stored profile, or nil when none has been saved.
func (s *Store) GetProfile(ctx context.Context) (*model.ChildProfile, error) {
	var p model.ChildProfile
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, age, reactivity, persistence, sensitivity, last_updated FROM profile WHERE id = 1`,
	).Scan(&p.Name, &p.Age, &p.Temperament.Reactivity, &p.Temperament.Persistence, &p.Temperament.Sensitivity, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p.LastUpdated, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveApproach stores the active approach.
func (s *Store) SaveApproach(ctx context.Context, a model.Approach) error {
	if _, err := model.ParseApproach(string(a)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		approachKey, string(a))
	if err != nil {
		return fmt.Errorf("save approach: %w", err)
	}
	return nil
}

// GetApproach returns the active approach, falling back to the default when
// nothing valid is stored.
func (s *Store) GetApproach(ctx context.Context) (model.Approach, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, approachKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultApproach, nil
	}
	if err != nil {
		return "", fmt.Errorf("get approach: %w", err)
	}
	a, err := model.ParseApproach(value)
	if err != nil {
		return model.DefaultApproach, nil
	}
	return a, nil
}

// AddHistoryEvent appends a history event and trims the log to MaxHistoryEvents.
// A missing ID or timestamp is filled in.
func (s *Store) AddHistoryEvent(ctx context.Context, ev model.HistoryEvent) (model.HistoryEvent, error) {
	if ev.ID == "" {
		ev.ID = "event_" + uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	output, err := json.Marshal(ev.Output)
	if err != nil {
		return model.HistoryEvent{}, err
	}
	factors := make([]string, len(ev.ContextFactors))
	for i, f := range ev.ContextFactors {
		factors[i] = string(f)
	}

	err = s.appendTrimmed(ctx, "history_events", MaxHistoryEvents,
		`INSERT INTO history_events (id, timestamp, situation, context_factors, approach, output, outcome, child_age, reactivity, persistence, sensitivity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		string(ev.Situation),
		strings.Join(factors, ","),
		string(ev.Approach),
		string(output),
		string(ev.Outcome),
		ev.ChildAge,
		ev.Temperament.Reactivity,
		ev.Temperament.Persistence,
		ev.Temperament.Sensitivity,
	)
	if err != nil {
		return model.HistoryEvent{}, fmt.Errorf("add history event: %w", err)
	}
	return ev, nil
}

// ListHistory returns history events newest first; limit <= 0 returns all.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]model.HistoryEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, situation, context_factors, approach, output, outcome, child_age, reactivity, persistence, sensitivity
		 FROM history_events
		 ORDER BY seq DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.HistoryEvent
	for rows.Next() {
		var ev model.HistoryEvent
		var ts, factors, output string
		if err := rows.Scan(&ev.ID, &ts, &ev.Situation, &factors, &ev.Approach, &output, &ev.Outcome,
			&ev.ChildAge, &ev.Temperament.Reactivity, &ev.Temperament.Persistence, &ev.Temperament.Sensitivity); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		if ev.ContextFactors, err = model.ParseContextFactors(factors); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(output), &ev.Output); err != nil {
			return nil, fmt.Errorf("decode output of %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ResetHistory removes every history event.
func (s *Store) ResetHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history_events`)
	return err
}

// AddOutcome validates and appends an outcome, trimming the log to MaxOutcomes.
// A missing ID, user or timestamp is filled in.
func (s *Store) AddOutcome(ctx context.Context, o model.InteractionOutcome) (model.InteractionOutcome, error) {
	if _, err := model.ParseOutcomeType(string(o.Outcome)); err != nil {
		return model.InteractionOutcome{}, err
	}
	if len(o.Contexts) > model.MaxOutcomeContexts {
		return model.InteractionOutcome{}, model.ErrTooManyContexts
	}
	if o.ID == "" {
		o.ID = "outcome_" + uuid.NewString()
	}
	if o.UserID == "" {
		o.UserID = model.DefaultUserID
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = s.now()
	}
	contexts := make([]string, len(o.Contexts))
	for i, c := range o.Contexts {
		contexts[i] = string(c)
	}

	err := s.appendTrimmed(ctx, "outcomes", MaxOutcomes,
		`INSERT INTO outcomes (id, user_id, child_id, approach_id, situation_id, timestamp, outcome, contexts, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.UserID,
		o.ChildID,
		string(o.ApproachID),
		string(o.SituationID),
		o.Timestamp.UTC().Format(time.RFC3339Nano),
		string(o.Outcome),
		strings.Join(contexts, ","),
		o.Notes,
	)
	if err != nil {
		return model.InteractionOutcome{}, fmt.Errorf("add outcome: %w", err)
	}
	return o, nil
}

// FilteredOutcomes returns outcomes newest first that pass filters.
// RangeDays is measured from the store clock.
func (s *Store) FilteredOutcomes(ctx context.Context, filters model.OutcomeFilters) ([]model.InteractionOutcome, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filters.ChildID != nil {
		clauses = append(clauses, "child_id = ?")
		args = append(args, *filters.ChildID)
	}
	if filters.Approach != "" {
		clauses = append(clauses, "approach_id = ?")
		args = append(args, string(filters.Approach))
	}
	if filters.Situation != "" {
		clauses = append(clauses, "situation_id = ?")
		args = append(args, string(filters.Situation))
	}
	query := fmt.Sprintf(`SELECT id, user_id, child_id, approach_id, situation_id, timestamp, outcome, contexts, notes
		FROM outcomes
		WHERE %s
		ORDER BY seq DESC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	now := s.now()
	var outcomes []model.InteractionOutcome
	for rows.Next() {
		var o model.InteractionOutcome
		var ts, contexts string
		if err := rows.Scan(&o.ID, &o.UserID, &o.ChildID, &o.ApproachID, &o.SituationID, &ts, &o.Outcome, &contexts, &o.Notes); err != nil {
			return nil, err
		}
		if o.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		if o.Contexts, err = model.ParseOutcomeContexts(contexts); err != nil {
			return nil, err
		}
		// Timestamps are text, so the trailing window is applied after decoding.
		if !filters.Match(o, now) {
			continue
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// UpdateOutcomeNotes replaces the notes of an outcome. It reports whether the outcome exists.
func (s *Store) UpdateOutcomeNotes(ctx context.Context, id, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE outcomes SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return false, fmt.Errorf("update outcome notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteOutcome removes an outcome. It reports whether the outcome existed.
func (s *Store) DeleteOutcome(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outcomes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ResetAll clears the profile, preferences, history and outcome log.
func (s *Store) ResetAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{"profile", "preferences", "history_events", "outcomes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
			return err
		}
	}
	return tx.Commit()
}

// appendTrimmed runs insert and drops the oldest rows beyond limit in one transaction.
func (s *Store) appendTrimmed(ctx context.Context, table string, limit int, insert string, args ...any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, insert, args...); err != nil {
		return err
	}
	trim := fmt.Sprintf(`DELETE FROM %s WHERE seq NOT IN (SELECT seq FROM %s ORDER BY seq DESC LIMIT ?)`, table, table)
	if _, err = tx.ExecContext(ctx, trim, limit); err != nil {
		return err
	}
	return tx.Commit()
}
