// Package export writes a portable snapshot of the stored data.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/steady/internal/model"
)

// Format names a snapshot encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts user input to a Format.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want json or yaml)", v)
	}
}

// Source is the subset of the store read by Build.
type Source interface {
	GetProfile(ctx context.Context) (*model.ChildProfile, error)
	GetApproach(ctx context.Context) (model.Approach, error)
	ListHistory(ctx context.Context, limit int) ([]model.HistoryEvent, error)
	FilteredOutcomes(ctx context.Context, filters model.OutcomeFilters) ([]model.InteractionOutcome, error)
}

// Snapshot is everything the app knows, newest records first.
type Snapshot struct {
	ExportedAt time.Time                  `json:"exportedAt" yaml:"exportedAt"`
	Profile    *model.ChildProfile        `json:"profile" yaml:"profile"`
	Approach   model.Approach             `json:"approach" yaml:"approach"`
	History    []model.HistoryEvent       `json:"history" yaml:"history"`
	Outcomes   []model.InteractionOutcome `json:"outcomes" yaml:"outcomes"`
}

// Build reads a full snapshot from src.
func Build(ctx context.Context, src Source, now time.Time) (Snapshot, error) {
	profile, err := src.GetProfile(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	approach, err := src.GetApproach(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	history, err := src.ListHistory(ctx, 0)
	if err != nil {
		return Snapshot{}, err
	}
	outcomes, err := src.FilteredOutcomes(ctx, model.OutcomeFilters{})
	if err != nil {
		return Snapshot{}, err
	}
	if history == nil {
		history = []model.HistoryEvent{}
	}
	if outcomes == nil {
		outcomes = []model.InteractionOutcome{}
	}
	return Snapshot{
		ExportedAt: now.UTC(),
		Profile:    profile,
		Approach:   approach,
		History:    history,
		Outcomes:   outcomes,
	}, nil
}

// Write encodes v in the given format.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
