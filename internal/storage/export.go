// ABOUTME: Export and import functionality for training log data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats over any Repository.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/cledger/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// ExportData represents the full export format for training data.
type ExportData struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Tool       string            `json:"tool" yaml:"tool"`
	Sessions   []*models.Session `json:"sessions" yaml:"sessions"`
	Insights   []*models.Insight `json:"insights" yaml:"insights"`
}

// GetAllData retrieves all sessions (with injuries) and insights for export.
func GetAllData(ctx context.Context, repo Repository) (*ExportData, error) {
	sessions, err := repo.ListSessions(ctx, SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	insights, err := repo.ListInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}

	if sessions == nil {
		sessions = []*models.Session{}
	}
	if insights == nil {
		insights = []*models.Insight{}
	}

	return &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "cledger",
		Sessions:   sessions,
		Insights:   insights,
	}, nil
}

// ImportData creates every session and insight of an export in repo.
// IDs and timestamps are preserved.
func ImportData(ctx context.Context, repo Repository, data *ExportData) error {
	for _, s := range data.Sessions {
		if err := repo.CreateSession(ctx, s); err != nil {
			return fmt.Errorf("import session %s: %w", s.ID, err)
		}
	}

	for _, i := range data.Insights {
		if err := repo.CreateInsight(ctx, i); err != nil {
			return fmt.Errorf("import insight %s: %w", i.ID, err)
		}
	}

	return nil
}

// ExportJSON exports all data as JSON.
func ExportJSON(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := GetAllData(ctx, repo)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func ExportYAML(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := GetAllData(ctx, repo)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string        `yaml:"version"`
		ExportedAt string        `yaml:"exported_at"`
		Tool       string        `yaml:"tool"`
		Sessions   []yamlSession `yaml:"sessions"`
		Insights   []yamlInsight `yaml:"insights"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Sessions:   make([]yamlSession, 0, len(data.Sessions)),
		Insights:   make([]yamlInsight, 0, len(data.Insights)),
	}

	for _, s := range data.Sessions {
		ys := yamlSession{
			ID:           s.ID.String()[:8],
			Date:         s.Date,
			Intensity:    s.Intensity,
			Performance:  string(s.Performance),
			Productivity: string(s.Productivity),
			Notes:        deref(s.Notes),
			MaxGrade:     deref(s.MaxGrade),
			Venue:        deref(s.Venue),
		}
		for _, t := range s.Types {
			ys.Types = append(ys.Types, string(t))
		}
		if s.DurationMinutes != nil {
			ys.DurationMinutes = *s.DurationMinutes
		}
		for _, inj := range s.Injuries {
			yi := yamlInjury{Location: inj.Location, Note: deref(inj.Note)}
			if inj.Severity != nil {
				yi.Severity = *inj.Severity
			}
			ys.Injuries = append(ys.Injuries, yi)
		}
		yamlData.Sessions = append(yamlData.Sessions, ys)
	}

	for _, i := range data.Insights {
		yamlData.Insights = append(yamlData.Insights, yamlInsight{
			ID:        i.ID.String()[:8],
			Content:   i.Content,
			Pinned:    i.Pinned,
			UpdatedAt: i.UpdatedAt.Format(time.RFC3339),
		})
	}

	return yaml.Marshal(yamlData)
}

type yamlSession struct {
	ID              string       `yaml:"id"`
	Date            string       `yaml:"date"`
	Types           []string     `yaml:"types"`
	Intensity       int          `yaml:"intensity"`
	Performance     string       `yaml:"performance"`
	Productivity    string       `yaml:"productivity"`
	DurationMinutes int          `yaml:"duration_minutes,omitempty"`
	MaxGrade        string       `yaml:"max_grade,omitempty"`
	Venue           string       `yaml:"venue,omitempty"`
	Notes           string       `yaml:"notes,omitempty"`
	Injuries        []yamlInjury `yaml:"injuries,omitempty"`
}

type yamlInjury struct {
	Location string `yaml:"location"`
	Severity int    `yaml:"severity,omitempty"`
	Note     string `yaml:"note,omitempty"`
}

type yamlInsight struct {
	ID        string `yaml:"id"`
	Content   string `yaml:"content"`
	Pinned    bool   `yaml:"pinned,omitempty"`
	UpdatedAt string `yaml:"updated_at"`
}

// ExportMarkdown exports sessions and insights as Markdown.
// When since is non-empty only sessions dated on or after it are included.
func ExportMarkdown(ctx context.Context, repo Repository, since string) (string, error) {
	sessions, err := repo.ListSessions(ctx, SessionFilter{From: since})
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}
	insights, err := repo.ListInsights(ctx)
	if err != nil {
		return "", fmt.Errorf("list insights: %w", err)
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Training Log Export - %s\n\n", now.Format(models.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	sb.WriteString("## Sessions\n\n")
	if len(sessions) == 0 {
		sb.WriteString("No sessions.\n\n")
	} else {
		sb.WriteString("| Date | Types | Intensity | Duration | Venue | Max Grade | Injuries |\n")
		sb.WriteString("|------|-------|-----------|----------|-------|-----------|----------|\n")
		for _, s := range sessions {
			types := make([]string, len(s.Types))
			for i, t := range s.Types {
				types[i] = string(t)
			}
			duration := ""
			if s.DurationMinutes != nil {
				duration = fmt.Sprintf("%d min", *s.DurationMinutes)
			}
			injuries := make([]string, len(s.Injuries))
			for i, inj := range s.Injuries {
				injuries[i] = inj.Location
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s | %s |\n",
				s.Date, strings.Join(types, ", "), s.Intensity, duration,
				deref(s.Venue), deref(s.MaxGrade), strings.Join(injuries, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(insights) > 0 {
		sb.WriteString("## Insights\n\n")
		for _, i := range insights {
			marker := ""
			if i.Pinned {
				marker = " (pinned)"
			}
			sb.WriteString(fmt.Sprintf("### %s%s\n\n%s\n\n", i.UpdatedAt.Format(models.DateLayout), marker, i.Content))
		}
	}

	return sb.String(), nil
}

// ImportJSON imports data from JSON bytes.
func ImportJSON(ctx context.Context, repo Repository, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return ImportData(ctx, repo, &exportData)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
