// ABOUTME: Shared terminal formatting helpers for CLI output.
// ABOUTME: Session lines, injury specs, and JSON printing.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/cledger/internal/models"
)

var (
	faint  = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func shortID(s fmt.Stringer) string {
	return s.String()[:8]
}

func joinTypes(types []models.SessionType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// printSessionLine prints: ID  DATE  TYPES  INTENSITY  DURATION  VENUE  (INJURIES)
func printSessionLine(w io.Writer, s *models.Session) {
	intensity := fmt.Sprintf("i%d", s.Intensity)
	if s.IsHard() {
		intensity = yellow.Sprint(intensity)
	}
	duration := "   -  "
	if s.DurationMinutes != nil {
		duration = fmt.Sprintf("%3dmin", *s.DurationMinutes)
	}
	extra := ""
	if s.Venue != nil {
		extra = " @ " + *s.Venue
	}
	if n := len(s.Injuries); n > 0 {
		extra += yellow.Sprintf(" (%d injur%s)", n, plural(n, "y", "ies"))
	}
	fmt.Fprintf(w, "%s %s %s %s %s%s\n",
		faint.Sprint(shortID(s.ID)),
		s.Date,
		padRight(joinTypes(s.Types), 20),
		intensity,
		duration,
		extra)
}

func printSessionDetail(w io.Writer, s *models.Session) {
	bold.Fprintf(w, "%s  %s\n", s.Date, joinTypes(s.Types))
	fmt.Fprintf(w, "  ID:           %s\n", s.ID)
	fmt.Fprintf(w, "  Intensity:    %d/10\n", s.Intensity)
	fmt.Fprintf(w, "  Performance:  %s\n", s.Performance)
	fmt.Fprintf(w, "  Productivity: %s\n", s.Productivity)
	if s.DurationMinutes != nil {
		fmt.Fprintf(w, "  Duration:     %d min\n", *s.DurationMinutes)
	}
	fmt.Fprintf(w, "  Load:         %.0f\n", s.Load())
	if s.MaxGrade != nil {
		fmt.Fprintf(w, "  Max grade:    %s\n", *s.MaxGrade)
	}
	if s.Venue != nil {
		fmt.Fprintf(w, "  Venue:        %s\n", *s.Venue)
	}
	if s.Notes != nil {
		fmt.Fprintf(w, "  Notes:        %s\n", *s.Notes)
	}
	if len(s.Injuries) > 0 {
		fmt.Fprintln(w, "  Injuries:")
		for _, inj := range s.Injuries {
			line := "    - " + inj.Location
			if inj.Severity != nil {
				line += fmt.Sprintf(" [%d %s]", *inj.Severity, models.SeverityNames[*inj.Severity])
			}
			if inj.Note != nil {
				line += ": " + *inj.Note
			}
			fmt.Fprintln(w, line)
		}
	}
}

// parseInjury parses "location[:severity[:note]]".
func parseInjury(spec string) (models.InjuryInput, error) {
	parts := strings.SplitN(spec, ":", 3)
	in := models.InjuryInput{Location: strings.TrimSpace(parts[0])}
	if in.Location == "" {
		return in, fmt.Errorf("%w: injury %q needs a location", models.ErrInvalid, spec)
	}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return in, fmt.Errorf("%w: injury severity %q", models.ErrInvalid, parts[1])
		}
		in.Severity = &n
	}
	if len(parts) > 2 {
		in.Note = optional(parts[2])
	}
	return in, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
