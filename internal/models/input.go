// ABOUTME: Write-side session shape shared by the HTTP API, its client, and the MCP tools.
// ABOUTME: Intensity is accepted as a 1-10 number or one of the legacy labels.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// IntensityInput holds an intensity as sent by a caller, numeric or labelled.
type IntensityInput string

// UnmarshalJSON accepts 8, "8", or "hard".
func (v *IntensityInput) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*v = IntensityInput(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: intensity must be a number or a label", ErrInvalid)
	}
	*v = IntensityInput(s)
	return nil
}

// InjuryInput is one injury in a session write.
type InjuryInput struct {
	Location string  `json:"location"`
	Note     *string `json:"note,omitempty"`
	Severity *int    `json:"severity,omitempty"`
}

// SessionInput is the body of a session create or full update.
type SessionInput struct {
	Date            string         `json:"date"`
	Types           []SessionType  `json:"types"`
	Intensity       IntensityInput `json:"intensity,omitempty"`
	Performance     Performance    `json:"performance,omitempty"`
	Productivity    Productivity   `json:"productivity,omitempty"`
	DurationMinutes *int           `json:"durationMinutes,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	MaxGrade        *string        `json:"maxGrade,omitempty"`
	Venue           *string        `json:"venue,omitempty"`
	Injuries        []InjuryInput  `json:"injuries"`
}

// NewSessionFromInput builds a new session from in.
func NewSessionFromInput(in SessionInput) (*Session, error) {
	s := NewSession(in.Date)
	if err := in.Apply(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply overwrites every user-editable field of s. Empty ratings and
// intensity fall back to the session defaults. Injuries are replaced.
func (in SessionInput) Apply(s *Session) error {
	intensity := s.Intensity
	if in.Intensity != "" {
		v, err := ParseIntensity(string(in.Intensity))
		if err != nil {
			return err
		}
		intensity = v
	}

	s.Date = in.Date
	s.Types = append([]SessionType(nil), in.Types...)
	s.Intensity = intensity
	s.Performance = in.Performance
	if s.Performance == "" {
		s.Performance = PerformanceNormal
	}
	s.Productivity = in.Productivity
	if s.Productivity == "" {
		s.Productivity = ProductivityNormal
	}
	s.DurationMinutes = in.DurationMinutes
	s.Notes = in.Notes
	s.MaxGrade = in.MaxGrade
	s.Venue = in.Venue

	s.Injuries = make([]Injury, 0, len(in.Injuries))
	for _, inj := range in.Injuries {
		i := NewInjury(inj.Location)
		i.Note = inj.Note
		i.Severity = inj.Severity
		s.WithInjury(i)
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// InputFromSession returns the write shape of an existing session.
func InputFromSession(s *Session) SessionInput {
	in := SessionInput{
		Date:            s.Date,
		Types:           append([]SessionType(nil), s.Types...),
		Intensity:       IntensityInput(strconv.Itoa(s.Intensity)),
		Performance:     s.Performance,
		Productivity:    s.Productivity,
		DurationMinutes: s.DurationMinutes,
		Notes:           s.Notes,
		MaxGrade:        s.MaxGrade,
		Venue:           s.Venue,
		Injuries:        make([]InjuryInput, 0, len(s.Injuries)),
	}
	for _, inj := range s.Injuries {
		in.Injuries = append(in.Injuries, InjuryInput{
			Location: inj.Location,
			Note:     inj.Note,
			Severity: inj.Severity,
		})
	}
	return in
}

// InsightInput is the body of an insight create or update.
type InsightInput struct {
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}
