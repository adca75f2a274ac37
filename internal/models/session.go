// ABOUTME: Session and Injury models for climbing training entries.
// ABOUTME: Defines session types, rating enums, intensity scale, and validation.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks validation failures so callers can tell them apart from storage errors.
var ErrInvalid = errors.New("invalid")

// DateLayout is the calendar-day format used for session dates everywhere.
const DateLayout = "2006-01-02"

// SessionType is one of the categories a session can be tagged with.
type SessionType string

const (
	TypeBoulder   SessionType = "boulder"
	TypeRoutes    SessionType = "routes"
	TypeBoard     SessionType = "board"
	TypeHangboard SessionType = "hangboard"
	TypeStrength  SessionType = "strength"
	TypePrehab    SessionType = "prehab"
	TypeOther     SessionType = "other"
)

// AllSessionTypes lists valid session types in display order.
var AllSessionTypes = []SessionType{
	TypeBoulder, TypeRoutes, TypeBoard, TypeHangboard, TypeStrength, TypePrehab, TypeOther,
}

// IsValidSessionType checks if a string is a valid session type.
func IsValidSessionType(s string) bool {
	for _, st := range AllSessionTypes {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Performance is the subjective performance rating of a session.
type Performance string

const (
	PerformanceWeak   Performance = "weak"
	PerformanceNormal Performance = "normal"
	PerformanceStrong Performance = "strong"
)

// Productivity is the subjective productivity rating of a session.
type Productivity string

const (
	ProductivityLow    Productivity = "low"
	ProductivityNormal Productivity = "normal"
	ProductivityHigh   Productivity = "high"
)

// Score maps a performance rating onto the 1-3 scale used by weekly trends.
// Unknown values score as normal.
func (p Performance) Score() int {
	switch p {
	case PerformanceWeak:
		return 1
	case PerformanceStrong:
		return 3
	default:
		return 2
	}
}

// Score maps a productivity rating onto the 1-3 scale used by weekly trends.
func (p Productivity) Score() int {
	switch p {
	case ProductivityLow:
		return 1
	case ProductivityHigh:
		return 3
	default:
		return 2
	}
}

// Intensity bounds and the threshold at which a session counts as hard.
const (
	MinIntensity  = 1
	MaxIntensity  = 10
	HardIntensity = 7
)

// legacyIntensity maps the older three-level labels onto the 1-10 scale.
var legacyIntensity = map[string]int{
	"easy":     3,
	"moderate": 6,
	"hard":     8,
}

// ParseIntensity accepts either a number from 1 to 10 or one of easy, moderate, hard.
func ParseIntensity(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := legacyIntensity[s]; ok {
		return v, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: intensity %q (use 1-10 or easy, moderate, hard)", ErrInvalid, s)
	}
	if n < MinIntensity || n > MaxIntensity {
		return 0, fmt.Errorf("%w: intensity %d out of range 1-10", ErrInvalid, n)
	}
	return n, nil
}

// SeverityNames labels the 1-5 injury severity scale.
var SeverityNames = map[int]string{
	1: "Tweak",
	2: "Minor",
	3: "Moderate",
	4: "Limiting",
	5: "Severe",
}

// Injury is a pain or injury flag attached to a session.
type Injury struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	SessionID uuid.UUID `json:"-" yaml:"-"`
	Location  string    `json:"location" yaml:"location"`
	Note      *string   `json:"note" yaml:"note,omitempty"`
	Severity  *int      `json:"severity" yaml:"severity,omitempty"`
}

// NewInjury creates an injury with a generated ID.
func NewInjury(location string) *Injury {
	return &Injury{
		ID:       uuid.New(),
		Location: strings.TrimSpace(location),
	}
}

// WithNote sets a note on the injury.
func (i *Injury) WithNote(note string) *Injury {
	i.Note = &note
	return i
}

// WithSeverity sets the 1-5 severity.
func (i *Injury) WithSeverity(severity int) *Injury {
	i.Severity = &severity
	return i
}

// Session is one logged training activity on a given date.
type Session struct {
	ID              uuid.UUID     `json:"id" yaml:"id"`
	Date            string        `json:"date" yaml:"date"`
	Types           []SessionType `json:"types" yaml:"types"`
	Intensity       int           `json:"intensity" yaml:"intensity"`
	Performance     Performance   `json:"performance" yaml:"performance"`
	Productivity    Productivity  `json:"productivity" yaml:"productivity"`
	DurationMinutes *int          `json:"durationMinutes" yaml:"duration_minutes,omitempty"`
	Notes           *string       `json:"notes" yaml:"notes,omitempty"`
	MaxGrade        *string       `json:"maxGrade" yaml:"max_grade,omitempty"`
	Venue           *string       `json:"venue" yaml:"venue,omitempty"`
	Injuries        []Injury      `json:"injuries" yaml:"injuries,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" yaml:"updated_at"`
}

// NewSession creates a session for the given date with normal ratings.
func NewSession(date string, types ...SessionType) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		Date:         date,
		Types:        types,
		Intensity:    legacyIntensity["moderate"],
		Performance:  PerformanceNormal,
		Productivity: ProductivityNormal,
		Injuries:     []Injury{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WithIntensity sets the 1-10 intensity.
func (s *Session) WithIntensity(intensity int) *Session {
	s.Intensity = intensity
	return s
}

// WithRatings sets performance and productivity.
func (s *Session) WithRatings(p Performance, q Productivity) *Session {
	s.Performance = p
	s.Productivity = q
	return s
}

// WithDuration sets the duration in minutes.
func (s *Session) WithDuration(minutes int) *Session {
	s.DurationMinutes = &minutes
	return s
}

// WithNotes sets free-form notes.
func (s *Session) WithNotes(notes string) *Session {
	s.Notes = &notes
	return s
}

// WithMaxGrade sets the hardest grade climbed.
func (s *Session) WithMaxGrade(grade string) *Session {
	s.MaxGrade = &grade
	return s
}

// WithVenue sets the gym or crag.
func (s *Session) WithVenue(venue string) *Session {
	s.Venue = &venue
	return s
}

// WithInjury appends an injury and points it at this session.
func (s *Session) WithInjury(i *Injury) *Session {
	i.SessionID = s.ID
	s.Injuries = append(s.Injuries, *i)
	return s
}

// IsHard reports whether the session reaches the hard intensity threshold.
func (s *Session) IsHard() bool {
	return s.Intensity >= HardIntensity
}

// Load is the training load contributed by this session: intensity times minutes,
// with sessions of unknown length counted as an hour.
func (s *Session) Load() float64 {
	minutes := 60
	if s.DurationMinutes != nil {
		minutes = *s.DurationMinutes
	}
	return float64(s.Intensity * minutes)
}

// Normalize trims text fields, deduplicates types, and drops empty optionals.
func (s *Session) Normalize() {
	seen := make(map[SessionType]bool, len(s.Types))
	types := make([]SessionType, 0, len(s.Types))
	for _, t := range s.Types {
		t = SessionType(strings.ToLower(strings.TrimSpace(string(t))))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	s.Types = types
	s.Notes = trimOptional(s.Notes)
	s.MaxGrade = trimOptional(s.MaxGrade)
	s.Venue = trimOptional(s.Venue)
	for i := range s.Injuries {
		s.Injuries[i].Location = strings.TrimSpace(s.Injuries[i].Location)
		s.Injuries[i].Note = trimOptional(s.Injuries[i].Note)
		if s.Injuries[i].ID == uuid.Nil {
			s.Injuries[i].ID = uuid.New()
		}
		s.Injuries[i].SessionID = s.ID
	}
	if s.Injuries == nil {
		s.Injuries = []Injury{}
	}
}

// Validate checks the session against the rules the store relies on.
func (s *Session) Validate() error {
	if _, err := ParseDate(s.Date); err != nil {
		return err
	}
	if len(s.Types) == 0 {
		return fmt.Errorf("%w: at least one session type is required", ErrInvalid)
	}
	for _, t := range s.Types {
		if !IsValidSessionType(string(t)) {
			return fmt.Errorf("%w: session type %q", ErrInvalid, t)
		}
	}
	if s.Intensity < MinIntensity || s.Intensity > MaxIntensity {
		return fmt.Errorf("%w: intensity %d out of range 1-10", ErrInvalid, s.Intensity)
	}
	switch s.Performance {
	case PerformanceWeak, PerformanceNormal, PerformanceStrong:
	default:
		return fmt.Errorf("%w: performance %q (use weak, normal, strong)", ErrInvalid, s.Performance)
	}
	switch s.Productivity {
	case ProductivityLow, ProductivityNormal, ProductivityHigh:
	default:
		return fmt.Errorf("%w: productivity %q (use low, normal, high)", ErrInvalid, s.Productivity)
	}
	if s.DurationMinutes != nil && *s.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalid)
	}
	for _, inj := range s.Injuries {
		if strings.TrimSpace(inj.Location) == "" {
			return fmt.Errorf("%w: injury location must not be blank", ErrInvalid)
		}
		if inj.Severity != nil && (*inj.Severity < 1 || *inj.Severity > 5) {
			return fmt.Errorf("%w: injury severity %d out of range 1-5", ErrInvalid, *inj.Severity)
		}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q (use YYYY-MM-DD)", ErrInvalid, s)
	}
	return t, nil
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the current local calendar day as UTC midnight.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
