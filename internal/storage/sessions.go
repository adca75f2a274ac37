// ABOUTME: Session and injury CRUD operations for SQLite storage.
// ABOUTME: Injuries are replaced wholesale inside the same transaction as the session row.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
)

const sessionColumns = `id, date, types, intensity, performance, productivity,
	duration_minutes, notes, max_grade, venue, created_at, updated_at`

// CreateSession inserts a new session and its injuries.
func (d *DB) CreateSession(ctx context.Context, s *models.Session) error {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	types, err := json.Marshal(s.Types)
	if err != nil {
		return fmt.Errorf("encode session types: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, date, types, intensity, performance, productivity,
			duration_minutes, notes, max_grade, venue, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), d.owner.String(), s.Date, string(types), s.Intensity,
		string(s.Performance), string(s.Productivity),
		nullableInt(s.DurationMinutes), nullableString(s.Notes),
		nullableString(s.MaxGrade), nullableString(s.Venue),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := d.insertInjuries(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID or unique prefix, with its injuries.
func (d *DB) GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error) {
	id, err := d.resolveID(ctx, "sessions", idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`,
		id, d.owner.String())
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := d.attachInjuries(ctx, []*models.Session{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns sessions newest first (date desc, then created_at desc).
func (d *DB) ListSessions(ctx context.Context, f SessionFilter) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ?`
	args := []any{d.owner.String()}

	if f.From != "" {
		query += ` AND date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND date <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if err := d.attachInjuries(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateSession rewrites a session and replaces all of its injuries atomically.
func (d *DB) UpdateSession(ctx context.Context, s *models.Session) error {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()

	types, err := json.Marshal(s.Types)
	if err != nil {
		return fmt.Errorf("encode session types: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE sessions SET date = ?, types = ?, intensity = ?, performance = ?, productivity = ?,
			duration_minutes = ?, notes = ?, max_grade = ?, venue = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		s.Date, string(types), s.Intensity, string(s.Performance), string(s.Productivity),
		nullableInt(s.DurationMinutes), nullableString(s.Notes),
		nullableString(s.MaxGrade), nullableString(s.Venue), formatTime(s.UpdatedAt),
		s.ID.String(), d.owner.String(),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, s.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_injuries WHERE session_id = ? AND user_id = ?`,
		s.ID.String(), d.owner.String()); err != nil {
		return fmt.Errorf("delete injuries: %w", err)
	}

	if err := d.insertInjuries(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// DeleteSession removes a session; its injuries cascade.
func (d *DB) DeleteSession(ctx context.Context, idOrPrefix string) error {
	id, err := d.resolveID(ctx, "sessions", idOrPrefix)
	if err != nil {
		return err
	}

	result, err := d.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, d.owner.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, idOrPrefix)
	}
	return nil
}

// ListInjuryLocations returns distinct injury locations, most frequent first.
func (d *DB) ListInjuryLocations(ctx context.Context) ([]string, error) {
	return d.listStrings(ctx, `
		SELECT location FROM session_injuries
		WHERE user_id = ?
		GROUP BY location
		ORDER BY COUNT(*) DESC, location ASC`)
}

// ListVenues returns distinct venues, most recently used first.
func (d *DB) ListVenues(ctx context.Context) ([]string, error) {
	return d.listStrings(ctx, `
		SELECT venue FROM sessions
		WHERE user_id = ? AND venue IS NOT NULL AND venue != ''
		GROUP BY venue
		ORDER BY MAX(date) DESC, venue ASC`)
}

func (d *DB) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, d.owner.String())
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (d *DB) insertInjuries(ctx context.Context, tx *sql.Tx, s *models.Session) error {
	now := formatTime(time.Now())
	for pos, inj := range s.Injuries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_injuries (id, user_id, session_id, location, note, severity, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inj.ID.String(), d.owner.String(), s.ID.String(), inj.Location, nullableString(inj.Note), nullableInt(inj.Severity), pos, now,
		)
		if err != nil {
			return fmt.Errorf("insert injury: %w", err)
		}
	}
	return nil
}

// attachInjuries loads injuries for all sessions with a single IN query.
func (d *DB) attachInjuries(ctx context.Context, sessions []*models.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Session, len(sessions))
	placeholders := make([]string, 0, len(sessions))
	args := []any{d.owner.String()}
	for _, s := range sessions {
		byID[s.ID] = s
		placeholders = append(placeholders, "?")
		args = append(args, s.ID.String())
	}

	query := `SELECT id, session_id, location, note, severity FROM session_injuries
		WHERE user_id = ? AND session_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY session_id, position`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list injuries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idStr, sessionIDStr, location string
			note                          sql.NullString
			severity                      sql.NullInt64
		)
		if err := rows.Scan(&idStr, &sessionIDStr, &location, &note, &severity); err != nil {
			return fmt.Errorf("scan injury: %w", err)
		}

		inj := models.Injury{Location: location}
		inj.ID, _ = uuid.Parse(idStr)
		inj.SessionID, _ = uuid.Parse(sessionIDStr)
		if note.Valid {
			inj.Note = &note.String
		}
		if severity.Valid {
			v := int(severity.Int64)
			inj.Severity = &v
		}

		if s, ok := byID[inj.SessionID]; ok {
			s.Injuries = append(s.Injuries, inj)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		s                        models.Session
		idStr, types, perf, prod string
		createdAt, updatedAt     string
		duration                 sql.NullInt64
		notes, maxGrade, venue   sql.NullString
	)

	err := row.Scan(&idStr, &s.Date, &types, &s.Intensity, &perf, &prod,
		&duration, &notes, &maxGrade, &venue, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse session ID: %w", err)
	}
	if err := json.Unmarshal([]byte(types), &s.Types); err != nil {
		return nil, fmt.Errorf("decode session types: %w", err)
	}
	s.Performance = models.Performance(perf)
	s.Productivity = models.Productivity(prod)
	if duration.Valid {
		v := int(duration.Int64)
		s.DurationMinutes = &v
	}
	s.Notes = nullString(notes)
	s.MaxGrade = nullString(maxGrade)
	s.Venue = nullString(venue)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	s.Injuries = []models.Injury{}

	return &s, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}
