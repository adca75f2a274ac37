// ABOUTME: Session and injury persistence for the PostgreSQL store.
// ABOUTME: Session updates replace injuries inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, to_char(date, 'YYYY-MM-DD'), types, intensity, performance, productivity,
	duration_minutes, notes, max_grade, venue, created_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, v *models.Session) error {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, date, types, intensity, performance, productivity,
			duration_minutes, notes, max_grade, venue, created_at, updated_at
		)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		v.ID, s.owner, v.Date, typeStrings(v.Types), v.Intensity, string(v.Performance), string(v.Productivity),
		v.DurationMinutes, v.Notes, v.MaxGrade, v.Venue, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := s.insertInjuries(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error) {
	id, err := s.resolveID(ctx, "sessions", idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND user_id = $2`, id, s.owner)
	v, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", storage.ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := s.attachInjuries(ctx, []*models.Session{v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) ListSessions(ctx context.Context, f storage.SessionFilter) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	args := []any{s.owner}
	if f.From != "" {
		query += fmt.Sprintf(" AND date >= $%d::date", len(args)+1)
		args = append(args, f.From)
	}
	if f.To != "" {
		query += fmt.Sprintf(" AND date <= $%d::date", len(args)+1)
		args = append(args, f.To)
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	items := []*models.Session{}
	for rows.Next() {
		v, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if err := s.attachInjuries(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateSession(ctx context.Context, v *models.Session) error {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return err
	}
	v.UpdatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE sessions SET
			date = $3::date,
			types = $4,
			intensity = $5,
			performance = $6,
			productivity = $7,
			duration_minutes = $8,
			notes = $9,
			max_grade = $10,
			venue = $11,
			updated_at = $12
		WHERE id = $1 AND user_id = $2
	`,
		v.ID, s.owner, v.Date, typeStrings(v.Types), v.Intensity, string(v.Performance), string(v.Productivity),
		v.DurationMinutes, v.Notes, v.MaxGrade, v.Venue, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", storage.ErrNotFound, v.ID)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM session_injuries WHERE session_id = $1 AND user_id = $2`, v.ID, s.owner); err != nil {
		return fmt.Errorf("delete injuries: %w", err)
	}
	if err := s.insertInjuries(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteSession(ctx context.Context, idOrPrefix string) error {
	id, err := s.resolveID(ctx, "sessions", idOrPrefix)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, s.owner)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", storage.ErrNotFound, idOrPrefix)
	}
	return nil
}

func (s *Store) ListInjuryLocations(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `
		SELECT location FROM session_injuries
		WHERE user_id = $1
		GROUP BY location
		ORDER BY count(*) DESC, location ASC`)
}

func (s *Store) ListVenues(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `
		SELECT venue FROM sessions
		WHERE user_id = $1 AND venue IS NOT NULL AND venue <> ''
		GROUP BY venue
		ORDER BY max(date) DESC, venue ASC`)
}

func (s *Store) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, s.owner)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	items := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) insertInjuries(ctx context.Context, tx pgx.Tx, v *models.Session) error {
	for pos, inj := range v.Injuries {
		_, err := tx.Exec(ctx, `
			INSERT INTO session_injuries (id, user_id, session_id, location, note, severity, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, inj.ID, s.owner, v.ID, inj.Location, inj.Note, inj.Severity, pos)
		if err != nil {
			return fmt.Errorf("insert injury: %w", err)
		}
	}
	return nil
}

func (s *Store) attachInjuries(ctx context.Context, items []*models.Session) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Session, len(items))
	ids := make([]string, 0, len(items))
	for _, v := range items {
		byID[v.ID] = v
		ids = append(ids, v.ID.String())
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, location, note, severity
		FROM session_injuries
		WHERE user_id = $1 AND session_id = ANY($2::uuid[])
		ORDER BY session_id, position
	`, s.owner, ids)
	if err != nil {
		return fmt.Errorf("list injuries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inj models.Injury
		if err := rows.Scan(&inj.ID, &inj.SessionID, &inj.Location, &inj.Note, &inj.Severity); err != nil {
			return fmt.Errorf("scan injury: %w", err)
		}
		if v, ok := byID[inj.SessionID]; ok {
			v.Injuries = append(v.Injuries, inj)
		}
	}
	return rows.Err()
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		v     models.Session
		types []string
		perf  string
		prod  string
	)
	if err := row.Scan(
		&v.ID, &v.Date, &types, &v.Intensity, &perf, &prod,
		&v.DurationMinutes, &v.Notes, &v.MaxGrade, &v.Venue, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	v.Types = make([]models.SessionType, len(types))
	for i, t := range types {
		v.Types[i] = models.SessionType(t)
	}
	v.Performance = models.Performance(perf)
	v.Productivity = models.Productivity(prod)
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	v.Injuries = []models.Injury{}
	return &v, nil
}

func typeStrings(types []models.SessionType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
