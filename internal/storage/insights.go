// ABOUTME: Insight CRUD operations for SQLite storage.
// ABOUTME: Lists are ordered pinned-first, then most recently updated.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
)

// CreateInsight inserts a new insight.
func (d *DB) CreateInsight(ctx context.Context, i *models.Insight) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, content, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		i.ID.String(), d.owner.String(), i.Content, boolToInt(i.Pinned),
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// GetInsight retrieves an insight by ID or unique prefix.
func (d *DB) GetInsight(ctx context.Context, idOrPrefix string) (*models.Insight, error) {
	id, err := d.resolveID(ctx, "insights", idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRowContext(ctx, `
		SELECT id, content, pinned, created_at, updated_at
		FROM insights WHERE id = ? AND user_id = ?`, id, d.owner.String())
	i, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: insight %s", ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	return i, nil
}

// ListInsights returns all insights, pinned first.
func (d *DB) ListInsights(ctx context.Context) ([]*models.Insight, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, content, pinned, created_at, updated_at
		FROM insights WHERE user_id = ?
		ORDER BY pinned DESC, updated_at DESC`, d.owner.String())
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	insights := []*models.Insight{}
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}

// UpdateInsight rewrites content and pinned state and bumps UpdatedAt.
func (d *DB) UpdateInsight(ctx context.Context, i *models.Insight) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.UpdatedAt = time.Now().UTC()

	result, err := d.db.ExecContext(ctx, `
		UPDATE insights SET content = ?, pinned = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		i.Content, boolToInt(i.Pinned), formatTime(i.UpdatedAt), i.ID.String(), d.owner.String(),
	)
	if err != nil {
		return fmt.Errorf("update insight: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: insight %s", ErrNotFound, i.ID)
	}
	return nil
}

// DeleteInsight removes an insight by ID or unique prefix.
func (d *DB) DeleteInsight(ctx context.Context, idOrPrefix string) error {
	id, err := d.resolveID(ctx, "insights", idOrPrefix)
	if err != nil {
		return err
	}

	result, err := d.db.ExecContext(ctx,
		`DELETE FROM insights WHERE id = ? AND user_id = ?`, id, d.owner.String())
	if err != nil {
		return fmt.Errorf("delete insight: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: insight %s", ErrNotFound, idOrPrefix)
	}
	return nil
}

func scanInsight(row scanner) (*models.Insight, error) {
	var (
		i                           models.Insight
		idStr, createdAt, updatedAt string
		pinned                      int
	)
	if err := row.Scan(&idStr, &i.Content, &pinned, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse insight ID: %w", err)
	}
	i.ID = id
	i.Pinned = pinned != 0
	i.CreatedAt = parseTime(createdAt)
	i.UpdatedAt = parseTime(updatedAt)
	return &i, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
