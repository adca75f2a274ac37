// ABOUTME: Insight persistence for the PostgreSQL store.
// ABOUTME: Lists are ordered pinned-first, then most recently updated.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateInsight(ctx context.Context, i *models.Insight) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO insights (id, user_id, content, pinned, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, i.ID, s.owner, i.Content, i.Pinned, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

func (s *Store) GetInsight(ctx context.Context, idOrPrefix string) (*models.Insight, error) {
	id, err := s.resolveID(ctx, "insights", idOrPrefix)
	if err != nil {
		return nil, err
	}

	var i models.Insight
	err = s.pool.QueryRow(ctx, `
		SELECT id, content, pinned, created_at, updated_at
		FROM insights WHERE id = $1 AND user_id = $2
	`, id, s.owner).Scan(&i.ID, &i.Content, &i.Pinned, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: insight %s", storage.ErrNotFound, idOrPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return &i, nil
}

func (s *Store) ListInsights(ctx context.Context) ([]*models.Insight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, content, pinned, created_at, updated_at
		FROM insights WHERE user_id = $1
		ORDER BY pinned DESC, updated_at DESC
	`, s.owner)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	items := []*models.Insight{}
	for rows.Next() {
		var i models.Insight
		if err := rows.Scan(&i.ID, &i.Content, &i.Pinned, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		i.CreatedAt = i.CreatedAt.UTC()
		i.UpdatedAt = i.UpdatedAt.UTC()
		items = append(items, &i)
	}
	return items, rows.Err()
}

func (s *Store) UpdateInsight(ctx context.Context, i *models.Insight) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, `
		UPDATE insights SET content = $3, pinned = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`, i.ID, s.owner, i.Content, i.Pinned, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update insight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: insight %s", storage.ErrNotFound, i.ID)
	}
	return nil
}

func (s *Store) DeleteInsight(ctx context.Context, idOrPrefix string) error {
	id, err := s.resolveID(ctx, "insights", idOrPrefix)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM insights WHERE id = $1 AND user_id = $2`, id, s.owner)
	if err != nil {
		return fmt.Errorf("delete insight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: insight %s", storage.ErrNotFound, idOrPrefix)
	}
	return nil
}
