// ABOUTME: Calls the server-side aggregate functions and returns generic rows.
// ABOUTME: Column names come straight from each function's RETURNS TABLE clause.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
)

func knownAggregate(name string) bool {
	for _, spec := range storage.Aggregates {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// Aggregate runs SELECT * FROM name(owner, today).
func (s *Store) Aggregate(ctx context.Context, name string, today time.Time) ([]storage.Row, error) {
	if !knownAggregate(name) {
		return nil, fmt.Errorf("%w: aggregate %s", storage.ErrNotFound, name)
	}

	// name is one of storage.Aggregates, never caller input.
	rows, err := s.pool.Query(ctx, `SELECT * FROM `+name+`($1, $2::date)`, s.owner, models.FormatDate(today))
	if err != nil {
		return nil, fmt.Errorf("run aggregate %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]storage.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan aggregate %s: %w", name, err)
		}
		row := make(storage.Row, len(fields))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run aggregate %s: %w", name, err)
	}
	return result, nil
}
