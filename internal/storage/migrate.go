// ABOUTME: Data migration between training log storage backends.
// ABOUTME: Copies sessions (with injuries) and insights from source to destination.

package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Sessions int
	Injuries int
	Insights int
}

// MigrateData copies all data from src to dst storage.
// IDs and timestamps are preserved. The destination should be empty
// before calling this function.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	sessions, err := src.ListSessions(ctx, SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list source sessions: %w", err)
	}

	// Oldest first so destination created_at ordering matches the source.
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if err := dst.CreateSession(ctx, s); err != nil {
			return nil, fmt.Errorf("create session %s: %w", s.ID, err)
		}
		summary.Sessions++
		summary.Injuries += len(s.Injuries)
	}

	insights, err := src.ListInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source insights: %w", err)
	}

	for _, in := range insights {
		if err := dst.CreateInsight(ctx, in); err != nil {
			return nil, fmt.Errorf("create insight %s: %w", in.ID, err)
		}
		summary.Insights++
	}

	return summary, nil
}
