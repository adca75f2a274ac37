// ABOUTME: Repository interface for training log storage.
// ABOUTME: Defines the contract for sessions, injuries, insights, and named aggregates.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/cledger/internal/models"
)

var (
	// ErrNotFound is returned when no row matches an ID or prefix.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when an ID prefix matches more than one row.
	ErrAmbiguous = errors.New("ambiguous prefix")
)

// Row is one raw result row of an aggregate, keyed by storage column name.
type Row map[string]any

// SessionFilter narrows ListSessions. Dates are inclusive YYYY-MM-DD strings.
type SessionFilter struct {
	From  string
	To    string
	Limit int
}

// Repository defines the storage interface for the training log.
// Every implementation is bound to a single owner.
type Repository interface {
	// Session operations
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, idOrPrefix string) error

	// Suggestion lists
	ListInjuryLocations(ctx context.Context) ([]string, error)
	ListVenues(ctx context.Context) ([]string, error)

	// Insight operations
	CreateInsight(ctx context.Context, i *models.Insight) error
	GetInsight(ctx context.Context, idOrPrefix string) (*models.Insight, error)
	ListInsights(ctx context.Context) ([]*models.Insight, error)
	UpdateInsight(ctx context.Context, i *models.Insight) error
	DeleteInsight(ctx context.Context, idOrPrefix string) error

	// Aggregate runs a named aggregate procedure for the given day.
	Aggregate(ctx context.Context, name string, today time.Time) ([]Row, error)

	// Lifecycle
	Close() error
}
