// ABOUTME: PostgreSQL Repository backed by a pgx connection pool.
// ABOUTME: Aggregates run as server-side SQL functions installed from schema.sql.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store is a Repository bound to one owner.
type Store struct {
	pool  *pgxpool.Pool
	owner uuid.UUID
}

// Compile-time check that Store implements storage.Repository.
var _ storage.Repository = (*Store)(nil)

// NewStore connects to dsn, verifies the connection, and installs the schema.
func NewStore(ctx context.Context, dsn string, owner uuid.UUID) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool, owner: owner}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the schema and (re)creates the aggregate functions.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Owner returns the owner this store is scoped to.
func (s *Store) Owner() uuid.UUID {
	return s.owner
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// resolveID finds the full ID in table from an ID or unique prefix.
func (s *Store) resolveID(ctx context.Context, table, idOrPrefix string) (uuid.UUID, error) {
	if id, err := uuid.Parse(idOrPrefix); err == nil {
		return id, nil
	}
	if idOrPrefix == "" {
		return uuid.Nil, fmt.Errorf("%w: empty id", storage.ErrNotFound)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id FROM `+table+` WHERE user_id = $1 AND id::text LIKE $2 || '%' LIMIT 2`,
		s.owner, strings.ToLower(idOrPrefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve %s ID: %w", table, err)
	}
	defer rows.Close()

	var matches []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, fmt.Errorf("scan %s ID: %w", table, err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("resolve %s ID: %w", table, err)
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", storage.ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%w %s: matches multiple records", storage.ErrAmbiguous, idOrPrefix)
	}
}
