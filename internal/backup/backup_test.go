// ABOUTME: Tests for Charm KV snapshot backups.
// ABOUTME: Uses an in-memory KV so push, list, restore, and delete run offline.
package backup

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	mu       sync.Mutex
	data     map[string][]byte
	readOnly bool
	syncs    int
	closed   bool
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, errors.New("missing key")
	}
	return v, nil
}

func (m *memKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memKV) Keys() ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

func (m *memKV) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	return nil
}

func (m *memKV) IsReadOnly() bool { return m.readOnly }

func (m *memKV) Close() error {
	m.closed = true
	return nil
}

func openRepo(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "cledger.db"), uuid.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestClient returns a client whose clock advances one minute per call.
func newTestClient(store KV) *Client {
	c := New(store)
	tick := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return c
}

func TestPushListRestore(t *testing.T) {
	ctx := context.Background()
	src := openRepo(t)

	s := models.NewSession("2026-02-03", models.TypeBoulder).WithIntensity(7).
		WithInjury(models.NewInjury("finger").WithSeverity(2))
	require.NoError(t, src.CreateSession(ctx, s))
	require.NoError(t, src.CreateInsight(ctx, models.NewInsight("Deload next week").WithPinned(true)))

	store := newMemKV()
	c := newTestClient(store)

	first, err := c.Push(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sessions)
	assert.Equal(t, 1, first.Insights)
	assert.Equal(t, "snapshot:20260204T090100.000000000Z", first.Key)
	assert.Equal(t, 1, store.syncs)

	require.NoError(t, src.CreateSession(ctx, models.NewSession("2026-02-04", models.TypeRoutes)))
	second, err := c.Push(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Sessions)

	snaps, err := c.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, second.Key, snaps[0].Key)
	assert.True(t, snaps[0].CreatedAt.After(snaps[1].CreatedAt))

	// Empty key restores the newest snapshot.
	dst := openRepo(t)
	restored, err := c.Restore(ctx, dst, "")
	require.NoError(t, err)
	assert.Equal(t, second.Key, restored.Key)
	sessions, err := dst.ListSessions(ctx, storage.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// A timestamp prefix selects an older snapshot.
	older := openRepo(t)
	_, err = c.Restore(ctx, older, "20260204T0901")
	require.NoError(t, err)
	sessions, err = older.ListSessions(ctx, storage.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, s.ID, sessions[0].ID)
	require.Len(t, sessions[0].Injuries, 1)
	assert.Equal(t, "finger", sessions[0].Injuries[0].Location)
	insights, err := older.ListInsights(ctx)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.True(t, insights[0].Pinned)
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newMemKV())
	repo := openRepo(t)

	_, err := c.Restore(ctx, repo, "")
	assert.ErrorIs(t, err, ErrNoSnapshots)

	_, err = c.Push(ctx, repo)
	require.NoError(t, err)
	_, err = c.Push(ctx, repo)
	require.NoError(t, err)

	_, err = c.Restore(ctx, repo, "2025")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Restore(ctx, repo, "2026")
	assert.ErrorIs(t, err, storage.ErrAmbiguous)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newMemKV())
	repo := openRepo(t)

	snap, err := c.Push(ctx, repo)
	require.NoError(t, err)

	require.NoError(t, c.Delete(snap.Key))
	snaps, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, snaps)

	assert.Error(t, c.Delete(""))
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()
	store := newMemKV()
	store.readOnly = true
	c := newTestClient(store)

	_, err := c.Push(ctx, openRepo(t))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, c.Delete("x"), ErrReadOnly)
	assert.Equal(t, 0, store.syncs)

	require.NoError(t, c.Close())
	assert.True(t, store.closed)
}
