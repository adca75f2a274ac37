// ABOUTME: Charm KV snapshot backups of the whole training log.
// ABOUTME: Pushes JSON exports under timestamped keys, lists them, and restores one into a store.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/cledger/internal/storage"
)

const (
	dbName    = "cledger"
	charmHost = "charm.2389.dev"

	// SnapshotPrefix prefixes every snapshot key.
	SnapshotPrefix = "snapshot:"

	keyLayout = "20060102T150405.000000000Z"
)

var (
	// ErrNoSnapshots is returned by Restore when nothing has been pushed.
	ErrNoSnapshots = errors.New("no snapshots")
	// ErrReadOnly is returned on writes while another process holds the KV lock.
	ErrReadOnly = errors.New("cannot write: database is locked by another process")
)

// KV is the subset of the Charm key-value store backups need.
type KV interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	IsReadOnly() bool
	Close() error
}

// Snapshot describes one pushed backup.
type Snapshot struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
	Sessions  int       `json:"sessions"`
	Insights  int       `json:"insights"`
	Size      int       `json:"size"`
}

// Client stores snapshots in a Charm KV database.
type Client struct {
	kv  KV
	now func() time.Time
	mu  sync.RWMutex
}

// Open opens the cledger KV database on the Charm host and pulls remote state.
// CHARM_HOST in the environment overrides the default host.
func Open() (*Client, error) {
	if os.Getenv("CHARM_HOST") == "" {
		if err := os.Setenv("CHARM_HOST", charmHost); err != nil {
			return nil, fmt.Errorf("set charm host: %w", err)
		}
	}

	db, err := kv.OpenWithDefaultsFallback(dbName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	c := New(db)
	if !db.IsReadOnly() {
		if err := db.Sync(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sync charm kv: %w", err)
		}
	}
	return c, nil
}

// New wraps an open KV store.
func New(store KV) *Client {
	return &Client{kv: store, now: time.Now}
}

// Close closes the KV database.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Close()
}

// Push exports repo and stores it as a new snapshot.
func (c *Client) Push(ctx context.Context, repo storage.Repository) (*Snapshot, error) {
	data, err := storage.GetAllData(ctx, repo)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return nil, ErrReadOnly
	}

	created := c.now().UTC()
	key := SnapshotPrefix + created.Format(keyLayout)
	if err := c.kv.Set([]byte(key), payload); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	if err := c.kv.Sync(); err != nil {
		return nil, fmt.Errorf("sync snapshot: %w", err)
	}

	return &Snapshot{
		Key:       key,
		CreatedAt: created,
		Sessions:  len(data.Sessions),
		Insights:  len(data.Insights),
		Size:      len(payload),
	}, nil
}

// List returns all snapshots newest first.
func (c *Client) List() ([]Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.snapshotKeys()
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		val, err := c.kv.Get([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", key, err)
		}
		snap, _, err := decodeSnapshot(key, val)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, nil
}

// Restore imports a snapshot into repo. An empty key restores the newest
// snapshot; otherwise key may be a full key, a timestamp, or a prefix of either.
func (c *Client) Restore(ctx context.Context, repo storage.Repository, key string) (*Snapshot, error) {
	c.mu.RLock()
	full, err := c.resolve(key)
	if err != nil {
		c.mu.RUnlock()
		return nil, err
	}
	val, err := c.kv.Get([]byte(full))
	c.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", full, err)
	}

	snap, data, err := decodeSnapshot(full, val)
	if err != nil {
		return nil, err
	}
	if err := storage.ImportData(ctx, repo, data); err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", full, err)
	}
	return snap, nil
}

// Delete removes one snapshot by key or prefix.
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if key == "" {
		return fmt.Errorf("%w: snapshot key required", storage.ErrNotFound)
	}
	full, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := c.kv.Delete([]byte(full)); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", full, err)
	}
	if err := c.kv.Sync(); err != nil {
		return fmt.Errorf("sync snapshot delete: %w", err)
	}
	return nil
}

// snapshotKeys returns snapshot keys newest first. Callers hold mu.
func (c *Client) snapshotKeys() ([]string, error) {
	all, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	prefix := []byte(SnapshotPrefix)
	var keys []string
	for _, k := range all {
		if bytes.HasPrefix(k, prefix) {
			keys = append(keys, string(k))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// resolve maps a key, timestamp, or prefix onto exactly one snapshot key. Callers hold mu.
func (c *Client) resolve(key string) (string, error) {
	keys, err := c.snapshotKeys()
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", ErrNoSnapshots
	}
	if key == "" {
		return keys[0], nil
	}

	search := key
	if !strings.HasPrefix(search, SnapshotPrefix) {
		search = SnapshotPrefix + search
	}
	var matches []string
	for _, k := range keys {
		if strings.HasPrefix(k, search) {
			matches = append(matches, k)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: snapshot %s", storage.ErrNotFound, key)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: snapshot %s matches %d snapshots", storage.ErrAmbiguous, key, len(matches))
	}
}

func decodeSnapshot(key string, val []byte) (*Snapshot, *storage.ExportData, error) {
	var data storage.ExportData
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	created, err := time.Parse(keyLayout, strings.TrimPrefix(key, SnapshotPrefix))
	if err != nil {
		created = data.ExportedAt
	}
	return &Snapshot{
		Key:       key,
		CreatedAt: created,
		Sessions:  len(data.Sessions),
		Insights:  len(data.Insights),
		Size:      len(val),
	}, &data, nil
}
