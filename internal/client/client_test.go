// ABOUTME: Tests for the API client against a real API server over httptest.
// ABOUTME: Verifies a single login per process, re-login on 401, and error mapping.
package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/api"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "correct horse battery"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

type countingServer struct {
	*httptest.Server
	logins atomic.Int32
}

func newServer(t *testing.T, ttl time.Duration) *countingServer {
	t.Helper()
	owner := uuid.New()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), owner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	hash, err := api.HashPassword(testPassword)
	require.NoError(t, err)
	auth, err := api.NewAuthenticator(hash, testSecret, ttl, owner)
	require.NoError(t, err)

	handler := api.New(api.Options{Repo: repo, Auth: auth}).Handler()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			cs.logins.Add(1)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func TestClientLogsInOnce(t *testing.T) {
	srv := newServer(t, time.Hour)
	c := New(srv.URL+"/", testPassword)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListSessions(ctx, storage.SessionFilter{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := c.ListInsights(ctx)
	require.NoError(t, err)
	_, err = c.Analytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), srv.logins.Load())
}

func TestClientSessionRoundTrip(t *testing.T) {
	srv := newServer(t, time.Hour)
	c := New(srv.URL, testPassword)
	ctx := context.Background()

	created, err := c.CreateSession(ctx, models.SessionInput{
		Date:      "2026-02-03",
		Types:     []models.SessionType{models.TypeBoulder},
		Intensity: "hard",
		Injuries:  []models.InjuryInput{{Location: "finger"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, created.Intensity)

	in := models.InputFromSession(created)
	in.Injuries = append(in.Injuries, models.InjuryInput{Location: "elbow"})
	updated, err := c.UpdateSession(ctx, created.ID.String(), in)
	require.NoError(t, err)
	require.Len(t, updated.Injuries, 2)

	injuries, err := c.ListInjuries(ctx, storage.SessionFilter{From: "2026-02-01"})
	require.NoError(t, err)
	assert.Len(t, injuries, 2)

	locations, err := c.InjuryLocations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"finger", "elbow"}, locations)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.NotNil(t, summary.CoachInsights)

	require.NoError(t, c.DeleteSession(ctx, created.ID.String()))
	_, err = c.GetSession(ctx, created.ID.String())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestClientErrorMapping(t *testing.T) {
	srv := newServer(t, time.Hour)
	c := New(srv.URL, testPassword)
	ctx := context.Background()

	_, err := c.CreateInsight(ctx, models.InsightInput{Content: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalid)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	_, err = c.UpdateInsight(ctx, uuid.NewString(), models.InsightInput{Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClientBadPassword(t *testing.T) {
	srv := newServer(t, time.Hour)
	c := New(srv.URL, "wrong")

	_, err := c.ListSessions(context.Background(), storage.SessionFilter{})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClientRelogsInAfterRejectedToken(t *testing.T) {
	srv := newServer(t, time.Hour)
	c := New(srv.URL, testPassword)
	ctx := context.Background()

	_, err := c.Venues(ctx)
	require.NoError(t, err)

	// Simulate a token the server no longer accepts.
	c.mu.Lock()
	c.token = "stale"
	c.mu.Unlock()

	_, err = c.Venues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.logins.Load())
}

func TestClientRenewsExpiringToken(t *testing.T) {
	srv := newServer(t, 10*time.Second)
	c := New(srv.URL, testPassword)
	ctx := context.Background()

	// A 10s token is inside the renewal skew, so every call logs in.
	_, err := c.ListInsights(ctx)
	require.NoError(t, err)
	_, err = c.ListInsights(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.logins.Load())
}

func TestFilterQuery(t *testing.T) {
	assert.Equal(t, "", filterQuery(storage.SessionFilter{}))
	assert.Equal(t, "?from=2026-01-01&limit=5&to=2026-02-01",
		filterQuery(storage.SessionFilter{From: "2026-01-01", To: "2026-02-01", Limit: 5}))
}
