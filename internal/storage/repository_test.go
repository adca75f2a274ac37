// ABOUTME: Tests for the SQLite Repository implementation.
// ABOUTME: Verifies session, injury, and insight CRUD plus owner scoping.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return setupTestDBForOwner(t, filepath.Join(t.TempDir(), "cledger.db"), uuid.New())
}

func setupTestDBForOwner(t *testing.T, path string, owner uuid.UUID) *DB {
	t.Helper()
	db, err := Open(path, owner)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustCreateSession(t *testing.T, db *DB, s *models.Session) *models.Session {
	t.Helper()
	if err := db.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return s
}

func TestCreateAndGetSessionWithInjuries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := models.NewSession("2026-01-26", models.TypeBoulder, models.TypeHangboard).
		WithIntensity(8).
		WithRatings(models.PerformanceStrong, models.ProductivityHigh).
		WithDuration(90).
		WithNotes("projecting").
		WithMaxGrade("V6").
		WithVenue("Movement").
		WithInjury(models.NewInjury("finger").WithNote("A2 tweak").WithSeverity(2)).
		WithInjury(models.NewInjury("elbow")).
		WithInjury(models.NewInjury("shoulder").WithSeverity(4))
	mustCreateSession(t, db, s)

	got, err := db.GetSession(ctx, s.ID.String())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	if got.Date != "2026-01-26" {
		t.Errorf("Date = %s, want 2026-01-26", got.Date)
	}
	if len(got.Types) != 2 || got.Types[0] != models.TypeBoulder || got.Types[1] != models.TypeHangboard {
		t.Errorf("Types = %v, want [boulder hangboard]", got.Types)
	}
	if got.Intensity != 8 {
		t.Errorf("Intensity = %d, want 8", got.Intensity)
	}
	if got.DurationMinutes == nil || *got.DurationMinutes != 90 {
		t.Errorf("DurationMinutes = %v, want 90", got.DurationMinutes)
	}
	if got.Venue == nil || *got.Venue != "Movement" {
		t.Errorf("Venue = %v, want Movement", got.Venue)
	}

	if len(got.Injuries) != 3 {
		t.Fatalf("len(Injuries) = %d, want 3", len(got.Injuries))
	}
	byLocation := make(map[string]models.Injury)
	for _, inj := range got.Injuries {
		byLocation[inj.Location] = inj
	}
	finger := byLocation["finger"]
	if finger.Note == nil || *finger.Note != "A2 tweak" {
		t.Errorf("finger note = %v, want 'A2 tweak'", finger.Note)
	}
	if finger.Severity == nil || *finger.Severity != 2 {
		t.Errorf("finger severity = %v, want 2", finger.Severity)
	}
	elbow := byLocation["elbow"]
	if elbow.Note != nil || elbow.Severity != nil {
		t.Errorf("elbow should have no note or severity, got %v/%v", elbow.Note, elbow.Severity)
	}
	if s := byLocation["shoulder"].Severity; s == nil || *s != 4 {
		t.Errorf("shoulder severity = %v, want 4", s)
	}
}

func TestCreateSessionRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)

	s := models.NewSession("2026-01-26")
	err := db.CreateSession(context.Background(), s)
	if !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("CreateSession with no types err = %v, want ErrInvalid", err)
	}
}

func TestGetSessionByPrefix(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := mustCreateSession(t, db, models.NewSession("2026-01-26", models.TypeRoutes))

	got, err := db.GetSession(ctx, s.ID.String()[:8])
	if err != nil {
		t.Fatalf("GetSession by prefix failed: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("ID = %v, want %v", got.ID, s.ID)
	}

	if _, err := db.GetSession(ctx, "zzzzzzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown prefix err = %v, want ErrNotFound", err)
	}
}

func TestGetSessionAmbiguousPrefix(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := models.NewSession("2026-01-26", models.TypeBoulder)
	a.ID = uuid.MustParse("abcd0000-0000-0000-0000-000000000001")
	b := models.NewSession("2026-01-27", models.TypeBoulder)
	b.ID = uuid.MustParse("abcd0000-0000-0000-0000-000000000002")
	mustCreateSession(t, db, a)
	mustCreateSession(t, db, b)

	if _, err := db.GetSession(ctx, "abcd"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("GetSession(abcd) err = %v, want ErrAmbiguous", err)
	}
}

func TestListSessionsOrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := models.NewSession("2026-01-20", models.TypeBoulder)
	sameDayEarly := models.NewSession("2026-01-26", models.TypeRoutes)
	sameDayEarly.CreatedAt = time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC)
	sameDayLate := models.NewSession("2026-01-26", models.TypeBoard)
	sameDayLate.CreatedAt = time.Date(2026, 1, 26, 18, 0, 0, 0, time.UTC)
	last := models.NewSession("2026-01-28", models.TypeStrength).
		WithInjury(models.NewInjury("knee"))

	for _, s := range []*models.Session{first, sameDayEarly, sameDayLate, last} {
		mustCreateSession(t, db, s)
	}

	all, err := db.ListSessions(ctx, SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	want := []uuid.UUID{last.ID, sameDayLate.ID, sameDayEarly.ID, first.ID}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("sessions[%d] = %s (%s), want %s", i, all[i].ID, all[i].Date, id)
		}
	}
	if len(all[0].Injuries) != 1 || all[0].Injuries[0].Location != "knee" {
		t.Errorf("expected knee injury on newest session, got %v", all[0].Injuries)
	}
	if all[1].Injuries == nil || len(all[1].Injuries) != 0 {
		t.Errorf("expected empty non-nil injuries, got %v", all[1].Injuries)
	}

	ranged, err := db.ListSessions(ctx, SessionFilter{From: "2026-01-21", To: "2026-01-27"})
	if err != nil {
		t.Fatalf("ListSessions range failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("ranged len = %d, want 2", len(ranged))
	}

	limited, err := db.ListSessions(ctx, SessionFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != last.ID {
		t.Errorf("limited = %v, want only newest", limited)
	}
}

func TestUpdateSessionReplacesInjuries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := models.NewSession("2026-01-26", models.TypeBoulder).
		WithInjury(models.NewInjury("finger")).
		WithInjury(models.NewInjury("elbow"))
	mustCreateSession(t, db, s)

	s.WithIntensity(9)
	s.Injuries = []models.Injury{*models.NewInjury("wrist").WithSeverity(3)}
	if err := db.UpdateSession(ctx, s); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	got, err := db.GetSession(ctx, s.ID.String())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Intensity != 9 {
		t.Errorf("Intensity = %d, want 9", got.Intensity)
	}
	if len(got.Injuries) != 1 || got.Injuries[0].Location != "wrist" {
		t.Errorf("Injuries = %v, want only wrist", got.Injuries)
	}
}

func TestUpdateSessionInvalidKeepsInjuries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := models.NewSession("2026-01-26", models.TypeBoulder).
		WithInjury(models.NewInjury("finger"))
	mustCreateSession(t, db, s)

	s.Injuries = []models.Injury{{Location: "wrist"}, {Location: "wrist", Severity: intPtr(9)}}
	if err := db.UpdateSession(ctx, s); !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("UpdateSession err = %v, want ErrInvalid", err)
	}

	got, err := db.GetSession(ctx, s.ID.String())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Injuries) != 1 || got.Injuries[0].Location != "finger" {
		t.Errorf("Injuries = %v, want original finger injury", got.Injuries)
	}
}

func TestUpdateSessionDuplicateInjuryIDRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := models.NewSession("2026-01-26", models.TypeBoulder).
		WithInjury(models.NewInjury("finger"))
	mustCreateSession(t, db, s)

	dup := uuid.New()
	s.WithNotes("changed")
	s.Injuries = []models.Injury{{ID: dup, Location: "wrist"}, {ID: dup, Location: "elbow"}}
	if err := db.UpdateSession(ctx, s); err == nil {
		t.Fatal("expected duplicate injury ID to fail")
	}

	got, err := db.GetSession(ctx, s.ID.String())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Notes != nil {
		t.Errorf("Notes = %q, want nil after rollback", *got.Notes)
	}
	if len(got.Injuries) != 1 || got.Injuries[0].Location != "finger" {
		t.Errorf("Injuries = %v, want original finger injury after rollback", got.Injuries)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	db := setupTestDB(t)

	s := models.NewSession("2026-01-26", models.TypeBoulder)
	if err := db.UpdateSession(context.Background(), s); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSession err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSessionCascadesInjuries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := mustCreateSession(t, db, models.NewSession("2026-01-26", models.TypeBoulder).
		WithInjury(models.NewInjury("finger")))

	if err := db.DeleteSession(ctx, s.ID.String()[:8]); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := db.GetSession(ctx, s.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete err = %v, want ErrNotFound", err)
	}

	locations, err := db.ListInjuryLocations(ctx)
	if err != nil {
		t.Fatalf("ListInjuryLocations failed: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("locations = %v, want none after cascade", locations)
	}
}

func TestSuggestionLists(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreateSession(t, db, models.NewSession("2026-01-20", models.TypeBoulder).
		WithVenue("Crag").
		WithInjury(models.NewInjury("finger")).
		WithInjury(models.NewInjury("elbow")))
	mustCreateSession(t, db, models.NewSession("2026-01-26", models.TypeBoulder).
		WithVenue("Gym").
		WithInjury(models.NewInjury("finger")))
	mustCreateSession(t, db, models.NewSession("2026-01-27", models.TypeBoulder))

	locations, err := db.ListInjuryLocations(ctx)
	if err != nil {
		t.Fatalf("ListInjuryLocations failed: %v", err)
	}
	if len(locations) != 2 || locations[0] != "finger" || locations[1] != "elbow" {
		t.Errorf("locations = %v, want [finger elbow]", locations)
	}

	venues, err := db.ListVenues(ctx)
	if err != nil {
		t.Fatalf("ListVenues failed: %v", err)
	}
	if len(venues) != 2 || venues[0] != "Gym" || venues[1] != "Crag" {
		t.Errorf("venues = %v, want [Gym Crag]", venues)
	}
}

func TestInsightCRUDAndOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	older := models.NewInsight("rest more")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older.UpdatedAt = older.CreatedAt
	newer := models.NewInsight("add hangboard")
	newer.CreatedAt = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer.UpdatedAt = newer.CreatedAt
	pinned := models.NewInsight("deload week 6").WithPinned(true)
	pinned.CreatedAt = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	pinned.UpdatedAt = pinned.CreatedAt

	for _, i := range []*models.Insight{older, newer, pinned} {
		if err := db.CreateInsight(ctx, i); err != nil {
			t.Fatalf("CreateInsight failed: %v", err)
		}
	}

	list, err := db.ListInsights(ctx)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	want := []string{"deload week 6", "add hangboard", "rest more"}
	for i, w := range want {
		if list[i].Content != w {
			t.Errorf("insights[%d] = %q, want %q", i, list[i].Content, w)
		}
	}

	// Editing bumps updated_at, moving it ahead of other unpinned insights.
	older.Content = "rest more, sleep more"
	if err := db.UpdateInsight(ctx, older); err != nil {
		t.Fatalf("UpdateInsight failed: %v", err)
	}
	list, err = db.ListInsights(ctx)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	if list[1].Content != "rest more, sleep more" {
		t.Errorf("insights[1] = %q, want edited insight", list[1].Content)
	}

	got, err := db.GetInsight(ctx, pinned.ID.String()[:8])
	if err != nil {
		t.Fatalf("GetInsight by prefix failed: %v", err)
	}
	if !got.Pinned {
		t.Error("expected pinned insight")
	}

	if err := db.DeleteInsight(ctx, pinned.ID.String()); err != nil {
		t.Fatalf("DeleteInsight failed: %v", err)
	}
	if _, err := db.GetInsight(ctx, pinned.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInsight after delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateInsightRejectsEmpty(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateInsight(context.Background(), models.NewInsight(" ")); !errors.Is(err, models.ErrInvalid) {
		t.Errorf("CreateInsight err = %v, want ErrInvalid", err)
	}
}

func TestOwnerIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	alice := setupTestDBForOwner(t, path, uuid.New())
	bob := setupTestDBForOwner(t, path, uuid.New())
	ctx := context.Background()

	s := mustCreateSession(t, alice, models.NewSession("2026-01-26", models.TypeBoulder))
	if err := alice.CreateInsight(ctx, models.NewInsight("alice only")); err != nil {
		t.Fatalf("CreateInsight failed: %v", err)
	}

	sessions, err := bob.ListSessions(ctx, SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("bob sees %d sessions, want 0", len(sessions))
	}
	if _, err := bob.GetSession(ctx, s.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("bob GetSession err = %v, want ErrNotFound", err)
	}
	if err := bob.DeleteSession(ctx, s.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("bob DeleteSession err = %v, want ErrNotFound", err)
	}
	insights, err := bob.ListInsights(ctx)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("bob sees %d insights, want 0", len(insights))
	}
}

func intPtr(n int) *int { return &n }
