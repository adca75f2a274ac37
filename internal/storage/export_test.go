// ABOUTME: Tests for export and import functionality.
// ABOUTME: Verifies JSON, YAML, and Markdown export formats and JSON re-import.
package storage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harperreed/cledger/internal/models"
	"gopkg.in/yaml.v3"
)

func seedExportData(t *testing.T, db *DB) {
	t.Helper()
	mustCreateSession(t, db, models.NewSession("2026-01-26", models.TypeBoulder, models.TypeHangboard).
		WithIntensity(7).
		WithDuration(75).
		WithVenue("Movement").
		WithMaxGrade("V5").
		WithInjury(models.NewInjury("finger").WithSeverity(2).WithNote("A2")))
	mustCreateSession(t, db, models.NewSession("2026-01-20", models.TypeRoutes))
	if err := db.CreateInsight(context.Background(), models.NewInsight("deload next week").WithPinned(true)); err != nil {
		t.Fatalf("CreateInsight failed: %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)

	data, err := ExportJSON(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if export.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, export.Version)
	}
	if export.Tool != "cledger" {
		t.Errorf("Expected tool cledger, got %s", export.Tool)
	}
	if len(export.Sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(export.Sessions))
	}
	if len(export.Sessions[0].Injuries) != 1 {
		t.Errorf("Expected injuries to be exported, got %v", export.Sessions[0].Injuries)
	}
	if len(export.Insights) != 1 {
		t.Errorf("Expected 1 insight, got %d", len(export.Insights))
	}
	if !strings.Contains(string(data), `"durationMinutes": 75`) {
		t.Error("Expected camelCase session fields in JSON export")
	}
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)

	data, err := ExportYAML(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}

	if yamlData["tool"] != "cledger" {
		t.Errorf("Expected tool cledger, got %v", yamlData["tool"])
	}
	sessions, ok := yamlData["sessions"].([]interface{})
	if !ok || len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %v", yamlData["sessions"])
	}
	first, ok := sessions[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected session to be a map")
	}
	if first["venue"] != "Movement" {
		t.Errorf("Expected venue Movement, got %v", first["venue"])
	}
	if _, ok := first["injuries"]; !ok {
		t.Error("Expected injuries on first session")
	}
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)
	seedExportData(t, db)
	ctx := context.Background()

	md, err := ExportMarkdown(ctx, db, "")
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}

	for _, want := range []string{"# Training Log Export", "## Sessions", "boulder, hangboard", "75 min", "finger", "## Insights", "(pinned)"} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected %q in markdown", want)
		}
	}

	filtered, err := ExportMarkdown(ctx, db, "2026-01-21")
	if err != nil {
		t.Fatalf("ExportMarkdown with since failed: %v", err)
	}
	if strings.Contains(filtered, "2026-01-20") {
		t.Error("Expected sessions before since to be excluded")
	}
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := setupTestDB(t)
	seedExportData(t, src)
	ctx := context.Background()

	data, err := ExportJSON(ctx, src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	dst := setupTestDB(t)
	if err := ImportJSON(ctx, dst, data); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}

	srcSessions, _ := src.ListSessions(ctx, SessionFilter{})
	dstSessions, err := dst.ListSessions(ctx, SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(dstSessions) != len(srcSessions) {
		t.Fatalf("imported %d sessions, want %d", len(dstSessions), len(srcSessions))
	}
	for i := range srcSessions {
		if dstSessions[i].ID != srcSessions[i].ID {
			t.Errorf("session %d ID = %s, want %s", i, dstSessions[i].ID, srcSessions[i].ID)
		}
		if len(dstSessions[i].Injuries) != len(srcSessions[i].Injuries) {
			t.Errorf("session %d injuries = %d, want %d", i, len(dstSessions[i].Injuries), len(srcSessions[i].Injuries))
		}
	}

	insights, err := dst.ListInsights(ctx)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	if len(insights) != 1 || !insights[0].Pinned {
		t.Errorf("insights = %v, want one pinned insight", insights)
	}
}

func TestImportJSONInvalid(t *testing.T) {
	db := setupTestDB(t)
	if err := ImportJSON(context.Background(), db, []byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
