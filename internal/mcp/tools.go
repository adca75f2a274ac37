// ABOUTME: MCP tool implementations for the training log.
// ABOUTME: Session, injury, analytics, insight, and summary tools over a Ledger.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	// list_sessions
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List training sessions newest first, optionally within a date range",
	}, s.handleListSessions)

	// get_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_session",
		Description: "Get a training session with its injuries by ID or ID prefix",
	}, s.handleGetSession)

	// list_injuries
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_injuries",
		Description: "List injuries recorded on sessions, optionally within a date range",
	}, s.handleListInjuries)

	// get_analytics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_analytics",
		Description: "Get training load, weekly counts, hard-session and rest metrics, and load trend",
	}, s.handleGetAnalytics)

	// log_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_session",
		Description: "Log a new climbing or training session",
	}, s.handleLogSession)

	// log_injury
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_injury",
		Description: "Add an injury to an existing session",
	}, s.handleLogInjury)

	// list_insights
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_insights",
		Description: "List coaching insights, pinned first",
	}, s.handleListInsights)

	// add_insight
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_insight",
		Description: "Record a coaching insight",
	}, s.handleAddInsight)

	// update_insight
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_insight",
		Description: "Replace an insight's content and pinned state",
	}, s.handleUpdateInsight)

	// get_training_summary
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_training_summary",
		Description: "Get a coaching summary: last 14 days of sessions and injuries, analytics, trends, and top insights",
	}, s.handleGetTrainingSummary)
}

// Tool input types

type emptyInput struct{}

type listSessionsInput struct {
	From  string `json:"from,omitempty" jsonschema:"Start date inclusive (YYYY-MM-DD)"`
	To    string `json:"to,omitempty" jsonschema:"End date inclusive (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results"`
}

type getSessionInput struct {
	ID string `json:"id" jsonschema:"Session ID or prefix"`
}

type listInjuriesInput struct {
	From string `json:"from,omitempty" jsonschema:"Start date inclusive (YYYY-MM-DD)"`
	To   string `json:"to,omitempty" jsonschema:"End date inclusive (YYYY-MM-DD)"`
}

type injuryInput struct {
	Location string `json:"location" jsonschema:"Body location, e.g. finger or shoulder"`
	Note     string `json:"note,omitempty" jsonschema:"Optional note"`
	Severity int    `json:"severity,omitempty" jsonschema:"Optional severity 1-5"`
}

type logSessionInput struct {
	Date            string        `json:"date" jsonschema:"Session date (YYYY-MM-DD)"`
	Types           []string      `json:"types" jsonschema:"Session types: boulder, routes, board, hangboard, strength, prehab, other"`
	Intensity       string        `json:"intensity" jsonschema:"Intensity 1-10 or easy, moderate, hard"`
	Performance     string        `json:"performance" jsonschema:"weak, normal, or strong"`
	Productivity    string        `json:"productivity" jsonschema:"low, normal, or high"`
	DurationMinutes int           `json:"durationMinutes,omitempty" jsonschema:"Duration in minutes"`
	Notes           string        `json:"notes,omitempty" jsonschema:"Session notes"`
	MaxGrade        string        `json:"maxGrade,omitempty" jsonschema:"Hardest grade climbed"`
	Venue           string        `json:"venue,omitempty" jsonschema:"Gym or crag"`
	Injuries        []injuryInput `json:"injuries,omitempty" jsonschema:"Injuries noticed during the session"`
}

type logInjuryInput struct {
	SessionID string `json:"sessionId" jsonschema:"Session ID or prefix"`
	Location  string `json:"location" jsonschema:"Body location, e.g. finger or shoulder"`
	Note      string `json:"note,omitempty" jsonschema:"Optional note"`
	Severity  int    `json:"severity,omitempty" jsonschema:"Optional severity 1-5"`
}

type addInsightInput struct {
	Content string `json:"content" jsonschema:"Insight text"`
	Pinned  bool   `json:"pinned,omitempty" jsonschema:"Pin the insight (default false)"`
}

type updateInsightInput struct {
	ID      string `json:"id" jsonschema:"Insight ID or prefix"`
	Content string `json:"content" jsonschema:"New insight text"`
	Pinned  bool   `json:"pinned,omitempty" jsonschema:"Pinned state (default false)"`
}

// Tool handlers

func (s *Server) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input listSessionsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit < 0 {
		return nil, nil, fmt.Errorf("limit must not be negative")
	}
	sessions, err := s.ledger.ListSessions(ctx, storage.SessionFilter{
		From:  input.From,
		To:    input.To,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, nil, s.toolError("list sessions", err)
	}
	return jsonResult(sessions)
}

func (s *Server) handleGetSession(ctx context.Context, req *mcp.CallToolRequest, input getSessionInput) (*mcp.CallToolResult, any, error) {
	session, err := s.ledger.GetSession(ctx, input.ID)
	if err != nil {
		return nil, nil, s.toolError("get session", err)
	}
	return jsonResult(session)
}

func (s *Server) handleListInjuries(ctx context.Context, req *mcp.CallToolRequest, input listInjuriesInput) (*mcp.CallToolResult, any, error) {
	injuries, err := s.ledger.ListInjuries(ctx, storage.SessionFilter{From: input.From, To: input.To})
	if err != nil {
		return nil, nil, s.toolError("list injuries", err)
	}
	return jsonResult(injuries)
}

func (s *Server) handleGetAnalytics(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	a, err := s.ledger.Analytics(ctx)
	if err != nil {
		return nil, nil, s.toolError("compute analytics", err)
	}
	return jsonResult(a)
}

func (s *Server) handleLogSession(ctx context.Context, req *mcp.CallToolRequest, input logSessionInput) (*mcp.CallToolResult, any, error) {
	in := models.SessionInput{
		Date:         input.Date,
		Intensity:    models.IntensityInput(input.Intensity),
		Performance:  models.Performance(input.Performance),
		Productivity: models.Productivity(input.Productivity),
		Injuries:     make([]models.InjuryInput, 0, len(input.Injuries)),
	}
	for _, t := range input.Types {
		in.Types = append(in.Types, models.SessionType(t))
	}
	in.DurationMinutes = optionalInt(input.DurationMinutes)
	in.Notes = optionalString(input.Notes)
	in.MaxGrade = optionalString(input.MaxGrade)
	in.Venue = optionalString(input.Venue)
	for _, inj := range input.Injuries {
		in.Injuries = append(in.Injuries, models.InjuryInput{
			Location: inj.Location,
			Note:     optionalString(inj.Note),
			Severity: optionalInt(inj.Severity),
		})
	}

	session, err := s.ledger.CreateSession(ctx, in)
	if err != nil {
		return nil, nil, s.toolError("log session", err)
	}
	s.logger.Info("session logged", zap.String("id", session.ID.String()), zap.String("date", session.Date))
	return jsonResult(session)
}

func (s *Server) handleLogInjury(ctx context.Context, req *mcp.CallToolRequest, input logInjuryInput) (*mcp.CallToolResult, any, error) {
	session, err := s.ledger.GetSession(ctx, input.SessionID)
	if err != nil {
		return nil, nil, s.toolError("get session", err)
	}

	in := models.InputFromSession(session)
	in.Injuries = append(in.Injuries, models.InjuryInput{
		Location: input.Location,
		Note:     optionalString(input.Note),
		Severity: optionalInt(input.Severity),
	})

	updated, err := s.ledger.UpdateSession(ctx, session.ID.String(), in)
	if err != nil {
		return nil, nil, s.toolError("log injury", err)
	}
	s.logger.Info("injury logged", zap.String("session", updated.ID.String()), zap.String("location", input.Location))
	return jsonResult(updated)
}

func (s *Server) handleListInsights(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	insights, err := s.ledger.ListInsights(ctx)
	if err != nil {
		return nil, nil, s.toolError("list insights", err)
	}
	return jsonResult(insights)
}

func (s *Server) handleAddInsight(ctx context.Context, req *mcp.CallToolRequest, input addInsightInput) (*mcp.CallToolResult, any, error) {
	insight, err := s.ledger.CreateInsight(ctx, models.InsightInput{Content: input.Content, Pinned: input.Pinned})
	if err != nil {
		return nil, nil, s.toolError("add insight", err)
	}
	return jsonResult(insight)
}

func (s *Server) handleUpdateInsight(ctx context.Context, req *mcp.CallToolRequest, input updateInsightInput) (*mcp.CallToolResult, any, error) {
	insight, err := s.ledger.UpdateInsight(ctx, input.ID, models.InsightInput{Content: input.Content, Pinned: input.Pinned})
	if err != nil {
		return nil, nil, s.toolError("update insight", err)
	}
	return jsonResult(insight)
}

func (s *Server) handleGetTrainingSummary(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	summary, err := s.ledger.Summary(ctx)
	if err != nil {
		return nil, nil, s.toolError("build training summary", err)
	}
	return jsonResult(summary)
}

// toolError logs err and returns it wrapped for the client.
func (s *Server) toolError(action string, err error) error {
	s.logger.Warn("tool failed", zap.String("action", action), zap.Error(err))
	return fmt.Errorf("failed to %s: %w", action, err)
}

// jsonResult returns v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
