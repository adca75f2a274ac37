// ABOUTME: MCP resource implementations for the training log.
// ABOUTME: Provides cledger://sessions/recent, cledger://analytics, and cledger://insights.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/cledger/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	recentSessionsURI = "cledger://sessions/recent"
	analyticsURI      = "cledger://analytics"
	insightsURI       = "cledger://insights"

	recentSessionsLimit = 10
)

func (s *Server) registerResources() {
	// cledger://sessions/recent - Last 10 sessions
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentSessionsURI,
		Name:        "Recent Sessions",
		Description: "The 10 most recent training sessions with injuries",
		MIMEType:    "application/json",
	}, s.handleRecentSessionsResource)

	// cledger://analytics - Current analytics snapshot
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         analyticsURI,
		Name:        "Training Analytics",
		Description: "Training load, weekly counts, rest metrics, and load trend",
		MIMEType:    "application/json",
	}, s.handleAnalyticsResource)

	// cledger://insights - All insights
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         insightsURI,
		Name:        "Coaching Insights",
		Description: "All coaching insights, pinned first",
		MIMEType:    "application/json",
	}, s.handleInsightsResource)
}

// Resource handlers

func (s *Server) handleRecentSessionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	sessions, err := s.ledger.ListSessions(ctx, storage.SessionFilter{Limit: recentSessionsLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return jsonResource(recentSessionsURI, sessions)
}

func (s *Server) handleAnalyticsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	a, err := s.ledger.Analytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}
	return jsonResource(analyticsURI, a)
}

func (s *Server) handleInsightsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	insights, err := s.ledger.ListInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return jsonResource(insightsURI, insights)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
