// ABOUTME: MCP server setup for the training log.
// ABOUTME: Wraps the MCP server around a Ledger, local or remote.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with ledger access.
type Server struct {
	mcpServer *mcp.Server
	ledger    Ledger
	logger    *zap.Logger
}

// NewServer creates a new MCP server over ledger.
func NewServer(ledger Ledger, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cledger",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		ledger:    ledger,
		logger:    logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
