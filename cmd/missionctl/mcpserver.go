package main

import (
	"context"
	"fmt"

	"github.com/missionctl/missionctl/internal/common/config"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/mcpserver"
)

// provideMcpServer starts the embedded MCP server if enabled.
// Returns the SSE endpoint URL and a cleanup function.
func provideMcpServer(ctx context.Context, cfg *config.Config, log *logger.Logger) (string, func() error, error) {
	if !cfg.MCP.Enabled {
		return "", nil, nil
	}

	mcpCfg := mcpserver.Config{
		Port:   cfg.MCP.Port,
		APIURL: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	}

	srv, cleanup, err := mcpserver.Provide(ctx, mcpCfg, log)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start MCP server: %w", err)
	}

	return srv.SSEEndpoint(), cleanup, nil
}
