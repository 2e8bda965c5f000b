package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
)

func registerTools(s *server.MCPServer, cfg Config, log *logger.Logger) {
	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List mission tasks, optionally filtered by status (TODO, IN_PROGRESS, DONE, BLOCKED)."),
			mcp.WithString("status",
				mcp.Description("Only return tasks with this status (optional)"),
			),
		),
		listTasksHandler(cfg, log),
	)

	s.AddTool(
		mcp.NewTool("create_task",
			mcp.WithDescription("Create a new mission task"),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("The task title"),
			),
			mcp.WithString("description",
				mcp.Description("The task description (optional)"),
			),
			mcp.WithString("priority",
				mcp.Description("Task priority: low, medium, high (optional, defaults to medium)"),
			),
		),
		createTaskHandler(cfg, log),
	)

	s.AddTool(
		mcp.NewTool("execute_task",
			mcp.WithDescription("Run a task on an agent. By default the execution is started in the background; progress streams over the mission event feed."),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The task ID to execute"),
			),
			mcp.WithString("agent_id",
				mcp.Required(),
				mcp.Description("The agent ID to run the task on"),
			),
			mcp.WithBoolean("background",
				mcp.Description("Start in the background and return immediately (default true). Set false to wait for the result."),
			),
		),
		executeTaskHandler(cfg, log),
	)

	s.AddTool(
		mcp.NewTool("stop_task",
			mcp.WithDescription("Stop a running task execution"),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The task ID to stop"),
			),
		),
		stopTaskHandler(cfg, log),
	)

	s.AddTool(
		mcp.NewTool("list_running",
			mcp.WithDescription("List task executions that are currently running, with the concurrency limit."),
		),
		listRunningHandler(cfg, log),
	)

	s.AddTool(
		mcp.NewTool("list_agents",
			mcp.WithDescription("List the registered agents and their availability."),
		),
		listAgentsHandler(cfg, log),
	)

	log.Info("registered MCP tools", zap.Int("count", 6))
}

// fetchJSON GETs an API path and renders the body for the MCP client.
func fetchJSON(ctx context.Context, cfg Config, log *logger.Logger, path, what string) (*mcp.CallToolResult, error) {
	url := cfg.APIURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create request: %v", err)), nil
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		log.Error("failed to fetch "+what, zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch %s: %v", what, err)), nil
	}
	defer func() { _ = resp.Body.Close() }()

	var result json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}

	if resp.StatusCode >= 400 {
		return mcp.NewToolResultError(fmt.Sprintf("API error (%d): %s", resp.StatusCode, string(result))), nil
	}

	formatted, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(formatted)), nil
}

// postJSON sends a payload to an API path and renders the response.
func postJSON(ctx context.Context, cfg Config, log *logger.Logger, path, what string, payload interface{}) (*mcp.CallToolResult, error) {
	body, _ := json.Marshal(payload)
	url := cfg.APIURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create request: %v", err)), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		log.Error("failed to "+what, zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", what, err)), nil
	}
	defer func() { _ = resp.Body.Close() }()

	var result json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}

	if resp.StatusCode >= 400 {
		return mcp.NewToolResultError(fmt.Sprintf("API error (%d): %s", resp.StatusCode, string(result))), nil
	}

	formatted, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(formatted)), nil
}

func listTasksHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := "/api/v1/tasks"
		if status := req.GetString("status", ""); status != "" {
			path += "?status=" + status
		}
		return fetchJSON(ctx, cfg, log, path, "tasks")
	}
}

func createTaskHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]interface{}{
			"title": title,
		}
		if desc := req.GetString("description", ""); desc != "" {
			payload["description"] = desc
		}
		if priority := req.GetString("priority", ""); priority != "" {
			payload["priority"] = priority
		}

		return postJSON(ctx, cfg, log, "/api/v1/tasks", "create task", payload)
	}
}

func executeTaskHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := req.RequireString("task_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		agentID, err := req.RequireString("agent_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]interface{}{
			"agent_id":   agentID,
			"background": req.GetBool("background", true),
		}
		path := fmt.Sprintf("/api/v1/tasks/%s/execute", taskID)
		return postJSON(ctx, cfg, log, path, "execute task", payload)
	}
}

func stopTaskHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := req.RequireString("task_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		path := fmt.Sprintf("/api/v1/tasks/%s/stop", taskID)
		return postJSON(ctx, cfg, log, path, "stop task", map[string]interface{}{})
	}
}

func listRunningHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return fetchJSON(ctx, cfg, log, "/api/v1/executions", "running executions")
	}
}

func listAgentsHandler(cfg Config, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return fetchJSON(ctx, cfg, log, "/api/v1/agents", "agents")
	}
}
