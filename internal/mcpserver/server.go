// Package mcpserver exposes the task tools over the Model Context Protocol
// on stdio, for agent-mode operation without the HTTP chat surface.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/tools"
)

const (
	serverName    = "taskdeck-mcp-server"
	serverVersion = "1.0.0"
)

// Server wraps an MCP stdio server around the shared tool dispatcher. Both
// this surface and the chat surface run the exact same dispatch code, so
// agent-mode and chat-mode behave identically on the same inputs.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *tools.Dispatcher
	log        zerolog.Logger
}

func New(dispatcher *tools.Dispatcher, log zerolog.Logger) *Server {
	s := &Server{
		mcp:        server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
		dispatcher: dispatcher,
		log:        log,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks reading MCP frames from stdin until EOF or error.
func (s *Server) ServeStdio() error {
	s.log.Info().Str("server", serverName).Msg("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	addTask := mcp.NewTool(tools.ToolAddTask,
		mcp.WithDescription("Add a new task to the user's todo list"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user who owns the task")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the task")),
	)

	listTasks := mcp.NewTool(tools.ToolListTasks,
		mcp.WithDescription("List the user's tasks, optionally filtered by status"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user whose tasks to list")),
		mcp.WithString("filter", mcp.Description("Filter: all, pending, or completed"),
			mcp.Enum("all", "pending", "completed")),
	)

	completeTask := mcp.NewTool(tools.ToolCompleteTask,
		mcp.WithDescription("Mark one of the user's tasks as completed"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user who owns the task")),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("ID of the task to complete")),
	)

	deleteTask := mcp.NewTool(tools.ToolDeleteTask,
		mcp.WithDescription("Delete one of the user's tasks"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user who owns the task")),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("ID of the task to delete")),
	)

	updateTask := mcp.NewTool(tools.ToolUpdateTask,
		mcp.WithDescription("Change the title of one of the user's tasks"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user who owns the task")),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("ID of the task to update")),
		mcp.WithString("new_title", mcp.Required(), mcp.Description("New title for the task")),
	)

	for _, t := range []mcp.Tool{addTask, listTasks, completeTask, deleteTask, updateTask} {
		s.mcp.AddTool(t, s.handleTool)
	}
}

// handleTool routes every registered tool through the shared dispatcher.
// Tool failures are reported inside the envelope as text, never as
// protocol-level errors.
func (s *Server) handleTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	userID, _ := args["user_id"].(string)
	delete(args, "user_id")

	name := req.Params.Name
	s.log.Debug().Str("tool", name).Str("user_id", userID).Msg("mcp tool invoked")

	start := time.Now()
	env := s.dispatcher.Dispatch(ctx, userID, name, args)
	s.log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("mcp tool finished")

	return mcp.NewToolResultText(env.JSON()), nil
}
