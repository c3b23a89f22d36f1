package mcptools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Journal is the note store the tools write to.
type Journal interface {
	AddTodo(text string) (string, error)
	CommitToMemory(text string) (string, error)
}

// Tools exposes the journal to agents as MCP tools.
type Tools struct {
	journal Journal
	logger  *slog.Logger
}

func New(journal Journal, logger *slog.Logger) *Tools {
	return &Tools{journal: journal, logger: logger}
}

// NewServer returns an MCP server with add_todo and commit_to_memory registered.
func NewServer(journal Journal, version string, logger *slog.Logger) *server.MCPServer {
	t := New(journal, logger)

	s := server.NewMCPServer("ephemerear", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("add_todo",
		mcp.WithDescription("Adds a to-do item to the user's todos.md file with the provided text."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description(`The text of the to-do item to add. Use markdown formatting, e.g. "- [ ]" for a checkbox.`),
		),
	), t.AddTodo)

	s.AddTool(mcp.NewTool("commit_to_memory",
		mcp.WithDescription("Commits a piece of text to the user's memory.md markdown file."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text content to commit to memory. Markdown styling is allowed."),
		),
	), t.CommitToMemory)

	return s
}

func (t *Tools) AddTodo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.call("add_todo", req, t.journal.AddTodo)
}

func (t *Tools) CommitToMemory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.call("commit_to_memory", req, t.journal.CommitToMemory)
}

// call reports argument and journal failures as tool errors so the agent
// sees them, rather than as protocol errors.
func (t *Tools) call(name string, req mcp.CallToolRequest, fn func(string) (string, error)) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := fn(text)
	if err != nil {
		t.logger.Error("tool call failed", "tool", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	t.logger.Info("tool call", "tool", name)
	return mcp.NewToolResultText(msg), nil
}
