package mcptools_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"ephemerear/internal/infra/mcptools"
	"ephemerear/internal/infra/notes"
)

type failingJournal struct{}

func (failingJournal) AddTodo(string) (string, error) {
	return "", errors.New("disk full")
}

func (failingJournal) CommitToMemory(string) (string, error) {
	return "", errors.New("disk full")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("content: got %d items, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type: got %T", result.Content[0])
	}
	return text.Text
}

func TestTools_AddTodo(t *testing.T) {
	dir := t.TempDir()
	todo := filepath.Join(dir, "todos.md")
	tools := mcptools.New(notes.NewJournal(todo, filepath.Join(dir, "memory.md")), discardLogger())

	result, err := tools.AddTodo(context.Background(), request(map[string]any{"text": "- [ ] water plants"}))
	if err != nil {
		t.Fatalf("AddTodo error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "water plants") {
		t.Errorf("confirmation: got %q", resultText(t, result))
	}

	data, _ := os.ReadFile(todo)
	if !strings.HasSuffix(string(data), "- [ ] water plants\n") {
		t.Errorf("todos file: got %q", data)
	}
}

func TestTools_CommitToMemory(t *testing.T) {
	dir := t.TempDir()
	memory := filepath.Join(dir, "memory.md")
	tools := mcptools.New(notes.NewJournal(filepath.Join(dir, "todos.md"), memory), discardLogger())

	result, err := tools.CommitToMemory(context.Background(), request(map[string]any{"text": "The wifi password is on the fridge"}))
	if err != nil {
		t.Fatalf("CommitToMemory error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	data, _ := os.ReadFile(memory)
	if string(data) != "# Memories\n\nThe wifi password is on the fridge\n" {
		t.Errorf("memory file: got %q", data)
	}
}

func TestTools_MissingTextIsToolError(t *testing.T) {
	tools := mcptools.New(failingJournal{}, discardLogger())

	result, err := tools.AddTodo(context.Background(), request(map[string]any{}))
	if err != nil {
		t.Fatalf("AddTodo error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing text")
	}
}

func TestTools_JournalFailureIsToolError(t *testing.T) {
	tools := mcptools.New(failingJournal{}, discardLogger())

	result, err := tools.CommitToMemory(context.Background(), request(map[string]any{"text": "x"}))
	if err != nil {
		t.Fatalf("CommitToMemory error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "disk full") {
		t.Errorf("result: got %+v", result)
	}
}

func TestNewServer(t *testing.T) {
	if s := mcptools.NewServer(failingJournal{}, "test", discardLogger()); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
