package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const previewLen = 100

// Journal appends to-do items and memories to markdown files.
type Journal struct {
	todoFile   string
	memoryFile string
	mu         sync.Mutex
}

func NewJournal(todoFile, memoryFile string) *Journal {
	return &Journal{todoFile: todoFile, memoryFile: memoryFile}
}

// AddTodo appends text as one line of the to-do list.
func (j *Journal) AddTodo(text string) (string, error) {
	if err := j.appendLine(j.todoFile, "# To-Do List", text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added the following to-do item to your list: %s ...", preview(text)), nil
}

// CommitToMemory appends text as one line of the memory file.
func (j *Journal) CommitToMemory(text string) (string, error) {
	if err := j.appendLine(j.memoryFile, "# Memories", text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added the following memory to your list: %s", preview(text)), nil
}

func (j *Journal) appendLine(path, header, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty text")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating notes dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var b strings.Builder
	if info.Size() == 0 {
		b.WriteString(header + "\n\n")
	}
	b.WriteString(text + "\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// preview cuts text to its first 100 characters without splitting a rune.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen])
}
