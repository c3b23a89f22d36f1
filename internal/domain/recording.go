package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Recording is a source audio file waiting to be transcribed.
type Recording struct {
	Path        string
	BaseName    string
	LogicalName string
	Size        int64
}

// NewRecording stats path and derives the recording's logical name.
func NewRecording(path string) (*Recording, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("recording %s is a directory", path)
	}

	base := filepath.Base(path)
	return &Recording{
		Path:        path,
		BaseName:    base,
		LogicalName: LogicalName(base),
		Size:        info.Size(),
	}, nil
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// LogicalName returns the part of a file name before its first '-'
// delimiter. A leading YYYY-MM-DD date stamp counts as one unit, so
// "2024-01-01_1200-meeting.wav" yields "2024-01-01_1200". Names without
// a delimiter are returned unchanged.
func LogicalName(base string) string {
	prefix := datePrefix.FindString(base)
	name, _, _ := strings.Cut(base[len(prefix):], "-")
	return prefix + name
}
