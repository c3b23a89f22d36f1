package application_test

import (
	"strings"
	"testing"

	"ephemerear/internal/application"
)

func TestContainsMarker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		width  int
		want   bool
	}{
		{"empty text", "", "prompt", 15, false},
		{"whitespace only", "   \n\t", "prompt", 15, false},
		{"first word", "Prompt what is the weather", "prompt", 15, true},
		{"substring of word", "reprompting now", "prompt", 15, true},
		{"case folded", "here is a PROMPT", "prompt", 15, true},
		{"no match", "just a normal note", "prompt", 15, false},
		{"width larger than text", "hello prompt", "prompt", 100, true},
		{"zero width", "prompt", "prompt", 0, false},
		{"negative width", "prompt", "prompt", -3, false},
		{"last word in window", "a b c prompt", "prompt", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := application.ContainsMarker(tt.text, tt.marker, tt.width); got != tt.want {
				t.Errorf("ContainsMarker(%q, %q, %d): got %v, want %v", tt.text, tt.marker, tt.width, got, tt.want)
			}
		})
	}
}

func TestContainsMarker_OnlyScansWindow(t *testing.T) {
	filler := strings.Repeat("word ", application.DefaultScanWidth)
	text := filler + "prompt tell me a joke"

	if application.ContainsMarker(text, "prompt", application.DefaultScanWidth) {
		t.Error("marker beyond the scan window must not match")
	}

	if !application.ContainsMarker(text, "prompt", application.DefaultScanWidth+1) {
		t.Error("marker inside a wider window should match")
	}
}

func TestContainsAnyMarker(t *testing.T) {
	if !application.ContainsAnyMarker("straight from the heart", application.FollowUpMarkers, application.DefaultScanWidth) {
		t.Error("expected 'from' to match")
	}
	if application.ContainsAnyMarker("nothing to see", application.FollowUpMarkers, application.DefaultScanWidth) {
		t.Error("unexpected match")
	}
	if application.ContainsAnyMarker("", application.FollowUpMarkers, application.DefaultScanWidth) {
		t.Error("empty text must not match")
	}
}

func TestExtractPrompt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"basic", "Prompt, what is the capital of France.", "what is the capital of France", true},
		{"ends at next prompt", "prompt one. prompt two", "one", true},
		{"mid sentence", "Okay so PROMPT: summarise my day, please.", ": summarise my day please", true},
		{"no prompt keyword", "straight from the heart", "", false},
		{"empty remainder", "this is a prompt.", "", false},
		{"beyond the window", strings.Repeat("word ", application.DefaultScanWidth) + "prompt tell me a joke", "", false},
		{"last word of the window", strings.Repeat("word ", application.DefaultScanWidth-1) + "prompt tell me a joke", "tell me a joke", true},
		{"leading whitespace", "  \n prompt  hello", "hello", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := application.ExtractPrompt(tt.text, application.DefaultScanWidth)
			if ok != tt.wantOK {
				t.Fatalf("ExtractPrompt(%q) ok: got %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractPrompt(%q): got %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
