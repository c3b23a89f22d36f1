package application

import (
	"strings"
	"unicode"
)

// DefaultScanWidth is how many leading words are inspected for a marker.
const DefaultScanWidth = 15

// FollowUpMarkers trigger a chat follow-up when found near the start of a transcript.
var FollowUpMarkers = []string{"prompt", "from", "prom"}

const promptKeyword = "prompt"

// ContainsMarker reports whether marker occurs inside any of the first
// scanWidth whitespace-separated words of text, compared case-insensitively.
// An empty text never matches.
func ContainsMarker(text, marker string, scanWidth int) bool {
	if text == "" {
		return false
	}

	words := strings.Fields(strings.ToLower(text))
	scanWidth = min(scanWidth, len(words))

	for _, word := range words[:max(scanWidth, 0)] {
		if strings.Contains(word, marker) {
			return true
		}
	}
	return false
}

// ContainsAnyMarker reports whether any of markers is found by ContainsMarker.
func ContainsAnyMarker(text string, markers []string, scanWidth int) bool {
	for _, marker := range markers {
		if ContainsMarker(text, marker, scanWidth) {
			return true
		}
	}
	return false
}

// ExtractPrompt returns the text following a case-insensitive "prompt" found
// within the first scanWidth words, up to the next "prompt" if there is one.
// Periods and commas are removed and surrounding whitespace is trimmed.
func ExtractPrompt(text string, scanWidth int) (string, bool) {
	idx := promptOffset(text, scanWidth)
	if idx < 0 {
		return "", false
	}

	message := text[idx+len(promptKeyword):]
	if next := indexFold(message, promptKeyword); next >= 0 {
		message = message[:next]
	}
	message = strings.NewReplacer(".", "", ",", "").Replace(message)
	message = strings.TrimSpace(message)

	return message, message != ""
}

// promptOffset is the byte offset of "prompt" in the first of the leading
// scanWidth words that contains it, or -1.
func promptOffset(text string, scanWidth int) int {
	offset := 0
	rest := text
	for n := 0; n < scanWidth; n++ {
		word := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if word == "" {
			return -1
		}
		offset += len(rest) - len(word)

		end := strings.IndexFunc(word, unicode.IsSpace)
		if end < 0 {
			end = len(word)
		}
		if i := indexFold(word[:end], promptKeyword); i >= 0 {
			return offset + i
		}

		offset += end
		rest = word[end:]
	}
	return -1
}

// indexFold is strings.Index with ASCII case folding of an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
