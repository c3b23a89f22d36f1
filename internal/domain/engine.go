package domain

import (
	"fmt"
	"strings"
)

// Engine selects the speech-to-text backend.
type Engine string

const (
	EngineOpenAI  Engine = "openai"
	EngineWhisper Engine = "whisper"
)

// ParseEngine maps a config value to an Engine. Empty means openai;
// anything unrecognised is rejected.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineOpenAI:
		return EngineOpenAI, nil
	case EngineWhisper:
		return EngineWhisper, nil
	default:
		return "", fmt.Errorf("unknown stt engine %q (supported: openai, whisper)", s)
	}
}

// ChatProvider selects the chat-completion service used for follow-ups.
type ChatProvider string

const (
	ChatOpenAI    ChatProvider = "openai"
	ChatAnthropic ChatProvider = "anthropic"
	ChatGemini    ChatProvider = "gemini"
)

func ParseChatProvider(s string) (ChatProvider, error) {
	switch ChatProvider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChatOpenAI:
		return ChatOpenAI, nil
	case ChatAnthropic:
		return ChatAnthropic, nil
	case ChatGemini:
		return ChatGemini, nil
	default:
		return "", fmt.Errorf("unknown chat provider %q (supported: openai, anthropic, gemini)", s)
	}
}
