package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrFollowUp wraps failures of the chat follow-up after a transcript was written.
var ErrFollowUp = errors.New("follow-up failed")

// FollowUp dispatches a chat message when a transcript opens with a prompt marker.
type FollowUp struct {
	chat      ChatClient
	notifier  Notifier
	markers   []string
	scanWidth int
	logger    *slog.Logger
}

func NewFollowUp(chat ChatClient, notifier Notifier, logger *slog.Logger) *FollowUp {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &FollowUp{
		chat:      chat,
		notifier:  notifier,
		markers:   FollowUpMarkers,
		scanWidth: DefaultScanWidth,
		logger:    logger,
	}
}

// Trigger returns the dispatched message and the chat reply. An empty
// message means nothing was dispatched.
func (f *FollowUp) Trigger(ctx context.Context, transcript string) (message, reply string, err error) {
	if !ContainsAnyMarker(transcript, f.markers, f.scanWidth) {
		return "", "", nil
	}

	f.logger.Info("transcript contains prompt marker")

	message, ok := ExtractPrompt(transcript, f.scanWidth)
	if !ok {
		f.logger.Info("marker matched without a prompt to extract, skipping follow-up")
		return "", "", nil
	}

	reply, err = f.chat.Chat(ctx, message)
	if err != nil {
		return message, "", fmt.Errorf("%w: chat: %w", ErrFollowUp, err)
	}

	f.logger.Info("follow-up dispatched", "message", message, "reply_chars", len(reply))

	if err := f.notifier.Notify(ctx, reply); err != nil {
		f.logger.Error("notifying follow-up reply", "error", err)
	}

	return message, reply, nil
}
