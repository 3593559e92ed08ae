package services

import (
	"context"

	"github.com/tbourn/go-support-relay/internal/relay"
)

// Transport is the chat-transport boundary the services depend on. The
// Telegram adapter implements it for production; tests use fakes.
//
// Every send operation returns the message ID the transport assigned on
// success; edits address a previously assigned ID. Implementations are
// expected to be safe for concurrent use.
type Transport interface {
	// SendText delivers an HTML-formatted text message.
	SendText(ctx context.Context, chatID int64, html string) (int, error)

	// SendMedia re-sends a media payload by its transport file reference
	// with an HTML caption. kind selects the concrete send primitive
	// (photo, document, video, voice).
	SendMedia(ctx context.Context, chatID int64, kind relay.Kind, fileID, captionHTML string) (int, error)

	// EditText replaces the text of a previously sent text message.
	EditText(ctx context.Context, chatID int64, messageID int, html string) error

	// EditCaption replaces the caption of a previously sent media message.
	EditCaption(ctx context.Context, chatID int64, messageID int, captionHTML string) error

	// React attaches an emoji reaction to a message. Callers treat failure
	// as non-fatal; implementations should not retry.
	React(ctx context.Context, chatID int64, messageID int, emoji string) error
}

// send dispatches on the payload kind, picking the text or media primitive.
func send(ctx context.Context, t Transport, chatID int64, kind relay.Kind, fileID, rendered string) (int, error) {
	if kind == relay.KindText {
		return t.SendText(ctx, chatID, rendered)
	}
	return t.SendMedia(ctx, chatID, kind, fileID, rendered)
}
