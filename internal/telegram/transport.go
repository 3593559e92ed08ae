// Package telegram binds the relay services to the Telegram Bot API. The
// package has two halves: Transport, which implements the chat-transport
// boundary the services depend on, and Dispatcher, which routes incoming
// updates (messages, edits, commands, button callbacks) to the right
// service operation. No other package imports the Bot API client.
package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tbourn/go-support-relay/internal/relay"
)

// Transport implements services.Transport on top of the Bot API client.
// All sends use HTML parse mode; media is re-sent by file reference, so
// the original payload is preserved without downloading it.
type Transport struct {
	b *bot.Bot
}

// NewTransport wraps a connected Bot API client.
func NewTransport(b *bot.Bot) *Transport {
	return &Transport{b: b}
}

// SendText delivers an HTML-formatted text message and returns the
// assigned message ID.
func (t *Transport) SendText(ctx context.Context, chatID int64, html string) (int, error) {
	m, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      html,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// SendMedia re-sends a media payload by its file reference with an HTML
// caption, dispatching to the kind-specific Bot API method.
func (t *Transport) SendMedia(ctx context.Context, chatID int64, kind relay.Kind, fileID, captionHTML string) (int, error) {
	file := &models.InputFileString{Data: fileID}

	var (
		m   *models.Message
		err error
	)
	switch kind {
	case relay.KindPhoto:
		m, err = t.b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID: chatID, Photo: file, Caption: captionHTML, ParseMode: models.ParseModeHTML,
		})
	case relay.KindDocument:
		m, err = t.b.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID: chatID, Document: file, Caption: captionHTML, ParseMode: models.ParseModeHTML,
		})
	case relay.KindVideo:
		m, err = t.b.SendVideo(ctx, &bot.SendVideoParams{
			ChatID: chatID, Video: file, Caption: captionHTML, ParseMode: models.ParseModeHTML,
		})
	case relay.KindVoice:
		m, err = t.b.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID: chatID, Voice: file, Caption: captionHTML, ParseMode: models.ParseModeHTML,
		})
	default:
		return 0, fmt.Errorf("telegram: unsupported media kind %v", kind)
	}
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// EditText replaces the text of a previously sent text message.
func (t *Transport) EditText(ctx context.Context, chatID int64, messageID int, html string) error {
	_, err := t.b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      html,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// EditCaption replaces the caption of a previously sent media message.
func (t *Transport) EditCaption(ctx context.Context, chatID int64, messageID int, captionHTML string) error {
	_, err := t.b.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
		ChatID:    chatID,
		MessageID: messageID,
		Caption:   captionHTML,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// React attaches a single emoji reaction to a message.
func (t *Transport) React(ctx context.Context, chatID int64, messageID int, emoji string) error {
	_, err := t.b.SetMessageReaction(ctx, &bot.SetMessageReactionParams{
		ChatID:    chatID,
		MessageID: messageID,
		Reaction: []models.ReactionType{{
			Type:              models.ReactionTypeTypeEmoji,
			ReactionTypeEmoji: &models.ReactionTypeEmoji{Type: models.ReactionTypeTypeEmoji, Emoji: emoji},
		}},
	})
	return err
}
