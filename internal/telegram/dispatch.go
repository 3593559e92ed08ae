package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-relay/internal/relay"
	"github.com/tbourn/go-support-relay/internal/services"
)

// callbackSupport is the callback payload of the welcome-menu button.
const callbackSupport = "btn_support"

// Dispatcher routes Bot API updates to the relay services. One instance
// serves all chats; it holds no per-update state.
type Dispatcher struct {
	Relay          *services.RelayService
	Broadcast      *services.BroadcastService
	Identity       *services.IdentityService
	OperatorChatID int64
	Msgs           *relay.Catalog
	Log            zerolog.Logger
}

// New builds the Bot API client with the dispatcher installed as the
// default update handler. The caller owns the long-polling loop via
// (*bot.Bot).Start.
func New(token string, d *Dispatcher) (*bot.Bot, error) {
	return bot.New(token, bot.WithDefaultHandler(d.Handle))
}

// RegisterCommands publishes the user-visible command menu.
func (d *Dispatcher) RegisterCommands(ctx context.Context, b *bot.Bot) error {
	_, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Open the support menu"},
			{Command: "clear", Description: "Close the current conversation"},
			{Command: "help", Description: "Show the command reference"},
		},
	})
	return err
}

// Handle is the default update handler. A panicking update must never
// take down the polling loop, so handlers run under a recover guard.
func (d *Dispatcher) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error().Interface("panic", r).Int64("update_id", update.ID).Msg("update handler panicked")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, b, update.CallbackQuery)
	case update.EditedMessage != nil:
		m := toMessage(update.EditedMessage)
		m.Edited = true
		if err := d.Relay.PropagateEdit(ctx, m); err != nil {
			d.Log.Error().Err(err).Int("message_id", m.ID).Msg("propagate edit")
		}
	case update.Message != nil:
		d.handleMessage(ctx, b, update.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.From == nil {
		return
	}

	if cmd, args, ok := parseCommand(msg.Text); ok {
		d.handleCommand(ctx, b, msg, cmd, args)
		return
	}

	if msg.Chat.ID == d.OperatorChatID {
		// Only replies carry ticket correlation; free-standing operator
		// chatter stays in the channel.
		if msg.ReplyToMessage == nil {
			return
		}
		if err := d.Relay.RelayReply(ctx, toMessage(msg)); err != nil {
			if errors.Is(err, services.ErrTicketNotFound) {
				d.Log.Debug().Int("reply_to", msg.ReplyToMessage.ID).Msg("reply to untracked message")
				return
			}
			d.Log.Error().Err(err).Int("message_id", msg.ID).Msg("relay reply")
		}
		return
	}

	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	if err := d.Relay.RelayInbound(ctx, toMessage(msg)); err != nil && !errors.Is(err, services.ErrLoopback) {
		d.Log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("relay inbound")
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, b *bot.Bot, msg *models.Message, cmd, args string) {
	switch cmd {
	case "start":
		if msg.Chat.Type == models.ChatTypePrivate {
			d.sendMenu(ctx, b, msg)
		}
	case "clear":
		if msg.Chat.Type == models.ChatTypePrivate {
			_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    msg.Chat.ID,
				Text:      d.Msgs.SessionCleared,
				ParseMode: models.ParseModeHTML,
			})
			d.sendMenu(ctx, b, msg)
		}
	case "help":
		if msg.Chat.ID == d.OperatorChatID {
			_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    msg.Chat.ID,
				Text:      d.Msgs.OperatorHelp,
				ParseMode: models.ParseModeHTML,
			})
		}
	case "broadcast":
		if msg.Chat.ID != d.OperatorChatID {
			return
		}
		sent, total, err := d.Broadcast.Broadcast(ctx, args)
		if errors.Is(err, services.ErrEmptyBroadcast) {
			_, _ = b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: d.Msgs.BroadcastUsage})
			return
		}
		if err != nil {
			d.Log.Error().Err(err).Msg("broadcast")
			return
		}
		d.Log.Info().Int("sent", sent).Int("total", total).Msg("broadcast finished")
	}
}

// sendMenu resolves the sender's identity and presents the branded welcome
// menu with the contact button.
func (d *Dispatcher) sendMenu(ctx context.Context, b *bot.Bot, msg *models.Message) {
	u, err := d.Identity.Resolve(ctx, toSender(msg.From))
	if err != nil {
		d.Log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("resolve identity")
		return
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    msg.Chat.ID,
		Text:      relay.RenderWelcome(d.Msgs, u.FirstName, u.DisplayID),
		ParseMode: models.ParseModeHTML,
		ReplyMarkup: models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: d.Msgs.MenuBtnSupport, CallbackData: callbackSupport},
			}},
		},
	})
	if err != nil {
		d.Log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("send menu")
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery) {
	// Always answer so the client stops its spinner, even for stale data.
	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	if cb.Data != callbackSupport || cb.Message.Message == nil {
		return
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    cb.Message.Message.Chat.ID,
		Text:      d.Msgs.ContactIntro,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		d.Log.Error().Err(err).Int64("chat_id", cb.Message.Message.Chat.ID).Msg("send contact intro")
	}
}

// parseCommand splits a "/cmd args" text. A trailing "@botname" on the
// command token is stripped so group-addressed commands match.
func parseCommand(text string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	rest := text[1:]
	if rest == "" {
		return "", "", false
	}
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		cmd, args = rest[:i], strings.TrimSpace(rest[i+1:])
	} else {
		cmd = rest
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), args, true
}

// toSender maps a Bot API user to the transport-neutral sender.
func toSender(u *models.User) relay.Sender {
	return relay.Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// toMessage maps a Bot API message to the transport-neutral relay message,
// classifying the payload kind and picking the re-sendable file reference.
// Photos arrive as a size ladder; the last entry is the largest rendition.
func toMessage(msg *models.Message) relay.Message {
	m := relay.Message{
		ID:     msg.ID,
		ChatID: msg.Chat.ID,
		Kind:   relay.KindText,
		Text:   msg.Text,
	}
	if msg.From != nil {
		m.Sender = toSender(msg.From)
	}
	if msg.ReplyToMessage != nil {
		m.ReplyToID = msg.ReplyToMessage.ID
	}

	switch {
	case len(msg.Photo) > 0:
		m.Kind = relay.KindPhoto
		m.FileID = msg.Photo[len(msg.Photo)-1].FileID
		m.Caption = msg.Caption
	case msg.Document != nil:
		m.Kind = relay.KindDocument
		m.FileID = msg.Document.FileID
		m.Caption = msg.Caption
	case msg.Video != nil:
		m.Kind = relay.KindVideo
		m.FileID = msg.Video.FileID
		m.Caption = msg.Caption
	case msg.Voice != nil:
		m.Kind = relay.KindVoice
		m.FileID = msg.Voice.FileID
		m.Caption = msg.Caption
	}
	return m
}
