// Package services – RelayService
//
// This file implements the relay engine: forwarding inbound user messages
// into the operator channel, correlating operator replies back to the
// originating user, and propagating operator edits to already-delivered
// replies. Each direction is a correlate-and-forward operation with no
// intermediate state machine; a ticket only ever moves PENDING -> SOLVED.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
	"github.com/tbourn/go-support-relay/internal/metrics"
	"github.com/tbourn/go-support-relay/internal/relay"
)

// AckEmoji is the lightweight positive acknowledgment attached to relayed
// messages. Reactions are best-effort; see reactBestEffort.
const AckEmoji = "❤"

// clearKeyword ends a user session client-side. The server holds no
// session state, so the keyword only triggers an acknowledgment.
const clearKeyword = "CLEAR"

// TicketRepo defines the ticket persistence contract required by
// RelayService.
type TicketRepo interface {
	CreateTicket(ctx context.Context, db *gorm.DB, operatorMessageID int, userID int64, userName, displayID, question string) (*domain.Ticket, error)
	GetTicketByOperatorMessageID(ctx context.Context, db *gorm.DB, operatorMessageID int) (*domain.Ticket, error)
	MarkTicketSolved(ctx context.Context, db *gorm.DB, operatorMessageID int, answer, responder string) error
}

// TrackingRepo defines the reply-tracking persistence contract required by
// RelayService.
type TrackingRepo interface {
	UpsertReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int, userChatID int64, relayedMessageID int, responder, userName string) error
	GetReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int) (*domain.ReplyTracking, error)
}

// RelayService is the relay engine. It owns no state beyond its
// dependencies; every operation is driven by the incoming message.
type RelayService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tickets and Tracking are the persistence contracts.
	Tickets  TicketRepo
	Tracking TrackingRepo
	// Identity resolves senders to display codes.
	Identity *IdentityService
	// Transport is the chat-transport boundary.
	Transport Transport
	// OperatorChatID is the single shared operator channel.
	OperatorChatID int64
	// Msgs is the localized catalog used for all renderings.
	Msgs *relay.Catalog
	// Log is the component logger.
	Log zerolog.Logger
}

// RelayInbound forwards a user message into the operator channel and
// records the ticket. Operator-channel senders are rejected with
// ErrLoopback; the literal CLEAR text only acknowledges. Forward failures
// are logged and swallowed: the user receives no failure notice and no
// ticket is created.
func (s *RelayService) RelayInbound(ctx context.Context, m relay.Message) error {
	if m.ChatID == s.OperatorChatID {
		return ErrLoopback
	}

	if m.Kind == relay.KindText && strings.EqualFold(strings.TrimSpace(m.Text), clearKeyword) {
		_, err := s.Transport.SendText(ctx, m.ChatID, s.Msgs.SessionCleared)
		return err
	}

	u, err := s.Identity.Resolve(ctx, m.Sender)
	if err != nil {
		return err
	}

	rendered := relay.RenderInbound(s.Msgs, m)
	operatorMsgID, err := send(ctx, s.Transport, s.OperatorChatID, m.Kind, m.FileID, rendered)
	if err != nil {
		metrics.InboundFailed.Inc()
		s.Log.Error().Err(err).
			Int64("user_id", m.Sender.ID).
			Str("kind", m.Kind.String()).
			Msg("relay inbound failed")
		return nil
	}

	if _, err := s.Tickets.CreateTicket(ctx, s.DB, operatorMsgID, m.Sender.ID, m.Sender.FullName(), u.DisplayID, m.Content()); err != nil {
		return err
	}
	metrics.InboundRelayed.WithLabelValues(m.Kind.String()).Inc()

	s.reactBestEffort(ctx, m.ChatID, m.ID)
	return nil
}

// RelayReply correlates an operator reply to its ticket and delivers the
// answer to the user. A correlation miss on non-command text produces a
// single operator-visible context-lost notice and no store mutation; a
// miss on a slash-command does nothing. Delivery failures are reported
// back into the operator channel.
func (s *RelayService) RelayReply(ctx context.Context, m relay.Message) error {
	t, err := s.Tickets.GetTicketByOperatorMessageID(ctx, s.DB, m.ReplyToID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if m.Kind == relay.KindText && strings.HasPrefix(m.Text, "/") {
			return nil
		}
		metrics.ContextLost.Inc()
		if _, err := s.Transport.SendText(ctx, s.OperatorChatID, s.Msgs.ContextLost); err != nil {
			return err
		}
		return ErrTicketNotFound
	}

	responder := m.Sender.FullName()
	if responder == "" {
		responder = "Support Agent"
	}

	rendered := relay.RenderReply(s.Msgs, t.UserName, relay.ReplyContent(s.Msgs, m))
	deliveredID, err := send(ctx, s.Transport, t.UserID, m.Kind, m.FileID, rendered)
	if err != nil {
		metrics.RepliesFailed.Inc()
		s.Log.Error().Err(err).
			Int("operator_message_id", m.ReplyToID).
			Int64("user_id", t.UserID).
			Msg("relay reply failed")
		_, _ = s.Transport.SendText(ctx, s.OperatorChatID, fmt.Sprintf(s.Msgs.DeliverFailed, err))
		return nil
	}

	if err := s.Tickets.MarkTicketSolved(ctx, s.DB, m.ReplyToID, m.Content(), responder); err != nil {
		return err
	}
	if err := s.Tracking.UpsertReplyTracking(ctx, s.DB, m.ID, t.UserID, deliveredID, responder, t.UserName); err != nil {
		return err
	}
	metrics.RepliesRelayed.Inc()

	if err := s.Transport.React(ctx, s.OperatorChatID, m.ID, AckEmoji); err != nil {
		// Some channel configurations forbid reactions; fall back to a
		// plain confirmation so the operator still sees the ack.
		_, _ = s.Transport.SendText(ctx, s.OperatorChatID, s.Msgs.SentFallback)
	}
	return nil
}

// PropagateEdit re-renders an edited operator reply and edits the
// previously delivered user-facing message in place. A missing tracking
// row is a silent no-op; transport failures are logged and swallowed.
func (s *RelayService) PropagateEdit(ctx context.Context, m relay.Message) error {
	if m.ChatID != s.OperatorChatID {
		return nil
	}

	tr, err := s.Tracking.GetReplyTracking(ctx, s.DB, m.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	rendered := relay.RenderReply(s.Msgs, tr.UserName, relay.ReplyContent(s.Msgs, m))
	if m.Kind == relay.KindText {
		err = s.Transport.EditText(ctx, tr.UserChatID, tr.RelayedMessageID, rendered)
	} else {
		err = s.Transport.EditCaption(ctx, tr.UserChatID, tr.RelayedMessageID, rendered)
	}
	if err != nil {
		s.Log.Error().Err(err).
			Int("operator_reply_message_id", m.ID).
			Int("relayed_message_id", tr.RelayedMessageID).
			Msg("edit propagation failed")
		return nil
	}
	metrics.EditsPropagated.Inc()
	return nil
}

// reactBestEffort attaches the acknowledgment reaction and discards any
// error. This is the documented attempt-and-discard policy, not an
// oversight: reactions are cosmetic and must never fail a relay.
func (s *RelayService) reactBestEffort(ctx context.Context, chatID int64, messageID int) {
	if err := s.Transport.React(ctx, chatID, messageID, AckEmoji); err != nil {
		s.Log.Debug().Err(err).Int("message_id", messageID).Msg("ack reaction failed")
	}
}
