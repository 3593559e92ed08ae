// Package services – BroadcastService
//
// This file implements the broadcast dispatcher: best-effort fan-out of an
// operator announcement to every known user, with a progress note in the
// operator channel that is edited into the final tally.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
	"github.com/tbourn/go-support-relay/internal/metrics"
	"github.com/tbourn/go-support-relay/internal/relay"
)

// BroadcastUserRepo is the slice of the user repository the dispatcher
// needs: the full recipient list.
type BroadcastUserRepo interface {
	ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error)
}

// BroadcastService fans an operator message out to every known user. Fan-
// out is sequential and unthrottled; per-recipient failures (blocked bot,
// deleted account) are counted and skipped, never aborting the run.
type BroadcastService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users lists the recipients.
	Users BroadcastUserRepo
	// Transport is the chat-transport boundary.
	Transport Transport
	// OperatorChatID receives the progress/tally notes.
	OperatorChatID int64
	// Msgs is the localized catalog.
	Msgs *relay.Catalog
	// Log is the component logger.
	Log zerolog.Logger
}

// Broadcast renders and delivers text to every known user, returning the
// number of successful deliveries and the total recipient count. An empty
// body returns ErrEmptyBroadcast without loading recipients.
func (s *BroadcastService) Broadcast(ctx context.Context, text string) (sent, total int, err error) {
	if text == "" {
		return 0, 0, ErrEmptyBroadcast
	}

	users, err := s.Users.ListUsers(ctx, s.DB)
	if err != nil {
		return 0, 0, err
	}
	total = len(users)

	statusID, err := s.Transport.SendText(ctx, s.OperatorChatID, fmt.Sprintf(s.Msgs.BroadcastProgress, total))
	if err != nil {
		return 0, total, err
	}

	rendered := relay.RenderBroadcast(s.Msgs, text)
	for _, u := range users {
		if _, err := s.Transport.SendText(ctx, u.UserID, rendered); err != nil {
			metrics.BroadcastFailed.Inc()
			s.Log.Debug().Err(err).Int64("user_id", u.UserID).Msg("broadcast recipient skipped")
			continue
		}
		metrics.BroadcastSent.Inc()
		sent++
	}

	if err := s.Transport.EditText(ctx, s.OperatorChatID, statusID, fmt.Sprintf(s.Msgs.BroadcastDone, sent)); err != nil {
		s.Log.Warn().Err(err).Msg("broadcast tally update failed")
	}
	return sent, total, nil
}
