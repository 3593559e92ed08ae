// Package repo implements the data persistence layer for the relay bridge,
// backed by GORM. This file provides repository functions for the Ticket
// model (the message_map table).
//
// Functions:
//
//   - CreateTicket(ctx, db, operatorMessageID, userID, userName, displayID, question)
//     Inserts a new PENDING ticket keyed by the forwarded message ID.
//
//   - GetTicketByOperatorMessageID(ctx, db, operatorMessageID)
//     Fetches the ticket an operator reply correlates to, or ErrNotFound.
//
//   - MarkTicketSolved(ctx, db, operatorMessageID, answer, responder)
//     Transitions PENDING -> SOLVED and records the answer snapshot.
//
//   - CountTicketsByStatus(ctx, db, status)
//     Aggregate used for startup logging and metrics.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
)

// CreateTicket inserts a new Ticket row in the PENDING state. CreatedAt is
// set to UTC now and drives the retention window.
func CreateTicket(ctx context.Context, db *gorm.DB, operatorMessageID int, userID int64, userName, displayID, question string) (*domain.Ticket, error) {
	t := &domain.Ticket{
		OperatorMessageID: operatorMessageID,
		UserID:            userID,
		UserName:          userName,
		DisplayID:         displayID,
		QuestionText:      question,
		CreatedAt:         time.Now().UTC(),
		Status:            domain.TicketPending,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTicketByOperatorMessageID fetches the ticket whose forwarded copy has
// the given message ID in the operator channel. Returns ErrNotFound when no
// such ticket exists (never forwarded, or already swept).
func GetTicketByOperatorMessageID(ctx context.Context, db *gorm.DB, operatorMessageID int) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Where("operator_message_id = ?", operatorMessageID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkTicketSolved transitions the ticket for operatorMessageID to SOLVED
// and stores the raw answer text plus the responder's display name. Returns
// ErrNotFound when no ticket matches.
func MarkTicketSolved(ctx context.Context, db *gorm.DB, operatorMessageID int, answer, responder string) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("operator_message_id = ?", operatorMessageID).
		Updates(map[string]any{
			"status":         domain.TicketSolved,
			"answer_text":    answer,
			"responder_name": responder,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTicketsByStatus returns the number of tickets currently in the given
// status. Used for startup logging and gauge refreshes.
func CountTicketsByStatus(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}
