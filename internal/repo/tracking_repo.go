// Package repo implements the data persistence layer for the relay bridge,
// backed by GORM. This file provides repository functions for the
// ReplyTracking model, which maps an operator's reply message to the copy
// delivered into the user's chat so later edits can be propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-relay/internal/domain"
)

// UpsertReplyTracking records (or overwrites) where the relayed answer for
// an operator reply landed. The operator reply message ID is the primary
// key; answering the same ticket message twice simply repoints the row at
// the most recent delivery.
func UpsertReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int, userChatID int64, relayedMessageID int, responder, userName string) error {
	row := &domain.ReplyTracking{
		OperatorReplyMessageID: operatorReplyMessageID,
		UserChatID:             userChatID,
		RelayedMessageID:       relayedMessageID,
		ResponderName:          responder,
		UserName:               userName,
		CreatedAt:              time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "operator_reply_message_id"}},
			UpdateAll: true,
		}).
		Create(row).Error
}

// GetReplyTracking fetches the tracking row for an edited operator message,
// or ErrNotFound when the edit has no relayed counterpart (the reply was
// never tracked, or tracking retention removed it).
func GetReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int) (*domain.ReplyTracking, error) {
	var r domain.ReplyTracking
	err := db.WithContext(ctx).
		Where("operator_reply_message_id = ?", operatorReplyMessageID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}
