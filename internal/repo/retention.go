// Package repo implements the data persistence layer for the relay bridge,
// backed by GORM. This file provides the retention primitives used by the
// background sweeper: age-based deletes plus physical storage reclamation.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
)

// DeleteTicketsBefore removes every ticket created strictly before cutoff
// and reports how many rows were deleted. Users are never touched here.
func DeleteTicketsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.Ticket{})
	return res.RowsAffected, res.Error
}

// DeleteTrackingBefore removes reply-tracking rows created strictly before
// cutoff. Only invoked when tracking retention is explicitly configured;
// the default keeps these rows indefinitely.
func DeleteTrackingBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.ReplyTracking{})
	return res.RowsAffected, res.Error
}

// Vacuum physically reclaims the space freed by prior deletes. SQLite does
// not return pages to the filesystem on DELETE, so the sweeper runs this
// after any cycle that removed rows.
func Vacuum(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("VACUUM").Error
}
