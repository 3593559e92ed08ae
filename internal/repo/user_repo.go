// Package repo implements the data persistence layer for the relay bridge,
// backed by GORM. This file provides repository functions for the User model
// (the user directory and display-code allocation).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by its external identity. Returns ErrNotFound when
// the user has never contacted the relay.
func GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row with an already-allocated display code.
// JoinedAt is set to UTC now. The unique index on display_id rejects any
// duplicate allocation at the store level.
func CreateUser(ctx context.Context, db *gorm.DB, userID int64, firstName, username, displayID string) (*domain.User, error) {
	u := &domain.User{
		UserID:    userID,
		FirstName: firstName,
		Username:  username,
		DisplayID: displayID,
		JoinedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUserProfile refreshes the mutable profile fields of an existing
// user. The display code is deliberately not part of the update set; it is
// immutable once assigned.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, userID int64, firstName, username string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"first_name": firstName, "username": username})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUsers returns the total number of known users. The identity resolver
// derives the next display-code ordinal from this count.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsers returns every known user, ordered by join time ascending. The
// broadcast dispatcher fans out over this slice; broadcast audiences are
// small enough that pagination is not warranted here.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("joined_at asc").Find(&out).Error
	return out, err
}
