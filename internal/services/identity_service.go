// Package services – IdentityService
//
// This file implements the identity resolver: it maps a transport-level
// user identity to a stable, human-readable display code, allocating new
// codes sequentially on first contact and refreshing mutable profile
// fields on every later contact.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/domain"
	"github.com/tbourn/go-support-relay/internal/relay"
)

// UserRepo defines the repository contract required by IdentityService.
type UserRepo interface {
	// GetUser fetches a user by external identity.
	GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error)

	// CreateUser inserts a new user with an allocated display code.
	CreateUser(ctx context.Context, db *gorm.DB, userID int64, firstName, username, displayID string) (*domain.User, error)

	// UpdateUserProfile refreshes the mutable profile fields.
	UpdateUserProfile(ctx context.Context, db *gorm.DB, userID int64, firstName, username string) error

	// CountUsers returns the total user count, which seeds the next ordinal.
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
}

// IdentityService resolves senders to user records with stable display
// codes. Code allocation is a count-then-insert sequence; the service
// serializes it behind a mutex and runs it in a transaction, and the
// unique index on display_id backstops both. Codes are unique and
// monotone; numbering is not guaranteed gap-free across failed attempts.
type IdentityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// CodePrefix and CodeWidth shape the display code ("DI", 3 -> "DI-001").
	CodePrefix string
	CodeWidth  int

	mu sync.Mutex
}

// NewIdentityService constructs an IdentityService with the default code
// format.
func NewIdentityService(db *gorm.DB, r UserRepo) *IdentityService {
	return &IdentityService{
		DB:         db,
		Repo:       r,
		CodePrefix: "DI",
		CodeWidth:  3,
	}
}

// Resolve returns the user record for sender, creating it on first contact.
// Existing users get their name and username refreshed; the display code is
// never changed once assigned.
func (s *IdentityService) Resolve(ctx context.Context, sender relay.Sender) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, err := s.Repo.GetUser(ctx, s.DB, sender.ID); err == nil {
		if u.FirstName != sender.FirstName || u.Username != sender.Username {
			if err := s.Repo.UpdateUserProfile(ctx, s.DB, sender.ID, sender.FirstName, sender.Username); err != nil {
				return nil, err
			}
			u.FirstName, u.Username = sender.FirstName, sender.Username
		}
		return u, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var created *domain.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		count, err := s.Repo.CountUsers(ctx, tx)
		if err != nil {
			return err
		}
		code := s.formatCode(count + 1)
		created, err = s.Repo.CreateUser(ctx, tx, sender.ID, sender.FirstName, sender.Username, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// formatCode renders an ordinal as a zero-padded display code.
func (s *IdentityService) formatCode(n int64) string {
	return fmt.Sprintf("%s-%0*d", s.CodePrefix, s.CodeWidth, n)
}
