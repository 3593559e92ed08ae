// Package sweeper runs the retention loop: on a fixed wall-clock interval
// it deletes expired ticket rows and reclaims the freed storage. Users are
// never touched; reply-tracking rows are only bounded when a tracking
// retention window is explicitly configured.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/metrics"
	"github.com/tbourn/go-support-relay/internal/repo"
)

// Sweeper owns the retention loop. Construct with New and start Run in its
// own goroutine; cancel the context to stop.
type Sweeper struct {
	// DB is the shared store handle.
	DB *gorm.DB
	// Interval is the wall-clock period between cycles.
	Interval time.Duration
	// MaxAge is the ticket retention window.
	MaxAge time.Duration
	// TrackingMaxAge bounds reply_tracking when positive; zero keeps the
	// table forever so old edits stay propagatable.
	TrackingMaxAge time.Duration
	// Log is the component logger.
	Log zerolog.Logger

	// now is a test seam for the clock.
	now func() time.Time
}

// New constructs a Sweeper with the given windows.
func New(db *gorm.DB, interval, maxAge, trackingMaxAge time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		DB:             db,
		Interval:       interval,
		MaxAge:         maxAge,
		TrackingMaxAge: trackingMaxAge,
		Log:            log,
		now:            time.Now,
	}
}

// Run loops until ctx is canceled. A failed cycle is logged and the loop
// continues; nothing short of cancellation stops the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				metrics.SweepErrors.Inc()
				s.Log.Error().Err(err).Msg("sweep cycle failed")
			}
		}
	}
}

// Sweep performs one retention cycle and reports how many ticket rows were
// removed. VACUUM only runs when something was deleted; on an idle store
// the cycle is two cheap queries.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()

	deleted, err := repo.DeleteTicketsBefore(ctx, s.DB, now.Add(-s.MaxAge))
	if err != nil {
		return 0, err
	}

	var trackingDeleted int64
	if s.TrackingMaxAge > 0 {
		trackingDeleted, err = repo.DeleteTrackingBefore(ctx, s.DB, now.Add(-s.TrackingMaxAge))
		if err != nil {
			return deleted, err
		}
	}

	if deleted > 0 || trackingDeleted > 0 {
		if err := repo.Vacuum(ctx, s.DB); err != nil {
			return deleted, err
		}
		metrics.SweptTickets.Add(float64(deleted))
		s.Log.Info().
			Int64("tickets_deleted", deleted).
			Int64("tracking_deleted", trackingDeleted).
			Msg("retention sweep reclaimed storage")
	}
	return deleted, nil
}
