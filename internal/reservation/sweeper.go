package reservation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/store"
)

// Sweeper periodically expires overdue reserved holds. It shares the
// store's single expiry path with the lazy readers, so it can never race
// the foreground into a double release.
type Sweeper struct {
	store    store.Store
	interval time.Duration
	logger   zerolog.Logger
	// onExpired is invoked for each reservation the sweep expired, e.g.
	// to dispatch a push notification.
	onExpired func(model.BedReservation)
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(s store.Store, interval time.Duration, logger zerolog.Logger, onExpired func(model.BedReservation)) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: s, interval: interval, logger: logger, onExpired: onExpired}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("reservation expiry sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reservation expiry sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires all currently due reservations and returns how many
// were expired by this pass.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	expired, err := s.store.ExpireDueReservations(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
	}
	for _, res := range expired {
		s.logger.Info().
			Str("reservation_id", res.ID).
			Int64("hospital_id", res.HospitalID).
			Str("bed_class", string(res.BedClass)).
			Msg("reservation expired, bed released")
		if s.onExpired != nil {
			s.onExpired(res)
		}
	}
	return len(expired)
}
