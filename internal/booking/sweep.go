package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweeper moves bookings whose end time has passed to completed. It is run
// by an external periodic trigger, one pass at a time.
type Sweeper struct {
	repo    Repository
	service Service
	logger  *zap.Logger
}

func NewSweeper(repo Repository, service Service, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{repo: repo, service: service, logger: logger}
}

// Expired lists pending or confirmed bookings that ended before now.
func (s *Sweeper) Expired(ctx context.Context, now time.Time) ([]*Booking, error) {
	return s.repo.ListExpired(ctx, now)
}

// Sweep completes every expired booking and returns how many were
// transitioned. A booking that fails is logged and skipped; the failures
// are joined into the returned error. Running it again with nothing newly
// expired is a no-op.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.Expired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired bookings failed: %w", err)
	}

	var count int
	var errs []error
	for _, b := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.service.Complete(ctx, b.ID); err != nil {
			// Another actor may have cancelled it since the listing.
			if errors.Is(err, ErrInvalidState) {
				continue
			}
			s.logger.Error("failed to complete booking", zap.String("booking_id", b.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		count++
	}

	s.logger.Info("expiration sweep finished",
		zap.Time("now", now),
		zap.Int("expired", len(expired)),
		zap.Int("completed", count),
		zap.Int("failed", len(errs)),
	)
	return count, errors.Join(errs...)
}

// ExpiringSoon lists non-terminal bookings ending within the next hours,
// for reminder delivery.
func (s *Sweeper) ExpiringSoon(ctx context.Context, now time.Time, hours int) ([]*Booking, error) {
	if hours <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.ListEndingBetween(ctx, now, now.Add(time.Duration(hours)*time.Hour))
}
