package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shift-exchange-backend/internal/common/clock"
	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/repository"
	"shift-exchange-backend/internal/platform/redis"
)

const sweepLockKey = "shift-exchange:sweep"

// Locker hands out a short lease so that one replica sweeps per tick.
// *redis.Client satisfies it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// ExpirationService periodically moves active offers whose have-slot has
// started to expired.
type ExpirationService struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	repo       repository.OfferRepository
	clock      clock.Clock
	interval   time.Duration
	locker     Locker
	lockTTL    time.Duration
	invalidate CacheInvalidator
	log        zerolog.Logger
}

func NewExpirationService(repo repository.OfferRepository, clk clock.Clock, interval time.Duration) *ExpirationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirationService{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		clock:    clk,
		interval: interval,
		log:      logger.Component("expiration"),
	}
}

// WithLock enables the cross-replica lease.
func (s *ExpirationService) WithLock(l Locker, ttl time.Duration) *ExpirationService {
	s.locker = l
	s.lockTTL = ttl
	return s
}

// WithCacheInvalidation drops cached listings after a sweep that expired offers.
func (s *ExpirationService) WithCacheInvalidation(c CacheInvalidator) *ExpirationService {
	s.invalidate = c
	return s
}

// Start sweeps once immediately, then on every tick until Stop.
func (s *ExpirationService) Start() {
	s.log.Info().Dur("interval", s.interval).Msg("Starting expiration service")
	ticker := s.clock.NewTicker(s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *ExpirationService) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("Expiration service stopped")
}

func (s *ExpirationService) tick() {
	if s.locker != nil {
		release, err := s.locker.Lock(s.ctx, sweepLockKey, s.lockTTL)
		switch {
		case errors.Is(err, redis.ErrNotAcquired):
			s.log.Debug().Msg("another replica holds the sweep lease")
			return
		case err != nil:
			s.log.Warn().Err(err).Msg("sweep lease unavailable, sweeping without it")
		default:
			defer func() {
				if err := release(context.WithoutCancel(s.ctx)); err != nil {
					s.log.Warn().Err(err).Msg("failed to release sweep lease")
				}
			}()
		}
	}

	if _, err := s.SweepOnce(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).Msg("Error expiring offers")
	}
}

// SweepOnce expires every active offer whose slot start is at or before now
// and returns how many changed state. Running it twice is harmless.
func (s *ExpirationService) SweepOnce(ctx context.Context) (int64, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	var due []int64
	for _, o := range active {
		if calendar.HasPassed(o.Have, now) {
			due = append(due, o.ID)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	n, err := s.repo.ExpireIDs(ctx, due)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("Expired offers")
		if s.invalidate != nil {
			if err := s.invalidate.InvalidateOffers(ctx); err != nil {
				s.log.Warn().Err(err).Msg("cache invalidation failed")
			}
		}
	}
	return n, nil
}
