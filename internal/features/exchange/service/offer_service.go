package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"shift-exchange-backend/internal/common/clock"
	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/common/validation"
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/repository"
	userrepo "shift-exchange-backend/internal/features/user/repository"
)

// CacheInvalidator drops cached offer listings. *cache.CacheService satisfies it.
type CacheInvalidator interface {
	InvalidateOffers(ctx context.Context) error
}

// Matcher is satisfied by *MatchingService.
type Matcher interface {
	AttemptMatch(ctx context.Context, offerID int64) (models.MatchResult, error)
}

type OfferService interface {
	// Create validates and stores an offer, then tries to match it.
	Create(ctx context.Context, userID int64, req models.CreateOfferRequest) (*models.Offer, models.MatchResult, error)
	// ListMine returns the caller's active and matched offers, newest first.
	ListMine(ctx context.Context, userID int64) ([]*models.Offer, error)
	Delete(ctx context.Context, userID, offerID int64) error
	// ActualDates lists distinct dates that still have a future active offer.
	ActualDates(ctx context.Context) ([]string, error)
	// ListByDate lists active offers on date whose slot has not started yet.
	ListByDate(ctx context.Context, date string) ([]*models.OfferWithOwner, error)
}

type offerService struct {
	repo       repository.OfferRepository
	users      userrepo.UserRepository
	calendar   *calendar.Calendar
	matcher    Matcher
	clock      clock.Clock
	invalidate CacheInvalidator
	log        zerolog.Logger
}

// NewOfferService wires the offer use cases. invalidate may be nil.
func NewOfferService(
	repo repository.OfferRepository,
	users userrepo.UserRepository,
	cal *calendar.Calendar,
	matcher Matcher,
	clk clock.Clock,
	invalidate CacheInvalidator,
) OfferService {
	return &offerService{
		repo:       repo,
		users:      users,
		calendar:   cal,
		matcher:    matcher,
		clock:      clk,
		invalidate: invalidate,
		log:        logger.Component("offers"),
	}
}

func (s *offerService) Create(ctx context.Context, userID int64, req models.CreateOfferRequest) (*models.Offer, models.MatchResult, error) {
	user, err := s.users.GetByTgID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, models.NoMatch, apperrors.New(apperrors.ErrCodeProfileIncomplete, "Fill in your name and department first")
		}
		return nil, models.NoMatch, apperrors.NewDatabaseError("get user", err).WithUserID(userID)
	}
	if !user.ProfileComplete() {
		return nil, models.NoMatch, apperrors.New(apperrors.ErrCodeProfileIncomplete, "Fill in your name and department first").
			WithUserID(userID)
	}

	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = user.Department
	}

	now := s.clock.Now()
	if err := s.calendar.ValidateSlot(department, req.Have, now); err != nil {
		return nil, models.NoMatch, err
	}

	wants, err := s.validateWants(department, req.Have, req.Wants)
	if err != nil {
		return nil, models.NoMatch, err
	}
	for _, w := range wants {
		if err := s.calendar.ValidateSlot(department, w, now); err != nil {
			return nil, models.NoMatch, err
		}
	}

	offer, err := s.repo.Create(ctx, &models.Offer{
		UserID:     userID,
		Department: department,
		Have:       req.Have,
		Wants:      wants,
	})
	if err != nil {
		return nil, models.NoMatch, apperrors.NewDatabaseError("create offer", err).WithUserID(userID)
	}

	s.log.Info().
		Int64("offer_id", offer.ID).
		Int64("user_id", userID).
		Str("department", department).
		Str("have", offer.Have.String()).
		Int("wants", len(offer.Wants)).
		Msg("Offer created")

	// Matching only runs here, so it must outlive a client that disconnects
	// once the offer is committed.
	matchCtx := context.WithoutCancel(ctx)
	result, err := s.matcher.AttemptMatch(matchCtx, offer.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("offer_id", offer.ID).Msg("Matching failed")
		result = models.NoMatch
	}
	if result.Matched {
		offer = result.Offer
		result.PartnerOwner = s.owner(matchCtx, result.Partner.UserID)
	}

	s.invalidateListings(ctx)
	return offer, result, nil
}

// validateWants rejects an empty list, drops duplicates and sorts.
func (s *offerService) validateWants(department string, have calendar.Slot, wants []calendar.Slot) ([]calendar.Slot, error) {
	if len(wants) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeEmptyWantList, "Pick at least one shift you want in return")
	}

	seen := make(map[calendar.Slot]struct{}, len(wants))
	out := make([]calendar.Slot, 0, len(wants))
	for _, w := range wants {
		if w == have {
			return nil, apperrors.NewInvalidSlotError(w.Date, w.Hour, "wanted shift equals the offered one")
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) > validation.MaxWants {
		return nil, apperrors.NewValidationError("wants", "too many shifts requested").
			WithDetail("max", validation.MaxWants)
	}
	calendar.SortSlots(out)
	return out, nil
}

func (s *offerService) ListMine(ctx context.Context, userID int64) ([]*models.Offer, error) {
	offers, err := s.repo.ListByUser(ctx, userID, models.StatusActive, models.StatusMatched)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list offers", err).WithUserID(userID)
	}
	return offers, nil
}

func (s *offerService) Delete(ctx context.Context, userID, offerID int64) error {
	if err := s.repo.DeleteByOwner(ctx, offerID, userID); err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return apperrors.NewNotFoundError("Offer", offerID)
		}
		return apperrors.NewDatabaseError("delete offer", err).WithUserID(userID)
	}

	s.log.Info().Int64("offer_id", offerID).Int64("user_id", userID).Msg("Offer deleted")
	s.invalidateListings(ctx)
	return nil
}

func (s *offerService) ActualDates(ctx context.Context) ([]string, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list active offers", err)
	}

	now := s.clock.Now()
	set := make(map[string]struct{})
	for _, o := range active {
		if calendar.IsFuture(o.Have, now) {
			set[o.Have.Date] = struct{}{}
		}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *offerService) ListByDate(ctx context.Context, date string) ([]*models.OfferWithOwner, error) {
	if !calendar.IsValidDate(date) {
		return nil, apperrors.NewValidationError("date", "must be YYYY-MM-DD")
	}

	offers, err := s.repo.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list offers by date", err)
	}

	now := s.clock.Now()
	out := offers[:0]
	for _, o := range offers {
		if calendar.IsFuture(o.Have, now) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *offerService) owner(ctx context.Context, tgID int64) models.Owner {
	owner := models.Owner{TgID: tgID}
	if u, err := s.users.GetByTgID(ctx, tgID); err == nil {
		owner.FullName = u.FullName
		owner.Username = u.Username
	}
	return owner
}

func (s *offerService) invalidateListings(ctx context.Context) {
	if s.invalidate == nil {
		return
	}
	if err := s.invalidate.InvalidateOffers(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
