package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/repository"
)

// MatchNotifier is told about committed pairs.
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, offer, partner *models.Offer)
}

// MatchingService pairs a fresh offer with a mutual counterpart.
type MatchingService struct {
	repo     repository.OfferRepository
	notifier MatchNotifier
	log      zerolog.Logger
}

func NewMatchingService(repo repository.OfferRepository, notifier MatchNotifier) *MatchingService {
	return &MatchingService{
		repo:     repo,
		notifier: notifier,
		log:      logger.Component("matcher"),
	}
}

// AttemptMatch looks for an active offer B of another user in the same
// department such that A's have-slot is in B's wants and B's have-slot is in
// A's wants. Candidates are tried by ascending id. Losing a race for either
// offer is not an error.
func (s *MatchingService) AttemptMatch(ctx context.Context, offerID int64) (models.MatchResult, error) {
	offer, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return models.NoMatch, nil
		}
		return models.NoMatch, err
	}
	if offer.Status != models.StatusActive {
		return models.NoMatch, nil
	}

	candidates, err := s.repo.FindCandidates(ctx, offer)
	if err != nil {
		return models.NoMatch, err
	}

	for _, candidate := range candidates {
		if !offer.WantsSlot(candidate.Have) || !candidate.WantsSlot(offer.Have) {
			continue
		}

		claim, err := s.repo.ClaimPair(ctx, offer.ID, candidate.ID)
		if err != nil {
			return models.NoMatch, err
		}

		switch claim {
		case models.ClaimLostSelf:
			s.log.Debug().Int64("offer_id", offer.ID).Msg("offer left active state while matching")
			return models.NoMatch, nil
		case models.ClaimLostPartner:
			s.log.Debug().Int64("offer_id", offer.ID).Int64("candidate_id", candidate.ID).Msg("candidate taken, trying next")
			continue
		}

		link(offer, candidate)
		s.log.Info().
			Int64("offer_id", offer.ID).
			Int64("partner_id", candidate.ID).
			Str("department", offer.Department).
			Msg("Offers matched")

		if s.notifier != nil {
			s.notifier.NotifyMatch(context.WithoutCancel(ctx), offer, candidate)
		}
		return models.MatchResult{Matched: true, Offer: offer, Partner: candidate}, nil
	}

	return models.NoMatch, nil
}

func link(a, b *models.Offer) {
	aID, bID := a.ID, b.ID
	a.Status, a.MatchedOfferID = models.StatusMatched, &bID
	b.Status, b.MatchedOfferID = models.StatusMatched, &aID
}
