package repository

import (
	"context"
	"errors"

	"shift-exchange-backend/internal/features/exchange/models"
)

var ErrOfferNotFound = errors.New("offer not found")

// OfferRepository persists offers and their want lists. Returned offers carry
// their wants sorted by (date, hour) unless stated otherwise.
type OfferRepository interface {
	// Create stores an active offer and its wants atomically.
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	// ListByUser returns the user's offers in the given statuses, newest first.
	ListByUser(ctx context.Context, userID int64, statuses ...models.Status) ([]*models.Offer, error)
	// ListActive returns every active offer without wants.
	ListActive(ctx context.Context) ([]*models.Offer, error)
	ListActiveByDate(ctx context.Context, date string) ([]*models.OfferWithOwner, error)
	// FindCandidates returns active offers of other users in offer's
	// department whose have-slot is one of offer's wants, by id ascending.
	FindCandidates(ctx context.Context, offer *models.Offer) ([]*models.Offer, error)
	// ClaimPair atomically moves both offers from active to matched and links
	// them, provided both are still active.
	ClaimPair(ctx context.Context, offerID, partnerID int64) (models.ClaimResult, error)
	// DeleteByOwner hard-deletes the offer if userID owns it.
	DeleteByOwner(ctx context.Context, id, userID int64) error
	// ExpireIDs moves still-active offers among ids to expired.
	ExpireIDs(ctx context.Context, ids []int64) (int64, error)
}
