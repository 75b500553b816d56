package models

import (
	"time"

	"shift-exchange-backend/internal/features/calendar"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusMatched   Status = "matched"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Offer is one user's proposal to give away Have in exchange for any of Wants.
type Offer struct {
	ID             int64
	UserID         int64
	Department     string
	Have           calendar.Slot
	Status         Status
	MatchedOfferID *int64
	Wants          []calendar.Slot
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WantsSlot reports whether s is among the offer's wants.
func (o *Offer) WantsSlot(s calendar.Slot) bool {
	for _, w := range o.Wants {
		if w == s {
			return true
		}
	}
	return false
}

// Owner is the display info joined onto listings.
type Owner struct {
	TgID     int64
	FullName string
	Username string
}

type OfferWithOwner struct {
	Offer
	Owner Owner
}

// ClaimResult is the outcome of an atomic pair claim.
type ClaimResult int

const (
	// Claimed: both offers moved to matched and were cross-linked.
	Claimed ClaimResult = iota
	// ClaimLostSelf: the initiating offer is no longer active.
	ClaimLostSelf
	// ClaimLostPartner: only the candidate is no longer active.
	ClaimLostPartner
)

// MatchResult is what AttemptMatch reports. Partner is nil on no match.
type MatchResult struct {
	Matched bool
	Offer   *Offer
	Partner *Offer
	// PartnerOwner is resolved by the offer service for the response.
	PartnerOwner Owner
}

// NoMatch is the empty result.
var NoMatch = MatchResult{}
