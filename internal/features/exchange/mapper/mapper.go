package mapper

import (
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/service"
)

func ToOfferResponse(offer *models.Offer) *models.OfferResponse {
	wants := offer.Wants
	if wants == nil {
		wants = []calendar.Slot{}
	}
	return &models.OfferResponse{
		ID:             offer.ID,
		Department:     offer.Department,
		Have:           offer.Have,
		Wants:          wants,
		Status:         offer.Status,
		MatchedOfferID: offer.MatchedOfferID,
		CreatedAt:      offer.CreatedAt,
	}
}

func ToOfferResponses(offers []*models.Offer) []*models.OfferResponse {
	out := make([]*models.OfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, ToOfferResponse(o))
	}
	return out
}

// ToCreatedResponse adds the match outcome of a fresh offer.
func ToCreatedResponse(offer *models.Offer, result models.MatchResult) *models.OfferResponse {
	resp := ToOfferResponse(offer)
	resp.Match = &models.MatchResponse{Matched: result.Matched}
	if !result.Matched || result.Partner == nil {
		return resp
	}

	partnerID := result.Partner.ID
	give, receive := offer.Have, result.Partner.Have
	resp.Match.PartnerOfferID = &partnerID
	resp.Match.Partner = ToOwnerResponse(result.PartnerOwner)
	resp.Match.YouGive = &give
	resp.Match.YouReceive = &receive
	return resp
}

func ToOwnerResponse(owner models.Owner) *models.OwnerResponse {
	resp := &models.OwnerResponse{
		TgID:     owner.TgID,
		FullName: owner.FullName,
		Link:     service.UserLink(owner.TgID),
	}
	if owner.Username != "" {
		username := owner.Username
		resp.Username = &username
	}
	return resp
}

// ToListingResponses maps a by-date listing, attaching owner info.
func ToListingResponses(offers []*models.OfferWithOwner) []*models.OfferResponse {
	out := make([]*models.OfferResponse, 0, len(offers))
	for _, o := range offers {
		resp := ToOfferResponse(&o.Offer)
		resp.Owner = ToOwnerResponse(o.Owner)
		out = append(out, resp)
	}
	return out
}
