package models

import (
	"time"

	"shift-exchange-backend/internal/features/calendar"
)

// CreateOfferRequest
// @Description Новая заявка на обмен сменой
type CreateOfferRequest struct {
	Department string          `json:"department" example:"VIP CALLS"`
	Have       calendar.Slot   `json:"have" binding:"required"`
	Wants      []calendar.Slot `json:"wants" binding:"omitempty,dive"`
}

// OwnerResponse
// @Description Автор заявки
type OwnerResponse struct {
	TgID     int64   `json:"tg_id" example:"123456789"`
	FullName string  `json:"full_name" example:"John Doe"`
	Username *string `json:"username" example:"johndoe"`
	Link     string  `json:"link" example:"tg://user?id=123456789"`
}

// MatchResponse describes the pair formed when an offer was created
// @Description Результат подбора пары
type MatchResponse struct {
	Matched        bool           `json:"matched"`
	PartnerOfferID *int64         `json:"partner_offer_id,omitempty"`
	Partner        *OwnerResponse `json:"partner,omitempty"`
	YouGive        *calendar.Slot `json:"you_give,omitempty"`
	YouReceive     *calendar.Slot `json:"you_receive,omitempty"`
}

// OfferResponse
// @Description Заявка на обмен
type OfferResponse struct {
	ID             int64           `json:"id" example:"42"`
	Department     string          `json:"department" example:"VIP CALLS"`
	Have           calendar.Slot   `json:"have"`
	Wants          []calendar.Slot `json:"wants"`
	Status         Status          `json:"status" example:"active" enums:"active,matched,cancelled,expired"`
	MatchedOfferID *int64          `json:"matched_offer_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Owner          *OwnerResponse  `json:"owner,omitempty"`
	Match          *MatchResponse  `json:"match,omitempty"`
}

// ActualDatesResponse
// @Description Даты, на которые есть активные заявки
type ActualDatesResponse struct {
	Dates []string `json:"dates" example:"2025-01-10"`
}

// DeptSlotsResponse
// @Description Допустимые смены отдела
type DeptSlotsResponse struct {
	Department string                   `json:"department" example:"VIP CALLS"`
	Shifts     []calendar.ShiftTemplate `json:"shifts"`
}

// DepartmentsResponse
// @Description Список отделов
type DepartmentsResponse struct {
	Departments []string `json:"departments" example:"VIP CALLS"`
}
