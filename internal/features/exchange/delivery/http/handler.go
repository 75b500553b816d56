package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/common/middleware"
	"shift-exchange-backend/internal/common/validation"
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/mapper"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/service"
)

type ExchangeHandler struct {
	service  service.OfferService
	calendar *calendar.Calendar
	users    middleware.UserEnsurer
	cache    middleware.ResponseStore
	cacheTTL time.Duration
}

func NewExchangeHandler(service service.OfferService, cal *calendar.Calendar, users middleware.UserEnsurer) *ExchangeHandler {
	validation.Register()
	return &ExchangeHandler{
		service:  service,
		calendar: cal,
		users:    users,
	}
}

// WithResponseCache caches the shared listings (actual dates, offers by
// date) for ttl. Pass a nil store to disable.
func (h *ExchangeHandler) WithResponseCache(store middleware.ResponseStore, ttl time.Duration) *ExchangeHandler {
	h.cache = store
	h.cacheTTL = ttl
	return h
}

// RegisterRoutes mounts the offer endpoints behind verify and the static
// calendar endpoints without it.
func (h *ExchangeHandler) RegisterRoutes(router *gin.RouterGroup, verify gin.HandlerFunc) {
	router.GET("/dept/slots", h.getDeptSlots)
	router.GET("/departments", h.getDepartments)

	authed := router.Group("", verify, middleware.EnsureUser(h.users))
	{
		listing := middleware.RedisCache(h.cache, h.cacheTTL)

		authed.GET("/actual-dates", listing, h.getActualDates)

		offers := authed.Group("/offers")
		offers.POST("", h.createOffer)
		offers.GET("/my", h.getMyOffers)
		offers.GET("/by-date", listing, h.getOffersByDate)
		offers.DELETE("/:id", h.deleteOffer)
	}
}

// @Summary Create an exchange offer
// @Description Stores the offer and immediately tries to pair it with a mutual offer of the same department. Both owners are notified on a match.
// @Tags offers
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param request body models.CreateOfferRequest true "Offer"
// @Success 201 {object} models.OfferResponse
// @Failure 400 {object} middleware.ErrorResponse "Profile incomplete, unknown department, slot in the past or empty wants"
// @Failure 401 {object} middleware.ErrorResponse
// @Router /offers [post]
func (h *ExchangeHandler) createOffer(c *gin.Context) {
	uid, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid offer payload").
			WithDetail("fields", validation.FieldErrors(err)))
		return
	}

	offer, result, err := h.service.Create(c.Request.Context(), uid, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.ToCreatedResponse(offer, result))
}

// @Summary List my offers
// @Description Active and matched offers of the caller, newest first.
// @Tags offers
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} models.OfferResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /offers/my [get]
func (h *ExchangeHandler) getMyOffers(c *gin.Context) {
	uid, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	offers, err := h.service.ListMine(c.Request.Context(), uid)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToOfferResponses(offers))
}

// @Summary Delete my offer
// @Tags offers
// @Security TelegramInitData
// @Param id path int true "Offer ID"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse "Bad id"
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Not found or not owned"
// @Router /offers/{id} [delete]
func (h *ExchangeHandler) deleteOffer(c *gin.Context) {
	uid, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.AbortWithError(c, apperrors.NewValidationError("id", "must be a positive integer"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), uid, id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Dates with open offers
// @Description Distinct dates that still have an active offer whose shift has not started.
// @Tags offers
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.ActualDatesResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /actual-dates [get]
func (h *ExchangeHandler) getActualDates(c *gin.Context) {
	dates, err := h.service.ActualDates(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ActualDatesResponse{Dates: dates})
}

// @Summary Open offers on a date
// @Tags offers
// @Produce json
// @Security TelegramInitData
// @Param date query string true "Date, YYYY-MM-DD"
// @Success 200 {array} models.OfferResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /offers/by-date [get]
func (h *ExchangeHandler) getOffersByDate(c *gin.Context) {
	offers, err := h.service.ListByDate(c.Request.Context(), strings.TrimSpace(c.Query("date")))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToListingResponses(offers))
}

// @Summary Shift templates of a department
// @Tags calendar
// @Produce json
// @Param department query string true "Department"
// @Success 200 {object} models.DeptSlotsResponse
// @Failure 400 {object} middleware.ErrorResponse "Unknown department"
// @Router /dept/slots [get]
func (h *ExchangeHandler) getDeptSlots(c *gin.Context) {
	department := strings.TrimSpace(c.Query("department"))
	if department == "" {
		middleware.AbortWithError(c, apperrors.NewValidationError("department", "is required"))
		return
	}
	shifts, err := h.calendar.Templates(department)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeptSlotsResponse{Department: department, Shifts: shifts})
}

// @Summary List departments
// @Tags calendar
// @Produce json
// @Success 200 {object} models.DepartmentsResponse
// @Router /departments [get]
func (h *ExchangeHandler) getDepartments(c *gin.Context) {
	c.JSON(http.StatusOK, models.DepartmentsResponse{Departments: h.calendar.Departments()})
}
