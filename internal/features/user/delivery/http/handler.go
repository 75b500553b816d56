package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/common/middleware"
	"shift-exchange-backend/internal/common/validation"
	"shift-exchange-backend/internal/features/user/mapper"
	"shift-exchange-backend/internal/features/user/models"
	"shift-exchange-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	validation.Register()
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes mounts the auth and profile endpoints. verify must be the
// init-data middleware.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, verify gin.HandlerFunc) {
	router.POST("/auth/telegram", verify, h.authTelegram)

	profile := router.Group("/profile", verify, middleware.EnsureUser(h.service))
	{
		profile.GET("", h.getProfile)
		profile.POST("", h.updateProfile)
	}
}

// @Summary Authenticate with Telegram init data
// @Description Verifies init data, creates the user on first sight and refreshes the username otherwise.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.AuthRequest true "Signed init data"
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid signature"
// @Failure 500 {object} middleware.ErrorResponse "Server misconfigured"
// @Router /auth/telegram [post]
func (h *UserHandler) authTelegram(c *gin.Context) {
	user, err := h.service.Authenticate(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToProfileResponse(user))
}

// @Summary Get current profile
// @Tags profile
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /profile [get]
func (h *UserHandler) getProfile(c *gin.Context) {
	uid, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToProfileResponse(user))
}

// @Summary Update current profile
// @Description Sets display name and department. The department must be one of /api/departments.
// @Tags profile
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param request body models.ProfileRequest true "Profile"
// @Success 200 {object} models.ProfileResponse
// @Failure 400 {object} middleware.ErrorResponse "Unknown department or invalid name"
// @Failure 401 {object} middleware.ErrorResponse
// @Router /profile [post]
func (h *UserHandler) updateProfile(c *gin.Context) {
	uid, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid profile payload").
			WithDetail("fields", validation.FieldErrors(err)))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), uid, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToProfileResponse(user))
}
