package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"microblog/internal/errors"
	"microblog/internal/middleware"
	"microblog/internal/service"
)

// AccountHandler handles the profile endpoints of the logged-in user.
type AccountHandler struct {
	userService service.UserService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(userService service.UserService) *AccountHandler {
	return &AccountHandler{userService: userService}
}

// UpdateAccountRequest represents a profile update. The avatar arrives as an
// optional multipart file, so the text fields bind from the form.
type UpdateAccountRequest struct {
	Username string `form:"username" validate:"required,min=2,max=20"`
	Email    string `form:"email" validate:"required,email,max=120"`
}

// GetAccount godoc
// @Summary Get the current user's profile
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// UpdateAccount godoc
// @Summary Update the current user's profile
// @Tags account
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param username formData string true "New username"
// @Param email formData string true "New email"
// @Param picture formData file false "New profile picture"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /account [post]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Optional avatar upload; absence is not an error
	picture, err := c.FormFile("picture")
	if err != nil {
		picture = nil
	}

	updated, err := h.userService.UpdateProfile(c.Request().Context(), user, req.Username, req.Email, picture)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, newUserResponse(updated))
}
