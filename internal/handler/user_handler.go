package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodorder/internal/model"
	"foodorder/internal/service"
)

// UserHandler handles registration, login and token endpoints.
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

// ValidateResponse is returned by validate.
type ValidateResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *model.Profile `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, AuthResponse{Success: true, Token: result.Token, Role: result.Role})
}

// Login godoc
// @Summary Login user
// @Tags user
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/user/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{Success: true, Token: result.Token, Role: result.Role})
}

// Validate godoc
// @Summary Resolve the caller's token to a profile
// @Tags user
// @Produce json
// @Security TokenAuth
// @Success 200 {object} ValidateResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/user/validate [post]
func (h *UserHandler) Validate(c echo.Context) error {
	profile, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ValidateResponse{Success: true, Message: "Token is valid", User: profile})
}

// LogoutAll godoc
// @Summary Revoke every token issued to the caller
// @Tags user
// @Produce json
// @Security TokenAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/user/logout-all [post]
func (h *UserHandler) LogoutAll(c echo.Context) error {
	profile, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.authService.LogoutEverywhere(c.Request().Context(), profile.ID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out everywhere"})
}
