package handlers

import (
	"errors"
	"fmt"
	"strings"

	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/services"
	"geostaff-backend/internal/pkg/phone"
	"geostaff-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// SendOTPRequest is the request body for send-otp and resend-otp
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest is the request body for verify-otp
type VerifyOTPRequest struct {
	Phone    string `json:"phone"`
	OTP      string `json:"otp"`
	DeviceID string `json:"device_id,omitempty"`
}

// SendOTP handles OTP issuance
// @Summary Send OTP
// @Description Issue a login code for a phone number, creating the account on first contact
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return response.BadRequest(c, "Phone is required")
	}

	issued, err := h.authService.SendOTP(c.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, phone.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "Your account has been deactivated. Contact admin.")
		default:
			return response.InternalServerError(c, "Failed to send OTP")
		}
	}

	return response.Success(c, "OTP sent successfully to "+issued.Phone, h.otpPayload(issued))
}

// ResendOTP invalidates the outstanding code and issues a new one
// @Summary Resend OTP
// @Description Reissue a login code for an existing user
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return response.BadRequest(c, "Phone is required")
	}

	issued, err := h.authService.ResendOTP(c.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, phone.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found. Please register first.")
		default:
			return response.InternalServerError(c, "Failed to resend OTP")
		}
	}

	return response.Success(c, "OTP resent successfully to "+issued.Phone, h.otpPayload(issued))
}

// VerifyOTP handles code verification and session issuance
// @Summary Verify OTP
// @Description Verify a login code and return a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return response.BadRequest(c, "Phone is required")
	}
	if !isNumericCode(req.OTP, h.cfg.OTP.Length) {
		return response.BadRequest(c, fmt.Sprintf("OTP must be a %d-digit number", h.cfg.OTP.Length))
	}

	result, err := h.authService.VerifyOTP(c.Context(), req.Phone, req.OTP, req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, phone.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrOTPInvalid):
			return response.Unauthorized(c, "Invalid or expired OTP. Please try again.")
		default:
			return response.InternalServerError(c, "Failed to verify OTP")
		}
	}

	return response.Success(c, "OTP verified successfully", result)
}

// Refresh mints a fresh session token
// @Summary Refresh session token
// @Description Re-read the account and return a new token
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.authService.Refresh(c.Context(), userPhone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "Your account has been deactivated")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	return response.Success(c, "Token refreshed successfully", result)
}

// Me returns the current user's profile
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.Me(c.Context(), userPhone)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	return response.Success(c, "", user)
}

// otpPayload echoes the code in dev mode only; there is no SMS gateway
// wired up yet
func (h *AuthHandler) otpPayload(issued *services.OTPIssued) fiber.Map {
	payload := fiber.Map{
		"phone":      issued.Phone,
		"expires_at": issued.ExpiresAt,
	}
	if h.cfg.IsDev() {
		payload["otp"] = issued.Code
	}
	return payload
}

// isNumericCode reports whether s is exactly n ASCII digits
func isNumericCode(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
