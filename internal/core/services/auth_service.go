package services

import (
	"context"
	"errors"
	"log"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/domain"
	"geostaff-backend/internal/pkg/jwt"
	"geostaff-backend/internal/pkg/phone"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrOTPInvalid covers every verification failure: wrong code,
	// expired code, and exhausted attempts collapse to one signal so
	// callers learn nothing about the attempt counter.
	ErrOTPInvalid = errors.New("invalid or expired OTP")
)

// AuthService handles OTP login and session issuance
type AuthService struct {
	userRepo   repositories.UserRepository
	otpService *OTPService
	cfg        *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, otpService *OTPService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		otpService: otpService,
		cfg:        cfg,
	}
}

// OTPIssued reports a freshly issued code
type OTPIssued struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	User        *models.UserResponse `json:"user"`
}

// SendOTP issues a login code for a phone number. A first-time caller
// gets an employee account created implicitly with a placeholder name;
// a deactivated account is rejected before any code is issued.
func (s *AuthService) SendOTP(ctx context.Context, rawPhone string) (*OTPIssued, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, normalized)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user, err = s.createPlaceholderUser(ctx, normalized)
		if err != nil {
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	code, expiresAt, err := s.otpService.Issue(normalized)
	if err != nil {
		return nil, err
	}

	return &OTPIssued{Phone: normalized, Code: code, ExpiresAt: expiresAt}, nil
}

// ResendOTP invalidates any outstanding code and issues a new one. The
// user must already exist.
func (s *AuthService) ResendOTP(ctx context.Context, rawPhone string) (*OTPIssued, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByPhone(ctx, normalized); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	code, expiresAt, err := s.otpService.Reissue(normalized)
	if err != nil {
		return nil, err
	}

	return &OTPIssued{Phone: normalized, Code: code, ExpiresAt: expiresAt}, nil
}

// VerifyOTP checks a submitted code and mints a session token. The
// optional device id is bound to the account for attendance tracking.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, code, deviceID string) (*AuthResponse, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	if !s.otpService.Verify(normalized, code) {
		return nil, ErrOTPInvalid
	}

	user, err := s.userRepo.GetByPhone(ctx, normalized)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Client skipped send-otp; create the account now
		user, err = s.createPlaceholderUser(ctx, normalized)
		if err != nil {
			return nil, err
		}
	}

	if deviceID != "" {
		if err := s.userRepo.UpdateDeviceID(ctx, normalized, deviceID); err != nil {
			return nil, err
		}
		user.DeviceID = &deviceID
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Phone)

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.ToResponse(),
	}, nil
}

// Refresh mints a fresh token for an already-authenticated user. The
// account row is re-read so role and name drift is captured and a
// deactivated account is rejected even while its old token is valid.
func (s *AuthService) Refresh(ctx context.Context, userPhone string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByPhone(ctx, userPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.ToResponse(),
	}, nil
}

// Me returns the authenticated user's profile
func (s *AuthService) Me(ctx context.Context, userPhone string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByPhone(ctx, userPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *AuthService) createPlaceholderUser(ctx context.Context, normalized string) (*models.User, error) {
	user := &models.User{
		Phone:    normalized,
		Name:     "User " + phone.Last4(normalized),
		Role:     string(domain.RoleEmployee),
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✨ New user created: %s", normalized)
	return user, nil
}

func (s *AuthService) mintToken(user *models.User) (string, error) {
	return jwt.GenerateAccessToken(
		user.Phone,
		user.Role,
		user.Name,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenHours,
	)
}
