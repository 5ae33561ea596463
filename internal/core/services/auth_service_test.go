package services

import (
	"context"
	"testing"

	"geostaff-backend/internal/adapters/persistence/models"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/domain"
	"geostaff-backend/internal/pkg/jwt"
	"geostaff-backend/internal/pkg/phone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			AccessTokenHours: 24,
		},
		OTP: config.OTPConfig{
			Length:      6,
			TTLMinutes:  5,
			MaxAttempts: 3,
		},
	}
	otpService := NewOTPService(NewMemoryOTPStore(), cfg.OTP)
	return NewAuthService(repositories.NewUserRepository(db), otpService, cfg)
}

func TestSendOTPCreatesPlaceholderUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	issued, err := svc.SendOTP(context.Background(), "+91 98765-43210")
	require.NoError(t, err)
	assert.Equal(t, "919876543210", issued.Phone)
	assert.Len(t, issued.Code, 6)

	var user models.User
	require.NoError(t, db.Where("phone = ?", "919876543210").First(&user).Error)
	assert.Equal(t, "User 3210", user.Name)
	assert.Equal(t, string(domain.RoleEmployee), user.Role)
	assert.True(t, user.IsActive)
}

func TestSendOTPRejectsInactiveUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	require.NoError(t, db.Create(&models.User{
		Phone:    "9876543210",
		Name:     "Former Employee",
		Role:     string(domain.RoleEmployee),
		IsActive: false,
	}).Error)

	// The deactivated flag must survive the insert as-is
	var stored models.User
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&stored).Error)
	require.False(t, stored.IsActive)

	_, err := svc.SendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestSendOTPInvalidPhone(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.SendOTP(context.Background(), "12345")
	assert.ErrorIs(t, err, phone.ErrInvalidPhone)
}

func TestResendOTPRequiresExistingUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.ResendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	issued, err := svc.ResendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Len(t, issued.Code, 6)
}

func TestVerifyOTPLoginFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	issued, err := svc.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	auth, err := svc.VerifyOTP(context.Background(), "9876543210", issued.Code, "device-1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", auth.TokenType)
	assert.Equal(t, "9876543210", auth.User.Phone)

	claims, err := jwt.ValidateAccessToken(auth.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", claims.Phone)
	assert.Equal(t, string(domain.RoleEmployee), claims.Role)

	// Device id was bound for attendance tracking
	var user models.User
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&user).Error)
	require.NotNil(t, user.DeviceID)
	assert.Equal(t, "device-1", *user.DeviceID)

	// The code is single use
	_, err = svc.VerifyOTP(context.Background(), "9876543210", issued.Code, "device-1")
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	issued, err := svc.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == issued.Code {
		wrong = "111111"
	}

	_, err = svc.VerifyOTP(context.Background(), "9876543210", wrong, "")
	assert.ErrorIs(t, err, ErrOTPInvalid)

	// The right code still works after one failure
	auth, err := svc.VerifyOTP(context.Background(), "9876543210", issued.Code, "")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.AccessToken)
}

func TestRefreshReflectsAccountChanges(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	require.NoError(t, db.Create(&models.User{
		Phone:    "9876543210",
		Name:     "Asha",
		Role:     string(domain.RoleEmployee),
		IsActive: true,
	}).Error)

	auth, err := svc.Refresh(context.Background(), "9876543210")
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(auth.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleEmployee), claims.Role)

	// Role promotion shows up in the next refresh
	require.NoError(t, db.Model(&models.User{}).Where("phone = ?", "9876543210").Update("role", string(domain.RoleManager)).Error)

	auth, err = svc.Refresh(context.Background(), "9876543210")
	require.NoError(t, err)
	claims, err = jwt.ValidateAccessToken(auth.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleManager), claims.Role)

	// Deactivation blocks refresh even while the old token is valid
	require.NoError(t, db.Model(&models.User{}).Where("phone = ?", "9876543210").Update("is_active", false).Error)
	_, err = svc.Refresh(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.Me(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.Create(&models.User{
		Phone:    "9876543210",
		Name:     "Asha",
		Role:     string(domain.RoleEmployee),
		IsActive: true,
	}).Error)

	profile, err := svc.Me(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile.Name)
}
