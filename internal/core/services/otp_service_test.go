package services

import (
	"testing"
	"time"

	"geostaff-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOTPService(now time.Time) (*OTPService, *time.Time) {
	current := now
	svc := NewOTPService(NewMemoryOTPStore(), config.OTPConfig{
		Length:      6,
		TTLMinutes:  5,
		MaxAttempts: 3,
	})
	svc.now = func() time.Time { return current }
	return svc, &current
}

func TestOTPVerifySingleUse(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, _, err := svc.Issue("9876543210")
	require.NoError(t, err)
	require.Len(t, code, 6)

	assert.True(t, svc.Verify("9876543210", code))
	// A consumed code cannot be replayed
	assert.False(t, svc.Verify("9876543210", code))
}

func TestOTPVerifyWrongPhone(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, _, err := svc.Issue("9876543210")
	require.NoError(t, err)

	assert.False(t, svc.Verify("1112223333", code))
	assert.True(t, svc.Verify("9876543210", code))
}

func TestOTPAttemptExhaustion(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, _, err := svc.Issue("9876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}

	for i := 0; i < 3; i++ {
		assert.False(t, svc.Verify("9876543210", wrong))
	}

	// Counter is exhausted, even the right code is refused
	assert.False(t, svc.Verify("9876543210", code))
}

func TestOTPCorrectCodeAfterTwoFailures(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, _, err := svc.Issue("9876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}

	assert.False(t, svc.Verify("9876543210", wrong))
	assert.False(t, svc.Verify("9876543210", wrong))
	assert.True(t, svc.Verify("9876543210", code))
}

func TestOTPExpiry(t *testing.T) {
	svc, current := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, expiresAt, err := svc.Issue("9876543210")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC), expiresAt)

	*current = current.Add(5*time.Minute + time.Second)
	assert.False(t, svc.Verify("9876543210", code))
}

func TestOTPReissueInvalidatesOldCode(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	oldCode, _, err := svc.Issue("9876543210")
	require.NoError(t, err)

	newCode, _, err := svc.Reissue("9876543210")
	require.NoError(t, err)

	if oldCode != newCode {
		assert.False(t, svc.Verify("9876543210", oldCode))
	}
	assert.True(t, svc.Verify("9876543210", newCode))
}

func TestOTPReissueResetsAttempts(t *testing.T) {
	svc, _ := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	code, _, err := svc.Issue("9876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	svc.Verify("9876543210", wrong)
	svc.Verify("9876543210", wrong)

	newCode, _, err := svc.Reissue("9876543210")
	require.NoError(t, err)

	// Fresh entry, fresh counter
	assert.False(t, svc.Verify("9876543210", wrong2(newCode)))
	assert.False(t, svc.Verify("9876543210", wrong2(newCode)))
	assert.True(t, svc.Verify("9876543210", newCode))
}

func wrong2(code string) string {
	if code == "222222" {
		return "333333"
	}
	return "222222"
}

func TestOTPSweepRemovesExpired(t *testing.T) {
	svc, current := newTestOTPService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	_, _, err := svc.Issue("9876543210")
	require.NoError(t, err)
	_, _, err = svc.Issue("1112223333")
	require.NoError(t, err)

	assert.Equal(t, 0, svc.Sweep())

	*current = current.Add(6 * time.Minute)
	assert.Equal(t, 2, svc.Sweep())
	assert.Equal(t, 0, svc.Sweep())
}

func TestGenerateSecureCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateSecureCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, ch >= '0' && ch <= '9')
		}
	}
}
