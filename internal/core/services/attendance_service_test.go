package services

import (
	"context"
	"testing"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	return db
}

// IST-style day boundary, UTC+5:30
const testDayOffsetMinutes = 330

func newTestAttendanceService(t *testing.T, db *gorm.DB, now time.Time) (*AttendanceService, *time.Time) {
	t.Helper()

	current := now
	svc := NewAttendanceService(
		repositories.NewAttendanceRepository(db),
		repositories.NewUserRepository(db),
		config.AttendanceConfig{DayOffsetMinutes: testDayOffsetMinutes},
	)
	svc.now = func() time.Time { return current }
	return svc, &current
}

func createTestUser(t *testing.T, db *gorm.DB, phone string, deviceID *string) {
	t.Helper()

	require.NoError(t, db.Create(&models.User{
		Phone:    phone,
		Name:     "Test User",
		Role:     string(domain.RoleEmployee),
		DeviceID: deviceID,
		IsActive: true,
	}).Error)
}

func validLocation() domain.Location {
	return domain.Location{Latitude: 12.9716, Longitude: 77.5946}
}

func TestCheckInHappyPath(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	event, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.EventCheckIn), event.Kind)
	assert.Equal(t, "2025-06-02", event.DayKey)

	// First check-in binds the device to the account
	var user models.User
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&user).Error)
	require.NotNil(t, user.DeviceID)
	assert.Equal(t, "device-1", *user.DeviceID)
}

func TestCheckInDuplicate(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	input := &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	}
	_, err := svc.CheckIn(context.Background(), "9876543210", input)
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "9876543210", input)
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)
}

func TestCheckInDeviceMismatchAllowed(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	bound := "device-1"
	createTestUser(t, db, "9876543210", &bound)

	// A different device may still check in; the mismatch is only logged
	event, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-2",
		WorkStatus: string(domain.WorkStatusSite),
	})
	require.NoError(t, err)
	assert.Equal(t, "device-2", event.DeviceID)

	// The bound device is not overwritten
	var user models.User
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&user).Error)
	assert.Equal(t, "device-1", *user.DeviceID)
}

func TestCheckInValidation(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   domain.Location{Latitude: 91, Longitude: 0},
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: "vacation",
	})
	assert.ErrorIs(t, err, ErrInvalidWorkStatus)
}

func TestCheckOutHoursWorked(t *testing.T) {
	db := setupTestDB(t)
	// 09:00 local check-in
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)

	// 17:30 local check-out
	*current = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	event, hours, err := svc.CheckOut(context.Background(), "9876543210", &CheckOutInput{
		Location: validLocation(),
		DeviceID: "device-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 8.5, hours)
	assert.Equal(t, string(domain.EventCheckOut), event.Kind)
	// Check-out inherits the check-in work status
	assert.Equal(t, string(domain.WorkStatusOffice), event.WorkStatus)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	_, _, err := svc.CheckOut(context.Background(), "9876543210", &CheckOutInput{
		Location: validLocation(),
		DeviceID: "device-1",
	})
	assert.ErrorIs(t, err, ErrNoCheckIn)
}

func TestCheckOutDeviceMismatchRejected(t *testing.T) {
	db := setupTestDB(t)
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)

	*current = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	_, _, err = svc.CheckOut(context.Background(), "9876543210", &CheckOutInput{
		Location: validLocation(),
		DeviceID: "device-2",
	})
	assert.ErrorIs(t, err, ErrDeviceMismatch)
}

func TestCheckOutDuplicate(t *testing.T) {
	db := setupTestDB(t)
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)

	*current = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	out := &CheckOutInput{Location: validLocation(), DeviceID: "device-1"}
	_, _, err = svc.CheckOut(context.Background(), "9876543210", out)
	require.NoError(t, err)

	_, _, err = svc.CheckOut(context.Background(), "9876543210", out)
	assert.ErrorIs(t, err, ErrDuplicateCheckOut)
}

func TestDayBoundaryUsesLocalOffset(t *testing.T) {
	db := setupTestDB(t)
	// 2025-06-02 20:00 UTC is already 2025-06-03 01:30 local
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	input := &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	}
	event, err := svc.CheckIn(context.Background(), "9876543210", input)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", event.DayKey)

	// 02:00 UTC the next morning is still the same local day
	*current = time.Date(2025, 6, 3, 2, 0, 0, 0, time.UTC)
	_, err = svc.CheckIn(context.Background(), "9876543210", input)
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	// 18:30 UTC crosses into the next local day
	*current = time.Date(2025, 6, 3, 18, 30, 0, 0, time.UTC)
	event, err = svc.CheckIn(context.Background(), "9876543210", input)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-04", event.DayKey)
}

func TestTodayStatusDerivation(t *testing.T) {
	db := setupTestDB(t)
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	today, err := svc.Today(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusNotStarted, today.Status)
	assert.Nil(t, today.HoursWorked)

	_, err = svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)

	// Checked in 2 hours ago, hours run against the current instant
	*current = time.Date(2025, 6, 2, 5, 30, 0, 0, time.UTC)
	today, err = svc.Today(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusCheckedIn, today.Status)
	require.NotNil(t, today.HoursWorked)
	assert.Equal(t, 2.0, *today.HoursWorked)

	*current = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	_, _, err = svc.CheckOut(context.Background(), "9876543210", &CheckOutInput{
		Location: validLocation(),
		DeviceID: "device-1",
	})
	require.NoError(t, err)

	today, err = svc.Today(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusCheckedOut, today.Status)
	require.NotNil(t, today.HoursWorked)
	assert.Equal(t, 8.5, *today.HoursWorked)
}

func TestHistoryPagination(t *testing.T) {
	db := setupTestDB(t)
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	for i := 0; i < 5; i++ {
		*current = time.Date(2025, 6, 2+i, 3, 30, 0, 0, time.UTC)
		_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
			Location:   validLocation(),
			DeviceID:   "device-1",
			WorkStatus: string(domain.WorkStatusOffice),
		})
		require.NoError(t, err)
	}

	events, total, err := svc.History(context.Background(), "9876543210", nil, nil, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, events, 3)
	// Newest first
	assert.Equal(t, "2025-06-06", events[0].DayKey)

	// Range filter
	from := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	events, total, err = svc.History(context.Background(), "9876543210", &from, &to, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, events, 2)
}

func TestMonthlySummaryPastMonth(t *testing.T) {
	db := setupTestDB(t)
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 1, 6, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	// Three present days in January 2025
	for _, day := range []int{6, 7, 8} {
		*current = time.Date(2025, 1, day, 3, 30, 0, 0, time.UTC)
		_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
			Location:   validLocation(),
			DeviceID:   "device-1",
			WorkStatus: string(domain.WorkStatusOffice),
		})
		require.NoError(t, err)
	}

	// Viewed from February, the whole of January counts
	*current = time.Date(2025, 2, 15, 6, 0, 0, 0, time.UTC)
	summary, err := svc.MonthlySummary(context.Background(), "9876543210", 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.PresentDays)
	// January 2025 has 23 weekdays
	assert.Equal(t, 23, summary.WorkingDays)
	assert.Equal(t, int64(20), summary.AbsentDays)
}

func TestMonthlySummaryCurrentMonthCappedAtToday(t *testing.T) {
	db := setupTestDB(t)
	// Local date is Wednesday 2025-06-04
	svc, current := newTestAttendanceService(t, db, time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC))
	createTestUser(t, db, "9876543210", nil)

	*current = time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC)
	_, err := svc.CheckIn(context.Background(), "9876543210", &CheckInInput{
		Location:   validLocation(),
		DeviceID:   "device-1",
		WorkStatus: string(domain.WorkStatusOffice),
	})
	require.NoError(t, err)

	*current = time.Date(2025, 6, 4, 6, 0, 0, 0, time.UTC)
	summary, err := svc.MonthlySummary(context.Background(), "9876543210", 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.PresentDays)
	// June 1 is a Sunday; only Mon 2, Tue 3, Wed 4 have elapsed
	assert.Equal(t, 3, summary.WorkingDays)
	assert.Equal(t, int64(2), summary.AbsentDays)
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 8.5, roundHours(8*time.Hour+30*time.Minute))
	assert.Equal(t, 0.0, roundHours(0))
	assert.Equal(t, 7.76, roundHours(7*time.Hour+45*time.Minute+30*time.Second))
}
