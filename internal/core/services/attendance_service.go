package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/domain"

	"gorm.io/gorm"
)

// Attendance errors
var (
	ErrDuplicateCheckIn  = errors.New("already checked in today")
	ErrDuplicateCheckOut = errors.New("already checked out today")
	ErrNoCheckIn         = errors.New("no check-in found for today")
	ErrDeviceMismatch    = errors.New("device mismatch")
	ErrInvalidLocation   = errors.New("invalid coordinates")
	ErrInvalidWorkStatus = errors.New("invalid work status")
)

// AttendanceService appends check-in/check-out events and derives the
// per-day status. "Today" is the midnight-to-midnight window in a fixed
// offset from UTC taken from configuration; timestamps are stored in UTC.
type AttendanceService struct {
	attendanceRepo repositories.AttendanceRepository
	userRepo       repositories.UserRepository
	loc            *time.Location
	now            func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendanceRepo repositories.AttendanceRepository,
	userRepo repositories.UserRepository,
	cfg config.AttendanceConfig,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		loc:            time.FixedZone("attendance", cfg.DayOffsetMinutes*60),
		now:            time.Now,
	}
}

// CheckInInput is the payload for a check-in
type CheckInInput struct {
	Location   domain.Location `json:"location"`
	DeviceID   string          `json:"device_id"`
	WorkStatus string          `json:"work_status"`
	PhotoURL   *string         `json:"photo_url,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

// CheckOutInput is the payload for a check-out
type CheckOutInput struct {
	Location domain.Location `json:"location"`
	DeviceID string          `json:"device_id"`
	Notes    *string         `json:"notes,omitempty"`
}

// TodayAttendance is the derived state for the current local day
type TodayAttendance struct {
	CheckIn     *models.AttendanceEvent `json:"check_in"`
	CheckOut    *models.AttendanceEvent `json:"check_out"`
	Status      domain.DayStatus        `json:"status"`
	HoursWorked *float64                `json:"hours_worked,omitempty"`
}

// MonthlySummary aggregates one calendar month
type MonthlySummary struct {
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	PresentDays int64 `json:"present_days"`
	WorkingDays int   `json:"working_days"`
	AbsentDays  int64 `json:"absent_days"`
	// Leave-day accounting lives with the approval workflow and is not
	// folded in here yet; reported as 0.
	LeaveDays int `json:"leave_days"`
}

// dayKey returns the local calendar date an instant belongs to
func (s *AttendanceService) dayKey(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// CheckIn records a check-in for today. Device binding is lenient: an
// unbound account adopts the payload's device id, and a mismatch is
// logged but allowed. Check-out enforces the strict counterpart.
func (s *AttendanceService) CheckIn(ctx context.Context, userPhone string, input *CheckInInput) (*models.AttendanceEvent, error) {
	if !input.Location.Valid() {
		return nil, ErrInvalidLocation
	}
	if !domain.WorkStatus(input.WorkStatus).IsValid() {
		return nil, ErrInvalidWorkStatus
	}

	now := s.now().UTC()
	key := s.dayKey(now)

	_, err := s.attendanceRepo.GetByUserDayKind(ctx, userPhone, key, string(domain.EventCheckIn))
	if err == nil {
		return nil, ErrDuplicateCheckIn
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, userPhone)
	if err != nil {
		return nil, err
	}

	switch {
	case user.DeviceID == nil || *user.DeviceID == "":
		if err := s.userRepo.UpdateDeviceID(ctx, userPhone, input.DeviceID); err != nil {
			return nil, err
		}
	case *user.DeviceID != input.DeviceID:
		log.Printf("⚠️ Device mismatch for user %s: expected %s, got %s", userPhone, *user.DeviceID, input.DeviceID)
	}

	event := &models.AttendanceEvent{
		UserPhone:  userPhone,
		Kind:       string(domain.EventCheckIn),
		DayKey:     key,
		Timestamp:  now,
		Latitude:   input.Location.Latitude,
		Longitude:  input.Location.Longitude,
		Accuracy:   input.Location.Accuracy,
		Address:    input.Location.Address,
		DeviceID:   input.DeviceID,
		WorkStatus: input.WorkStatus,
		PhotoURL:   input.PhotoURL,
		Notes:      input.Notes,
	}

	if err := s.attendanceRepo.Create(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCheckIn
		}
		return nil, err
	}

	log.Printf("✅ User %s checked in at %s", userPhone, event.Timestamp.Format(time.RFC3339))
	return event, nil
}

// CheckOut records a check-out for today and returns the hours worked.
// The payload device id must match today's check-in device id exactly.
func (s *AttendanceService) CheckOut(ctx context.Context, userPhone string, input *CheckOutInput) (*models.AttendanceEvent, float64, error) {
	if !input.Location.Valid() {
		return nil, 0, ErrInvalidLocation
	}

	now := s.now().UTC()
	key := s.dayKey(now)

	_, err := s.attendanceRepo.GetByUserDayKind(ctx, userPhone, key, string(domain.EventCheckOut))
	if err == nil {
		return nil, 0, ErrDuplicateCheckOut
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}

	checkIn, err := s.attendanceRepo.GetByUserDayKind(ctx, userPhone, key, string(domain.EventCheckIn))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNoCheckIn
		}
		return nil, 0, err
	}

	if checkIn.DeviceID != input.DeviceID {
		return nil, 0, ErrDeviceMismatch
	}

	event := &models.AttendanceEvent{
		UserPhone: userPhone,
		Kind:      string(domain.EventCheckOut),
		DayKey:    key,
		Timestamp: now,
		Latitude:  input.Location.Latitude,
		Longitude: input.Location.Longitude,
		Accuracy:  input.Location.Accuracy,
		Address:   input.Location.Address,
		DeviceID:  input.DeviceID,
		// A check-out carries the work status of its check-in
		WorkStatus: checkIn.WorkStatus,
		Notes:      input.Notes,
	}

	if err := s.attendanceRepo.Create(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, 0, ErrDuplicateCheckOut
		}
		return nil, 0, err
	}

	hours := roundHours(now.Sub(checkIn.Timestamp))
	log.Printf("✅ User %s checked out at %s. Hours worked: %.2f", userPhone, now.Format(time.RFC3339), hours)

	return event, hours, nil
}

// Today returns the current local day's events and derived status. When
// only a check-in exists, hours worked run against the current instant.
func (s *AttendanceService) Today(ctx context.Context, userPhone string) (*TodayAttendance, error) {
	now := s.now().UTC()
	key := s.dayKey(now)

	checkIn, err := s.attendanceRepo.GetByUserDayKind(ctx, userPhone, key, string(domain.EventCheckIn))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	checkOut, err := s.attendanceRepo.GetByUserDayKind(ctx, userPhone, key, string(domain.EventCheckOut))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result := &TodayAttendance{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Status:   domain.DayStatusNotStarted,
	}

	switch {
	case checkIn != nil && checkOut != nil:
		result.Status = domain.DayStatusCheckedOut
		hours := roundHours(checkOut.Timestamp.Sub(checkIn.Timestamp))
		result.HoursWorked = &hours
	case checkIn != nil:
		result.Status = domain.DayStatusCheckedIn
		hours := roundHours(now.Sub(checkIn.Timestamp))
		result.HoursWorked = &hours
	}

	return result, nil
}

// History lists a user's events newest first with pagination and an
// optional timestamp range; a nil range yields all events.
func (s *AttendanceService) History(ctx context.Context, userPhone string, from, to *time.Time, offset, limit int) ([]*models.AttendanceEvent, int64, error) {
	return s.attendanceRepo.ListByUser(ctx, userPhone, from, to, offset, limit)
}

// MonthlySummary aggregates present, working, and absent days for a
// calendar month. The current month is capped at today so days that
// have not happened yet are not counted as absences.
func (s *AttendanceService) MonthlySummary(ctx context.Context, userPhone string, year, month int) (*MonthlySummary, error) {
	localNow := s.now().In(s.loc)

	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	lastDay := firstDay.AddDate(0, 1, -1)
	if year == localNow.Year() && time.Month(month) == localNow.Month() {
		lastDay = time.Date(year, time.Month(month), localNow.Day(), 0, 0, 0, 0, s.loc)
	}

	presentDays, err := s.attendanceRepo.CountDistinctDays(
		ctx,
		userPhone,
		string(domain.EventCheckIn),
		firstDay.Format("2006-01-02"),
		lastDay.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}

	workingDays := 0
	for d := firstDay; !d.After(lastDay); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			workingDays++
		}
	}

	absentDays := int64(workingDays) - presentDays
	if absentDays < 0 {
		absentDays = 0
	}

	return &MonthlySummary{
		Year:        year,
		Month:       month,
		PresentDays: presentDays,
		WorkingDays: workingDays,
		AbsentDays:  absentDays,
		LeaveDays:   0,
	}, nil
}

// roundHours converts a duration to hours rounded to 2 decimal places
func roundHours(d time.Duration) float64 {
	return math.Round(d.Seconds()/3600*100) / 100
}
