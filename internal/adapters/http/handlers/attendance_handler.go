package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"geostaff-backend/internal/core/services"
	"geostaff-backend/internal/pkg/pagination"
	"geostaff-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AttendanceHandler handles check-in/check-out endpoints
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// CheckIn records today's check-in
// @Summary Check in
// @Description Record a check-in with geolocation and device id
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CheckInInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.DeviceID == "" {
		return response.BadRequest(c, "Device id is required")
	}

	event, err := h.attendanceService.CheckIn(c.Context(), userPhone, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateCheckIn):
			return response.Conflict(c, "Already checked in today")
		case errors.Is(err, services.ErrInvalidLocation), errors.Is(err, services.ErrInvalidWorkStatus):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to process check-in")
		}
	}

	return response.Success(c, "Checked in successfully", fiber.Map{
		"attendance": event,
	})
}

// CheckOut records today's check-out
// @Summary Check out
// @Description Record a check-out and compute hours worked
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /attendance/check-out [post]
func (h *AttendanceHandler) CheckOut(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CheckOutInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.DeviceID == "" {
		return response.BadRequest(c, "Device id is required")
	}

	event, hours, err := h.attendanceService.CheckOut(c.Context(), userPhone, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateCheckOut):
			return response.Conflict(c, "Already checked out today")
		case errors.Is(err, services.ErrNoCheckIn):
			return response.BadRequest(c, "No check-in found for today. Please check in first.")
		case errors.Is(err, services.ErrDeviceMismatch):
			return response.BadRequest(c, "Device mismatch. Please use the same device for check-out.")
		case errors.Is(err, services.ErrInvalidLocation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to process check-out")
		}
	}

	return response.Success(c, fmt.Sprintf("Checked out successfully. Hours worked: %.2f", hours), fiber.Map{
		"attendance":   event,
		"hours_worked": hours,
	})
}

// Today returns today's attendance status
// @Summary Today's attendance
// @Description Return today's check-in/check-out and derived status
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	today, err := h.attendanceService.Today(c.Context(), userPhone)
	if err != nil {
		return response.InternalServerError(c, "Failed to retrieve attendance data")
	}

	return response.Success(c, "", today)
}

// History returns paginated attendance history
// @Summary Attendance history
// @Description List attendance events newest first, optionally within a date range
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	events, total, err := h.attendanceService.History(c.Context(), userPhone, from, to, params.Offset, params.PageSize)
	if err != nil {
		return response.InternalServerError(c, "Failed to retrieve attendance history")
	}

	return response.Success(c, "", fiber.Map{
		"records": events,
		"meta":    pagination.GetMeta(params, total),
	})
}

// MonthlySummary returns the month aggregation
// @Summary Monthly summary
// @Description Present, working, and absent day counts for a month
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /attendance/summary [get]
func (h *AttendanceHandler) MonthlySummary(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	now := time.Now()
	year, _ := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if month < 1 || month > 12 {
		return response.BadRequest(c, "Month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return response.BadRequest(c, "Invalid year")
	}

	summary, err := h.attendanceService.MonthlySummary(c.Context(), userPhone, year, month)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute monthly summary")
	}

	return response.Success(c, "", summary)
}

// parseDateRange converts optional YYYY-MM-DD bounds into an inclusive
// [from, to] timestamp window; to covers the whole end day
func parseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, errors.New("from must be formatted as YYYY-MM-DD")
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, errors.New("to must be formatted as YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	return from, to, nil
}
