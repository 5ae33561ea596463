package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"geostaff-backend/internal/core/services"
	"geostaff-backend/internal/pkg/pagination"
	"geostaff-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LeaveHandler handles leave request and balance endpoints
type LeaveHandler struct {
	leaveService *services.LeaveService
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(leaveService *services.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

// ApplyLeaveRequest is the request body for a leave application
type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// RejectLeaveRequest is the request body for a rejection
type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

// Apply submits a leave application
// @Summary Apply for leave
// @Description Validate and record a pending leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /leave/apply [post]
func (h *LeaveHandler) Apply(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ApplyLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return response.BadRequest(c, "Reason is required")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return response.BadRequest(c, "start_date must be formatted as YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return response.BadRequest(c, "end_date must be formatted as YYYY-MM-DD")
	}

	request, err := h.leaveService.Apply(c.Context(), userPhone, &services.ApplyInput{
		LeaveType: req.LeaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidLeaveType),
			errors.Is(err, services.ErrInvalidRange),
			errors.Is(err, services.ErrZeroDuration):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrInsufficientBalance):
			return response.BadRequest(c, "Insufficient "+req.LeaveType+" leave balance")
		case errors.Is(err, services.ErrOverlappingRequest):
			return response.Conflict(c, "Leave dates overlap with existing leave request")
		default:
			return response.InternalServerError(c, "Failed to submit leave request")
		}
	}

	return response.Success(c, fmt.Sprintf("Leave request submitted successfully for %.0f days", request.Days), fiber.Map{
		"request_id": request.RequestNo,
		"days":       request.Days,
	})
}

// Cancel cancels the caller's pending or approved request
// @Summary Cancel leave request
// @Description Cancel a pending or approved request, restoring the pool if approved
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /leave/cancel/{id} [post]
func (h *LeaveHandler) Cancel(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	requestNo := c.Params("id")

	request, err := h.leaveService.Cancel(c.Context(), userPhone, requestNo)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeaveNotFound):
			return response.NotFound(c, "Leave request not found")
		case errors.Is(err, services.ErrNotCancellable):
			return response.BadRequest(c, "Leave request cannot be cancelled in its current status")
		default:
			return response.InternalServerError(c, "Failed to cancel leave request")
		}
	}

	return response.Success(c, "Leave request cancelled successfully", fiber.Map{
		"request": request,
	})
}

// Approve approves a pending request (manager/admin)
// @Summary Approve leave request
// @Description Approve a pending request and consume the pool
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /leave/approve/{id} [post]
func (h *LeaveHandler) Approve(c *fiber.Ctx) error {
	approverPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	requestNo := c.Params("id")

	request, err := h.leaveService.Approve(c.Context(), approverPhone, requestNo)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeaveNotFound):
			return response.NotFound(c, "Leave request not found")
		case errors.Is(err, services.ErrNotPending):
			return response.BadRequest(c, "Leave request is not pending")
		case errors.Is(err, services.ErrInsufficientBalance):
			return response.BadRequest(c, "Insufficient leave balance for approval")
		default:
			return response.InternalServerError(c, "Failed to approve leave request")
		}
	}

	return response.Success(c, "Leave request approved", fiber.Map{
		"request": request,
	})
}

// Reject rejects a pending request with a reason (manager/admin)
// @Summary Reject leave request
// @Description Reject a pending request; the pool is untouched
// @Tags Leave
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /leave/reject/{id} [post]
func (h *LeaveHandler) Reject(c *fiber.Ctx) error {
	approverPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	requestNo := c.Params("id")

	var req RejectLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	request, err := h.leaveService.Reject(c.Context(), approverPhone, requestNo, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeaveNotFound):
			return response.NotFound(c, "Leave request not found")
		case errors.Is(err, services.ErrNotPending):
			return response.BadRequest(c, "Leave request is not pending")
		default:
			return response.InternalServerError(c, "Failed to reject leave request")
		}
	}

	return response.Success(c, "Leave request rejected", fiber.Map{
		"request": request,
	})
}

// Balance returns the pools for a year
// @Summary Leave balance
// @Description Return the yearly pools, creating defaults on first access
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /leave/balance [get]
func (h *LeaveHandler) Balance(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	year, _ := strconv.Atoi(c.Query("year", "0"))

	balance, err := h.leaveService.Balance(c.Context(), userPhone, year)
	if err != nil {
		return response.InternalServerError(c, "Failed to retrieve leave balance")
	}

	return response.Success(c, "", balance)
}

// History returns paginated leave history
// @Summary Leave history
// @Description List leave requests newest first with an optional status filter
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /leave/history [get]
func (h *LeaveHandler) History(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	status := c.Query("status")

	requests, total, err := h.leaveService.History(c.Context(), userPhone, status, params.Offset, params.PageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLeaveStatus) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to retrieve leave history")
	}

	return response.Success(c, "", fiber.Map{
		"requests": requests,
		"meta":     pagination.GetMeta(params, total),
	})
}

// PendingCount returns the number of pending requests
// @Summary Pending leave count
// @Tags Leave
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /leave/pending-count [get]
func (h *LeaveHandler) PendingCount(c *fiber.Ctx) error {
	userPhone, ok := c.Locals("phone").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	count, err := h.leaveService.PendingCount(c.Context(), userPhone)
	if err != nil {
		return response.InternalServerError(c, "Failed to get pending count")
	}

	return response.Success(c, "", fiber.Map{
		"pending_count": count,
	})
}
