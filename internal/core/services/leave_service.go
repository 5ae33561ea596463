package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Leave errors
var (
	ErrInvalidRange        = errors.New("end date must not be before start date")
	ErrZeroDuration        = errors.New("leave duration must be at least 1 day")
	ErrInvalidLeaveType    = errors.New("invalid leave type")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlappingRequest  = errors.New("leave dates overlap with an existing request")
	ErrLeaveNotFound       = errors.New("leave request not found")
	ErrNotCancellable      = errors.New("leave request cannot be cancelled")
	ErrNotPending          = errors.New("leave request is not pending")
	ErrInvalidLeaveStatus  = errors.New("invalid leave status")
)

// Default yearly pool sizes
const (
	defaultPoolBalance = 10.0
	defaultTotal       = 30.0
)

// LeaveService maintains the per-user/per-year balance and the request
// ledger. Applying checks sufficiency without consuming the pool; the
// approval step performs the decrement and cancellation of an approved
// request restores it, so remaining + used is conserved per pool.
// LeaveService validates and records leave requests against per-year
// balances. Check-then-insert sequences are serialized per user with a
// keyed mutex, and the pool decrement itself is a conditional update,
// so concurrent applies cannot slip overlapping requests past the gate
// and concurrent approvals cannot drive a pool negative.
type LeaveService struct {
	leaveRepo repositories.LeaveRepository
	locks     sync.Map
	now       func() time.Time
}

// lockUser returns the mutex serializing one user's leave mutations
func (s *LeaveService) lockUser(phone string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(phone, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// NewLeaveService creates a new leave service
func NewLeaveService(leaveRepo repositories.LeaveRepository) *LeaveService {
	return &LeaveService{
		leaveRepo: leaveRepo,
		now:       time.Now,
	}
}

// ApplyInput is the payload for a leave application
type ApplyInput struct {
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// BalanceResponse reports the three pools for a year
type BalanceResponse struct {
	CasualBalance float64 `json:"casual_balance"`
	SickBalance   float64 `json:"sick_balance"`
	EarnedBalance float64 `json:"earned_balance"`
	TotalBalance  float64 `json:"total_balance"`
	UsedCasual    float64 `json:"used_casual"`
	UsedSick      float64 `json:"used_sick"`
	UsedEarned    float64 `json:"used_earned"`
	TotalUsed     float64 `json:"total_used"`
	Year          int     `json:"year"`
}

// ComputeLeaveDays counts the weekdays in the inclusive range
// [start, end]. Weekend days cost nothing.
func ComputeLeaveDays(start, end time.Time) (float64, error) {
	start = toDate(start)
	end = toDate(end)

	if end.Before(start) {
		return 0, ErrInvalidRange
	}

	days := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days++
		}
	}
	return days, nil
}

// Apply validates and records a pending leave request. The balance is
// checked for sufficiency but not decremented here; approval consumes it.
func (s *LeaveService) Apply(ctx context.Context, userPhone string, input *ApplyInput) (*models.LeaveRequest, error) {
	if !domain.LeaveType(input.LeaveType).IsValid() {
		return nil, ErrInvalidLeaveType
	}

	days, err := ComputeLeaveDays(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, ErrZeroDuration
	}

	mu := s.lockUser(userPhone)
	mu.Lock()
	defer mu.Unlock()

	// Balances are kept per processing year, not per request year
	year := s.now().UTC().Year()
	balance, err := s.getOrCreateBalance(ctx, userPhone, year)
	if err != nil {
		return nil, err
	}

	if balance.Remaining(input.LeaveType) < days {
		return nil, ErrInsufficientBalance
	}

	start := toDate(input.StartDate)
	end := toDate(input.EndDate)

	overlapping, err := s.leaveRepo.CountOverlapping(ctx, userPhone, start, end)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrOverlappingRequest
	}

	request := &models.LeaveRequest{
		RequestNo: uuid.New().String(),
		UserPhone: userPhone,
		LeaveType: input.LeaveType,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Reason:    input.Reason,
		Status:    string(domain.LeavePending),
		AppliedAt: s.now().UTC(),
	}

	if err := s.leaveRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	log.Printf("✅ Leave request created for user %s: %.0f days (%s)", userPhone, days, input.LeaveType)
	return request, nil
}

// Cancel cancels a pending or approved request owned by the user. A
// cancelled approval restores the pool it had consumed.
func (s *LeaveService) Cancel(ctx context.Context, userPhone, requestNo string) (*models.LeaveRequest, error) {
	mu := s.lockUser(userPhone)
	mu.Lock()
	defer mu.Unlock()

	request, err := s.leaveRepo.GetRequest(ctx, userPhone, requestNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}

	status := domain.LeaveStatus(request.Status)
	if !status.IsCancellable() {
		return nil, ErrNotCancellable
	}

	if status == domain.LeaveApproved {
		year := s.now().UTC().Year()
		if err := s.leaveRepo.AdjustBalance(ctx, userPhone, year, request.LeaveType, request.Days, -request.Days); err != nil {
			return nil, err
		}
	}

	cancelledAt := s.now().UTC()
	request.Status = string(domain.LeaveCancelled)
	request.CancelledAt = &cancelledAt

	if err := s.leaveRepo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	log.Printf("✅ Leave request %s cancelled by user %s", requestNo, userPhone)
	return request, nil
}

// Approve approves a pending request and consumes the pool. The balance
// is re-checked at approval time; the pool may have shrunk since apply.
func (s *LeaveService) Approve(ctx context.Context, approverPhone, requestNo string) (*models.LeaveRequest, error) {
	request, err := s.leaveRepo.GetRequestByNo(ctx, requestNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}

	if domain.LeaveStatus(request.Status) != domain.LeavePending {
		return nil, ErrNotPending
	}

	mu := s.lockUser(request.UserPhone)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent approval or cancellation may
	// have moved the request out of pending after the first read
	request, err = s.leaveRepo.GetRequestByNo(ctx, requestNo)
	if err != nil {
		return nil, err
	}
	if domain.LeaveStatus(request.Status) != domain.LeavePending {
		return nil, ErrNotPending
	}

	year := s.now().UTC().Year()
	if _, err := s.getOrCreateBalance(ctx, request.UserPhone, year); err != nil {
		return nil, err
	}

	// The decrement is conditional on sufficient remaining balance; the
	// pool may have shrunk since the request was applied.
	consumed, err := s.leaveRepo.ConsumeBalance(ctx, request.UserPhone, year, request.LeaveType, request.Days)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInsufficientBalance
	}

	approvedAt := s.now().UTC()
	request.Status = string(domain.LeaveApproved)
	request.ApprovedBy = &approverPhone
	request.ApprovedAt = &approvedAt

	if err := s.leaveRepo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	log.Printf("✅ Leave request %s approved by %s", requestNo, approverPhone)
	return request, nil
}

// Reject rejects a pending request with a reason. The pool is untouched.
func (s *LeaveService) Reject(ctx context.Context, approverPhone, requestNo, reason string) (*models.LeaveRequest, error) {
	request, err := s.leaveRepo.GetRequestByNo(ctx, requestNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}

	if domain.LeaveStatus(request.Status) != domain.LeavePending {
		return nil, ErrNotPending
	}

	mu := s.lockUser(request.UserPhone)
	mu.Lock()
	defer mu.Unlock()

	request, err = s.leaveRepo.GetRequestByNo(ctx, requestNo)
	if err != nil {
		return nil, err
	}
	if domain.LeaveStatus(request.Status) != domain.LeavePending {
		return nil, ErrNotPending
	}

	rejectedAt := s.now().UTC()
	request.Status = string(domain.LeaveRejected)
	request.ApprovedBy = &approverPhone
	request.ApprovedAt = &rejectedAt
	request.RejectionReason = &reason

	if err := s.leaveRepo.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	log.Printf("✅ Leave request %s rejected by %s", requestNo, approverPhone)
	return request, nil
}

// Balance returns the pools for a year, creating the default balance
// lazily on first access
func (s *LeaveService) Balance(ctx context.Context, userPhone string, year int) (*BalanceResponse, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}

	balance, err := s.getOrCreateBalance(ctx, userPhone, year)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{
		CasualBalance: balance.CasualBalance,
		SickBalance:   balance.SickBalance,
		EarnedBalance: balance.EarnedBalance,
		TotalBalance:  balance.TotalBalance,
		UsedCasual:    balance.UsedCasual,
		UsedSick:      balance.UsedSick,
		UsedEarned:    balance.UsedEarned,
		TotalUsed:     balance.TotalUsed(),
		Year:          balance.Year,
	}, nil
}

// History lists a user's requests newest first with an optional status
// filter
func (s *LeaveService) History(ctx context.Context, userPhone, status string, offset, limit int) ([]*models.LeaveRequest, int64, error) {
	if status != "" && !domain.LeaveStatus(status).IsValid() {
		return nil, 0, ErrInvalidLeaveStatus
	}
	return s.leaveRepo.ListByUser(ctx, userPhone, status, offset, limit)
}

// PendingCount counts a user's pending requests
func (s *LeaveService) PendingCount(ctx context.Context, userPhone string) (int64, error) {
	return s.leaveRepo.CountByStatus(ctx, userPhone, string(domain.LeavePending))
}

func (s *LeaveService) getOrCreateBalance(ctx context.Context, userPhone string, year int) (*models.LeaveBalance, error) {
	balance, err := s.leaveRepo.GetBalance(ctx, userPhone, year)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	balance = &models.LeaveBalance{
		UserPhone:     userPhone,
		Year:          year,
		CasualBalance: defaultPoolBalance,
		SickBalance:   defaultPoolBalance,
		EarnedBalance: defaultPoolBalance,
		TotalBalance:  defaultTotal,
	}
	if err := s.leaveRepo.CreateBalance(ctx, balance); err != nil {
		// Lost a creation race; the row exists now
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.leaveRepo.GetBalance(ctx, userPhone, year)
		}
		return nil, err
	}
	return balance, nil
}

// toDate truncates an instant to its UTC calendar date
func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
