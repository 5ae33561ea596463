package repositories

import (
	"context"
	"fmt"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// leaveRepository implements LeaveRepository interface
type leaveRepository struct {
	db *gorm.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *gorm.DB) LeaveRepository {
	return &leaveRepository{db: db}
}

// GetBalance gets the balance row for a user and year
func (r *leaveRepository) GetBalance(ctx context.Context, phone string, year int) (*models.LeaveBalance, error) {
	var balance models.LeaveBalance
	err := r.db.WithContext(ctx).
		Where("user_phone = ? AND year = ?", phone, year).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// CreateBalance creates a balance row
func (r *leaveRepository) CreateBalance(ctx context.Context, balance *models.LeaveBalance) error {
	return r.db.WithContext(ctx).Create(balance).Error
}

// AdjustBalance applies atomic increments to a single pool. Positive
// balanceDelta restores remaining balance, negative consumes it; the
// used counter moves by usedDelta independently so remaining + used is
// conserved by construction.
func (r *leaveRepository) AdjustBalance(ctx context.Context, phone string, year int, leaveType string, balanceDelta, usedDelta float64) error {
	balanceCol, usedCol, err := poolColumns(leaveType)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.LeaveBalance{}).
		Where("user_phone = ? AND year = ?", phone, year).
		UpdateColumns(map[string]interface{}{
			balanceCol: gorm.Expr(balanceCol+" + ?", balanceDelta),
			usedCol:    gorm.Expr(usedCol+" + ?", usedDelta),
		}).Error
}

// ConsumeBalance atomically moves days from a pool to its used counter.
// The WHERE guard keeps the update conditional on sufficient remaining
// balance, so two concurrent approvals cannot both pass a pre-check and
// drive the pool negative; a false return means the guard rejected it.
func (r *leaveRepository) ConsumeBalance(ctx context.Context, phone string, year int, leaveType string, days float64) (bool, error) {
	balanceCol, usedCol, err := poolColumns(leaveType)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.LeaveBalance{}).
		Where("user_phone = ? AND year = ?", phone, year).
		Where(balanceCol+" >= ?", days).
		UpdateColumns(map[string]interface{}{
			balanceCol: gorm.Expr(balanceCol+" - ?", days),
			usedCol:    gorm.Expr(usedCol+" + ?", days),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func poolColumns(leaveType string) (balanceCol, usedCol string, err error) {
	switch leaveType {
	case "casual":
		return "casual_balance", "used_casual", nil
	case "sick":
		return "sick_balance", "used_sick", nil
	case "earned":
		return "earned_balance", "used_earned", nil
	default:
		return "", "", fmt.Errorf("unknown leave type: %s", leaveType)
	}
}

// CreateRequest inserts a leave request
func (r *leaveRepository) CreateRequest(ctx context.Context, request *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequest gets a request owned by the given user
func (r *leaveRepository) GetRequest(ctx context.Context, phone, requestNo string) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("request_no = ? AND user_phone = ?", requestNo, phone).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetRequestByNo gets a request regardless of owner (approval flow)
func (r *leaveRepository) GetRequestByNo(ctx context.Context, requestNo string) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("request_no = ?", requestNo).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequest saves a modified request
func (r *leaveRepository) UpdateRequest(ctx context.Context, request *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// CountOverlapping counts non-cancelled, non-rejected requests whose
// inclusive date range intersects [start, end]
func (r *leaveRepository) CountOverlapping(ctx context.Context, phone string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Where("user_phone = ? AND status IN ?", phone, []string{"pending", "approved"}).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&count).Error
	return count, err
}

// ListByUser lists requests newest first with an optional status filter
func (r *leaveRepository) ListByUser(ctx context.Context, phone, status string, offset, limit int) ([]*models.LeaveRequest, int64, error) {
	var requests []*models.LeaveRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LeaveRequest{}).Where("user_phone = ?", phone)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("applied_at DESC").Offset(offset).Limit(limit).Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// CountByStatus counts a user's requests in a given status
func (r *leaveRepository) CountByStatus(ctx context.Context, phone, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Where("user_phone = ? AND status = ?", phone, status).
		Count(&count).Error
	return count, err
}
