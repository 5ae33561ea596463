package repositories

import (
	"context"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateDeviceID(ctx context.Context, phone, deviceID string) error
}

// AttendanceRepository defines attendance event repository interface.
// Events are append-only; there is no update or delete.
type AttendanceRepository interface {
	Create(ctx context.Context, event *models.AttendanceEvent) error
	GetByUserDayKind(ctx context.Context, phone, dayKey, kind string) (*models.AttendanceEvent, error)
	ListByUser(ctx context.Context, phone string, from, to *time.Time, offset, limit int) ([]*models.AttendanceEvent, int64, error)
	CountDistinctDays(ctx context.Context, phone, kind, fromKey, toKey string) (int64, error)
}

// LeaveRepository defines leave request and balance repository interface
type LeaveRepository interface {
	GetBalance(ctx context.Context, phone string, year int) (*models.LeaveBalance, error)
	CreateBalance(ctx context.Context, balance *models.LeaveBalance) error
	AdjustBalance(ctx context.Context, phone string, year int, leaveType string, balanceDelta, usedDelta float64) error
	ConsumeBalance(ctx context.Context, phone string, year int, leaveType string, days float64) (bool, error)

	CreateRequest(ctx context.Context, request *models.LeaveRequest) error
	GetRequest(ctx context.Context, phone, requestNo string) (*models.LeaveRequest, error)
	GetRequestByNo(ctx context.Context, requestNo string) (*models.LeaveRequest, error)
	UpdateRequest(ctx context.Context, request *models.LeaveRequest) error
	CountOverlapping(ctx context.Context, phone string, start, end time.Time) (int64, error)
	ListByUser(ctx context.Context, phone, status string, offset, limit int) ([]*models.LeaveRequest, int64, error)
	CountByStatus(ctx context.Context, phone, status string) (int64, error)
}
