package repositories

import (
	"context"
	"time"

	"geostaff-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// attendanceRepository implements AttendanceRepository interface
type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create appends an attendance event. The unique index on
// (user_phone, day_key, kind) rejects a second event of the same kind
// for the same local day, so the duplicate guard holds under
// concurrent calls as well.
func (r *attendanceRepository) Create(ctx context.Context, event *models.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetByUserDayKind finds the event of the given kind for a local day
func (r *attendanceRepository) GetByUserDayKind(ctx context.Context, phone, dayKey, kind string) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("user_phone = ? AND day_key = ? AND kind = ?", phone, dayKey, kind).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByUser lists events newest first with pagination and an optional
// timestamp range
func (r *attendanceRepository) ListByUser(ctx context.Context, phone string, from, to *time.Time, offset, limit int) ([]*models.AttendanceEvent, int64, error) {
	var events []*models.AttendanceEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AttendanceEvent{}).Where("user_phone = ?", phone)
	if from != nil {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil {
		query = query.Where("timestamp < ?", *to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// CountDistinctDays counts the distinct local days that carry an event
// of the given kind within [fromKey, toKey]. Day keys sort
// lexicographically, so BETWEEN works on the string form.
func (r *attendanceRepository) CountDistinctDays(ctx context.Context, phone, kind, fromKey, toKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceEvent{}).
		Where("user_phone = ? AND kind = ? AND day_key BETWEEN ? AND ?", phone, kind, fromKey, toKey).
		Distinct("day_key").
		Count(&count).Error
	return count, err
}
