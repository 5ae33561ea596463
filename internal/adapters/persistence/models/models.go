package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User represents the users table. The normalized phone number is the
// business key; accounts are created implicitly on first OTP issuance.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Phone      string    `gorm:"uniqueIndex;size:15;not null" json:"phone"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Role       string    `gorm:"size:20;not null;default:'employee'" json:"role"`
	DeviceID   *string   `gorm:"size:100" json:"device_id,omitempty"`
	// No default tag: gorm omits a zero-valued field that carries one,
	// so an account created with IsActive=false would be stored active
	IsActive   bool      `gorm:"not null" json:"is_active"`
	LocationID *string   `gorm:"size:50" json:"location_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	LocationID *string   `json:"location_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		Phone:      u.Phone,
		Name:       u.Name,
		Role:       u.Role,
		IsActive:   u.IsActive,
		LocationID: u.LocationID,
		CreatedAt:  u.CreatedAt,
	}
}

// ============================================================
// Attendance
// ============================================================

// AttendanceEvent is an immutable check-in/check-out record. Timestamps
// are stored in UTC; DayKey is the local calendar date the event belongs
// to, computed with the configured day-boundary offset. The composite
// unique index makes "at most one check-in and one check-out per user
// per local day" a storage-level guarantee, so two concurrent calls
// cannot both pass validation and insert.
type AttendanceEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserPhone  string    `gorm:"size:15;not null;index;uniqueIndex:idx_attendance_user_day_kind" json:"user_id"`
	Kind       string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_day_kind" json:"type"`
	DayKey     string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_day_kind" json:"-"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Address    *string   `gorm:"size:255" json:"address,omitempty"`
	DeviceID   string    `gorm:"size:100;not null" json:"device_id"`
	WorkStatus string    `gorm:"size:10;not null" json:"work_status"`
	PhotoURL   *string   `gorm:"size:255" json:"photo_url,omitempty"`
	Notes      *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

// ============================================================
// Leave
// ============================================================

// LeaveBalance tracks the three paid-leave pools per user per year.
// remaining + used is conserved per pool across apply/cancel cycles.
type LeaveBalance struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserPhone     string    `gorm:"size:15;not null;uniqueIndex:idx_balance_user_year" json:"user_id"`
	Year          int       `gorm:"not null;uniqueIndex:idx_balance_user_year" json:"year"`
	CasualBalance float64   `gorm:"not null;default:10" json:"casual_balance"`
	SickBalance   float64   `gorm:"not null;default:10" json:"sick_balance"`
	EarnedBalance float64   `gorm:"not null;default:10" json:"earned_balance"`
	TotalBalance  float64   `gorm:"not null;default:30" json:"total_balance"`
	UsedCasual    float64   `gorm:"not null;default:0" json:"used_casual"`
	UsedSick      float64   `gorm:"not null;default:0" json:"used_sick"`
	UsedEarned    float64   `gorm:"not null;default:0" json:"used_earned"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// Remaining returns the remaining balance for a pool
func (b *LeaveBalance) Remaining(leaveType string) float64 {
	switch leaveType {
	case "sick":
		return b.SickBalance
	case "earned":
		return b.EarnedBalance
	default:
		return b.CasualBalance
	}
}

// TotalUsed is the sum of the used counters across pools
func (b *LeaveBalance) TotalUsed() float64 {
	return b.UsedCasual + b.UsedSick + b.UsedEarned
}

// LeaveRequest is a request against the yearly balance. Dates are
// inclusive calendar days stored at UTC midnight.
type LeaveRequest struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	RequestNo       string     `gorm:"size:36;uniqueIndex;not null" json:"id"`
	UserPhone       string     `gorm:"size:15;not null;index" json:"user_id"`
	LeaveType       string     `gorm:"size:10;not null" json:"leave_type"`
	StartDate       time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time  `gorm:"type:date;not null" json:"end_date"`
	Days            float64    `gorm:"not null" json:"days"`
	Reason          string     `gorm:"type:text;not null" json:"reason"`
	Status          string     `gorm:"size:10;not null;default:'pending';index" json:"status"`
	AppliedAt       time.Time  `gorm:"not null" json:"applied_at"`
	ApprovedBy      *string    `gorm:"size:15" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all application tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&AttendanceEvent{},
		&LeaveBalance{},
		&LeaveRequest{},
	)
}
