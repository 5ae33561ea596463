package domain

// Role represents a user role in the system
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// EventKind represents the type of an attendance event
type EventKind string

const (
	EventCheckIn  EventKind = "check-in"
	EventCheckOut EventKind = "check-out"
)

// WorkStatus classifies where the employee is working from on check-in
type WorkStatus string

const (
	WorkStatusOffice WorkStatus = "office"
	WorkStatusSite   WorkStatus = "site"
	WorkStatusRemote WorkStatus = "remote"
)

func (w WorkStatus) IsValid() bool {
	switch w {
	case WorkStatusOffice, WorkStatusSite, WorkStatusRemote:
		return true
	}
	return false
}

// DayStatus is the derived per-day attendance status
type DayStatus string

const (
	DayStatusNotStarted DayStatus = "not-started"
	DayStatusCheckedIn  DayStatus = "checked-in"
	DayStatusCheckedOut DayStatus = "checked-out"
)

// LeaveType is one of the three paid leave pools
type LeaveType string

const (
	LeaveCasual LeaveType = "casual"
	LeaveSick   LeaveType = "sick"
	LeaveEarned LeaveType = "earned"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveCasual, LeaveSick, LeaveEarned:
		return true
	}
	return false
}

// LeaveStatus is the lifecycle state of a leave request
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

func (s LeaveStatus) IsValid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected, LeaveCancelled:
		return true
	}
	return false
}

// IsCancellable reports whether a request in this state may still be cancelled
func (s LeaveStatus) IsCancellable() bool {
	return s == LeavePending || s == LeaveApproved
}

// Location is a geolocation captured with an attendance event.
// Coordinates are stored as given; no geofence validation is performed.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   *string  `json:"address,omitempty"`
}

// Valid checks the coordinate ranges
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}
