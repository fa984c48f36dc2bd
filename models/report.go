package models

import (
	"strings"
	"time"
)

// ReportStatus represents the lifecycle state of a citizen report
type ReportStatus string

// Predefined ReportStatus values
const (
	StatusPending    ReportStatus = "PENDING"
	StatusInProgress ReportStatus = "IN_PROGRESS"
	StatusResolved   ReportStatus = "RESOLVED"
	StatusClosed     ReportStatus = "CLOSED"
)

// ValidStatuses returns all valid ReportStatus values
func ValidStatuses() []ReportStatus {
	return []ReportStatus{
		StatusPending,
		StatusInProgress,
		StatusResolved,
		StatusClosed,
	}
}

// IsValid checks if the ReportStatus value is one of the predefined constants
func (s ReportStatus) IsValid() bool {
	for _, validStatus := range ValidStatuses() {
		if s == validStatus {
			return true
		}
	}
	return false
}

// String returns the string representation of the ReportStatus
func (s ReportStatus) String() string {
	return string(s)
}

// ReportCategory represents the standardized categories of citizen reports
type ReportCategory string

// Predefined ReportCategory values
const (
	CategoryInfrastructure ReportCategory = "INFRASTRUCTURE"
	CategorySecurity       ReportCategory = "SECURITY"
	CategoryEnvironment    ReportCategory = "ENVIRONMENT"
	CategoryTransport      ReportCategory = "TRANSPORT"
	CategoryOther          ReportCategory = "OTHER"
)

// ValidCategories returns all valid ReportCategory values
func ValidCategories() []ReportCategory {
	return []ReportCategory{
		CategoryInfrastructure,
		CategorySecurity,
		CategoryEnvironment,
		CategoryTransport,
		CategoryOther,
	}
}

// IsValid checks if the ReportCategory value is one of the predefined constants
func (c ReportCategory) IsValid() bool {
	for _, validCategory := range ValidCategories() {
		if c == validCategory {
			return true
		}
	}
	return false
}

// String returns the string representation of the ReportCategory
func (c ReportCategory) String() string {
	return string(c)
}

// Report represents a citizen incident report. An ID of zero means the remote
// service has not assigned one yet; reports created offline carry a locally
// generated ID until their queued create is replayed.
type Report struct {
	ID             int              `json:"id,omitempty"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       ReportCategory   `json:"category"`
	Location       string           `json:"location"`
	Latitude       *float64         `json:"latitude,omitempty"`
	Longitude      *float64         `json:"longitude,omitempty"`
	Status         ReportStatus     `json:"status"`
	CreatedAt      time.Time        `json:"createdAt,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt,omitempty"`
	UserID         int              `json:"userId,omitempty"`
	UserName       string           `json:"userName,omitempty"`
	Photos         []string         `json:"photos,omitempty"`
	IsOfflineEntry bool             `json:"isOfflineEntry,omitempty"`
	PendingAction  QueuedActionType `json:"pendingAction,omitempty"`
}

// ReportFilter narrows report listings. Zero-valued fields are ignored. The
// same predicate drives remote query construction and local cache filtering.
type ReportFilter struct {
	Category  ReportCategory `json:"category,omitempty"`
	Status    ReportStatus   `json:"status,omitempty"`
	Location  string         `json:"location,omitempty"`
	StartDate *time.Time     `json:"startDate,omitempty"`
	EndDate   *time.Time     `json:"endDate,omitempty"`
}

// IsZero reports whether no filter field is set
func (f ReportFilter) IsZero() bool {
	return f.Category == "" && f.Status == "" && f.Location == "" &&
		f.StartDate == nil && f.EndDate == nil
}

// Matches reports whether the given report satisfies the filter: exact match
// on category and status, case-insensitive substring on location, and an
// inclusive date range on the creation timestamp.
func (f ReportFilter) Matches(r Report) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.StartDate != nil && !r.CreatedAt.IsZero() && r.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !r.CreatedAt.IsZero() && r.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}
