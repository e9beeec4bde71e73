package report

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle tag of a report
type Status string

const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusDismissed     Status = "dismissed"
)

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInvestigating, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Location is where the reported activity was observed
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Report is a citizen report of illegal mining activity
type Report struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    *Location  `json:"location"`
	Images      []string   `json:"images"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
}
