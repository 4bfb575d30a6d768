package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultRouteColor is used for routes created on demand.
const DefaultRouteColor = "#0891b2"

// Route is a technician's container of ordered stops.
// Recurring routes are keyed by DayOfWeek (time.Weekday numbering); dated routes also carry Date.
type Route struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	DayOfWeek      int        `gorm:"not null;index;check:day_of_week >= 0 AND day_of_week <= 6" json:"day_of_week"`
	TechnicianID   *string    `gorm:"type:varchar(64);index" json:"technician_id"`
	TechnicianName *string    `json:"technician_name"`
	Color          string     `gorm:"type:varchar(16)" json:"color"`
	Date           *time.Time `gorm:"type:date;index" json:"date"`
	SortOrder      int        `gorm:"not null" json:"sort_order"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Route) TableName() string {
	return "routes"
}

func (r *Route) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	if r.Color == "" {
		r.Color = DefaultRouteColor
	}
	return nil
}

// IsDated reports whether the route is bound to a calendar date.
func (r *Route) IsDated() bool {
	return r.Date != nil
}

// IsValid checks the day-of-week range and name.
func (r *Route) IsValid() bool {
	return r.Name != "" && r.DayOfWeek >= 0 && r.DayOfWeek <= 6
}
