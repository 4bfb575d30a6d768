package models

import (
	"time"

	"gorm.io/gorm"
)

// Occurrence statuses
const (
	OccurrenceUnscheduled = "unscheduled"
	OccurrenceScheduled   = "scheduled"
)

// ServiceOccurrence is one expected visit to a property on a calendar date.
type ServiceOccurrence struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID       string    `gorm:"type:varchar(64);not null;index:idx_occurrence_property_date" json:"property_id"`
	Date             time.Time `gorm:"type:date;not null;index:idx_occurrence_property_date;index" json:"date"`
	Status           string    `gorm:"type:varchar(20);not null;index" json:"status"`
	RouteID          *string   `gorm:"type:varchar(36);index" json:"route_id"`
	TechnicianID     *string   `gorm:"type:varchar(64)" json:"technician_id"`
	SourceScheduleID *string   `gorm:"type:varchar(36);index" json:"source_schedule_id"`
	IsAutoGenerated  bool      `gorm:"not null" json:"is_auto_generated"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ServiceOccurrence) TableName() string {
	return "service_occurrences"
}

func (o *ServiceOccurrence) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// IsScheduled reports whether the occurrence sits on a route.
func (o *ServiceOccurrence) IsScheduled() bool {
	return o.Status == OccurrenceScheduled && o.RouteID != nil
}
