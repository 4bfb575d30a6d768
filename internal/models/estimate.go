package models

import (
	"time"

	"gorm.io/gorm"
)

// Estimate (repair job) statuses
const (
	EstimateStatusDraft     = "draft"
	EstimateStatusApproved  = "approved"
	EstimateStatusScheduled = "scheduled"
	EstimateStatusCompleted = "completed"
)

// Deadline units
const (
	DeadlineHours = "hours"
	DeadlineDays  = "days"
)

// ReturnedToQueue is the assignee name recorded when a job goes back to the queue.
const ReturnedToQueue = "Returned to Queue"

// Estimate is a repair job that can be assigned to a technician with a completion deadline.
type Estimate struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EstimateNumber     *string    `gorm:"type:varchar(32)" json:"estimate_number"`
	PropertyID         string     `gorm:"type:varchar(64);index" json:"property_id"`
	PropertyName       string     `json:"property_name"`
	Status             string     `gorm:"type:varchar(20);not null;index" json:"status"`
	RepairTechID       *string    `gorm:"type:varchar(64);index" json:"repair_tech_id"`
	RepairTechName     *string    `json:"repair_tech_name"`
	ScheduledDate      *time.Time `gorm:"type:date" json:"scheduled_date"`
	ScheduledAt        *time.Time `json:"scheduled_at"`
	DeadlineAt         *time.Time `gorm:"index" json:"deadline_at"`
	DeadlineValue      *int       `json:"deadline_value"`
	DeadlineUnit       string     `gorm:"type:varchar(10)" json:"deadline_unit"`
	AutoReturnedAt     *time.Time `json:"auto_returned_at"`
	AutoReturnedReason *string    `json:"auto_returned_reason"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Estimate) TableName() string {
	return "estimates"
}

func (e *Estimate) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// Label returns the estimate number, or a short id when it has none.
func (e *Estimate) Label() string {
	if e.EstimateNumber != nil && *e.EstimateNumber != "" {
		return "EST#" + *e.EstimateNumber
	}
	if len(e.ID) > 8 {
		return "EST#" + e.ID[:8]
	}
	return "EST#" + e.ID
}

// IsOverdue reports whether the job is scheduled, past its deadline and not yet auto-returned.
func (e *Estimate) IsOverdue(now time.Time) bool {
	return e.Status == EstimateStatusScheduled &&
		e.DeadlineAt != nil &&
		e.DeadlineAt.Before(now) &&
		e.AutoReturnedAt == nil
}

// JobReassignment is the audit record of a job changing hands.
// A nil NewTechID means the job went back to the unassigned queue.
type JobReassignment struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	JobID            string    `gorm:"type:varchar(36);not null;index" json:"job_id"`
	OriginalTechID   *string   `gorm:"type:varchar(64)" json:"original_tech_id"`
	OriginalTechName *string   `json:"original_tech_name"`
	NewTechID        *string   `gorm:"type:varchar(64)" json:"new_tech_id"`
	NewTechName      string    `json:"new_tech_name"`
	Reason           string    `json:"reason"`
	ReassignedAt     time.Time `gorm:"not null" json:"reassigned_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (JobReassignment) TableName() string {
	return "job_reassignments"
}

func (r *JobReassignment) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
