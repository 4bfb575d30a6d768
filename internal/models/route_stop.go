package models

import (
	"time"

	"gorm.io/gorm"
)

// RouteStop is a manually curated stop on a route.
// Property and customer fields are copies taken when the stop is written.
type RouteStop struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RouteID       string     `gorm:"type:varchar(36);not null;index" json:"route_id"`
	PropertyID    string     `gorm:"type:varchar(64);not null;index" json:"property_id"`
	PropertyName  string     `json:"property_name"`
	CustomerID    *string    `gorm:"type:varchar(64)" json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	PoolID        *string    `gorm:"type:varchar(64)" json:"pool_id"`
	PoolName      string     `json:"pool_name"`
	WaterBodyType string     `gorm:"type:varchar(32)" json:"water_body_type"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	Zip           string     `json:"zip"`
	Notes         string     `json:"notes"`
	SortOrder     int        `gorm:"not null" json:"sort_order"`
	EstimatedTime int        `gorm:"not null" json:"estimated_time"` // minutes
	Frequency     string     `gorm:"type:varchar(20)" json:"frequency"`
	ScheduledDate *time.Time `gorm:"type:date" json:"scheduled_date"`
	IsCoverage    bool       `gorm:"not null" json:"is_coverage"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RouteStop) TableName() string {
	return "route_stops"
}

func (s *RouteStop) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// RouteMove records that a stop shows on another route for one date.
// The stop row itself keeps its original route.
type RouteMove struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StopID           string    `gorm:"type:varchar(36);not null;index" json:"stop_id"`
	OriginalRouteID  string    `gorm:"type:varchar(36);not null" json:"original_route_id"`
	TemporaryRouteID string    `gorm:"type:varchar(36);not null;index" json:"temporary_route_id"`
	MoveDate         time.Time `gorm:"type:date;not null;index" json:"move_date"`
	IsPermanent      bool      `gorm:"not null" json:"is_permanent"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RouteMove) TableName() string {
	return "route_moves"
}

func (m *RouteMove) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// UnscheduledStop is a stop waiting in the pool until it is placed on a route.
type UnscheduledStop struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID    string    `gorm:"type:varchar(64);not null" json:"property_id"`
	PropertyName  string    `json:"property_name"`
	CustomerName  string    `json:"customer_name"`
	Address       string    `json:"address"`
	Notes         string    `json:"notes"`
	EstimatedTime int       `gorm:"not null" json:"estimated_time"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (UnscheduledStop) TableName() string {
	return "unscheduled_stops"
}

func (s *UnscheduledStop) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
