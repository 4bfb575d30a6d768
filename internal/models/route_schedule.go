package models

import (
	"pool-route-scheduler/pkg/weekdays"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SeasonSummer = "summer"
	SeasonWinter = "winter"
)

// RouteSchedule holds the recurring visit pattern of one property.
type RouteSchedule struct {
	ID              string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID      string                      `gorm:"type:varchar(64);not null;uniqueIndex" json:"property_id"`
	ActiveSeason    string                      `gorm:"type:varchar(10);not null" json:"active_season"`
	SummerVisitDays datatypes.JSONSlice[string] `json:"summer_visit_days"`
	WinterVisitDays datatypes.JSONSlice[string] `json:"winter_visit_days"`
	VisitDays       datatypes.JSONSlice[string] `json:"visit_days,omitempty"` // legacy, pre-season schedules
	IsActive        bool                        `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RouteSchedule) TableName() string {
	return "route_schedules"
}

func (s *RouteSchedule) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// ActiveDays returns the visit-day set of the active season.
// Summer falls back to the legacy VisitDays when no summer set was saved.
func (s *RouteSchedule) ActiveDays() []string {
	if s.ActiveSeason == SeasonWinter {
		return s.WinterVisitDays
	}
	if len(s.SummerVisitDays) > 0 {
		return s.SummerVisitDays
	}
	return s.VisitDays
}

// IsValid checks the season and every stored day name.
func (s *RouteSchedule) IsValid() bool {
	if s.PropertyID == "" {
		return false
	}
	if s.ActiveSeason != SeasonSummer && s.ActiveSeason != SeasonWinter {
		return false
	}
	for _, set := range [][]string{s.SummerVisitDays, s.WinterVisitDays, s.VisitDays} {
		if _, err := weekdays.Normalize(set); err != nil {
			return false
		}
	}
	return true
}
