package models

import (
	"pool-route-scheduler/pkg/weekdays"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Coverage types
const (
	CoverageSingleDay     = "single_day"
	CoverageExtendedCover = "extended_cover"
	CoverageSplitRoute    = "split_route"
)

// Override types
const (
	OverrideReassign = "reassign"
	OverrideSplit    = "split"
	OverrideCancel   = "cancel"
)

// RouteOverride records that another technician covers a property's visits.
// It does not move any RouteStop row.
type RouteOverride struct {
	ID                     string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Date                   time.Time                   `gorm:"type:date;not null;index" json:"date"`
	StartDate              *time.Time                  `gorm:"type:date" json:"start_date"`
	EndDate                *time.Time                  `gorm:"type:date" json:"end_date"`
	CoverageType           string                      `gorm:"type:varchar(20);not null" json:"coverage_type"`
	SplitDays              datatypes.JSONSlice[string] `json:"split_days,omitempty"`
	PropertyID             string                      `gorm:"type:varchar(64);not null;index" json:"property_id"`
	PropertyName           string                      `json:"property_name"`
	OriginalTechnicianID   *string                     `gorm:"type:varchar(64);index" json:"original_technician_id"`
	OriginalTechnicianName *string                     `json:"original_technician_name"`
	CoveringTechnicianID   *string                     `gorm:"type:varchar(64);index" json:"covering_technician_id"`
	CoveringTechnicianName *string                     `json:"covering_technician_name"`
	OverrideType           string                      `gorm:"type:varchar(20);not null" json:"override_type"`
	Reason                 string                      `gorm:"index" json:"reason"`
	Notes                  string                      `json:"notes"`
	CreatedByUserID        *string                     `gorm:"type:varchar(64)" json:"created_by_user_id"`
	CreatedByName          *string                     `json:"created_by_name"`
	Active                 bool                        `gorm:"not null" json:"active"`
	CreatedAt              time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RouteOverride) TableName() string {
	return "route_overrides"
}

func (o *RouteOverride) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// IsRange reports whether the override spans a date range.
func (o *RouteOverride) IsRange() bool {
	return o.CoverageType == CoverageExtendedCover || o.CoverageType == CoverageSplitRoute
}

// CoversDate reports whether the override applies on day.
func (o *RouteOverride) CoversDate(day time.Time) bool {
	if !o.Active {
		return false
	}
	if !o.IsRange() || o.StartDate == nil {
		return sameDay(o.Date, day)
	}
	if day.Before(*o.StartDate) {
		return false
	}
	if o.EndDate != nil && day.After(*o.EndDate) {
		return false
	}
	if o.CoverageType == CoverageSplitRoute {
		name := weekdays.FromDate(day)
		for _, d := range o.SplitDays {
			if d == name {
				return true
			}
		}
		return false
	}
	return true
}

// DefaultOverrideType maps a coverage type to its override type.
func DefaultOverrideType(coverageType string) string {
	if coverageType == CoverageSplitRoute {
		return OverrideSplit
	}
	return OverrideReassign
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
