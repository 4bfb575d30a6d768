package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OverrideFilter narrows override queries. Zero values are ignored.
// TechnicianID matches either the original or the covering technician.
type OverrideFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	TechnicianID string
	PropertyID   string
	Reason       string
	ActiveOnly   bool
}

type OverrideRepository interface {
	Create(override *models.RouteOverride) error
	CreateBatch(overrides []*models.RouteOverride) error
	GetByID(id string) (*models.RouteOverride, error)
	Find(filter OverrideFilter) ([]*models.RouteOverride, error)
	FindPage(filter OverrideFilter, offset, limit int) ([]*models.RouteOverride, int64, error)
	FindCovering(date time.Time) ([]*models.RouteOverride, error)
	UpdateCovering(id string, technicianID, technicianName *string) error
	Delete(id string) error
}

type GormOverrideRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormOverrideRepository(db *gorm.DB) (*GormOverrideRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.RouteOverride{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate route_overrides table")
		return nil, err
	}

	return &GormOverrideRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormOverrideRepository) Create(override *models.RouteOverride) error {
	if result := r.db.Create(override); result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create route override")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":            override.ID,
		"property_id":   override.PropertyID,
		"coverage_type": override.CoverageType,
		"date":          override.Date.Format("2006-01-02"),
	}).Info("Route override created")

	return nil
}

// CreateBatch inserts all overrides or none of them.
func (r *GormOverrideRepository) CreateBatch(overrides []*models.RouteOverride) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, o := range overrides {
			if err := tx.Create(o).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		r.logger.WithError(err).WithField("count", len(overrides)).Error("Failed to create route override batch")
		return err
	}

	r.logger.WithField("count", len(overrides)).Info("Route override batch created")
	return nil
}

func (r *GormOverrideRepository) GetByID(id string) (*models.RouteOverride, error) {
	var override models.RouteOverride
	result := r.db.Where("id = ?", id).First(&override)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &override, nil
}

func (r *GormOverrideRepository) filtered(filter OverrideFilter) *gorm.DB {
	query := r.db.Model(&models.RouteOverride{})

	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}
	if filter.TechnicianID != "" {
		query = query.Where(
			r.db.Where("original_technician_id = ?", filter.TechnicianID).
				Or("covering_technician_id = ?", filter.TechnicianID),
		)
	}
	if filter.PropertyID != "" {
		query = query.Where("property_id = ?", filter.PropertyID)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	return query
}

func (r *GormOverrideRepository) Find(filter OverrideFilter) ([]*models.RouteOverride, error) {
	var overrides []*models.RouteOverride
	if err := r.filtered(filter).Order("date ASC, created_at ASC").Find(&overrides).Error; err != nil {
		r.logger.WithError(err).Error("Failed to query route overrides")
		return nil, err
	}

	return overrides, nil
}

// FindPage returns one page of matches, newest date first, plus the total match count.
func (r *GormOverrideRepository) FindPage(filter OverrideFilter, offset, limit int) ([]*models.RouteOverride, int64, error) {
	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var overrides []*models.RouteOverride
	err := r.filtered(filter).
		Order("date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&overrides).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to page route override history")
		return nil, 0, err
	}

	return overrides, total, nil
}

// FindCovering returns active overrides that may apply on date: single-day
// overrides for that date and range overrides whose window contains it.
func (r *GormOverrideRepository) FindCovering(date time.Time) ([]*models.RouteOverride, error) {
	var overrides []*models.RouteOverride
	err := r.db.Where("active = ?", true).
		Where(
			r.db.Where("date = ?", date).
				Or("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", date, date),
		).
		Order("created_at ASC").
		Find(&overrides).Error
	return overrides, err
}

func (r *GormOverrideRepository) UpdateCovering(id string, technicianID, technicianName *string) error {
	result := r.db.Model(&models.RouteOverride{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"covering_technician_id":   technicianID,
			"covering_technician_name": technicianName,
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update covering technician")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *GormOverrideRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.RouteOverride{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
