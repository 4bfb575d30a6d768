package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	GetByID(id string) (*models.RouteSchedule, error)
	GetByPropertyID(propertyID string) (*models.RouteSchedule, error)
	GetActive() ([]*models.RouteSchedule, error)
	Save(schedule *models.RouteSchedule) error
}

type GormScheduleRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormScheduleRepository(db *gorm.DB) (*GormScheduleRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.RouteSchedule{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate route_schedules table")
		return nil, err
	}

	logger.Debug("Route schedule repository initialized")

	return &GormScheduleRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormScheduleRepository) GetByID(id string) (*models.RouteSchedule, error) {
	var schedule models.RouteSchedule
	result := r.db.Where("id = ?", id).First(&schedule)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get route schedule by ID")
		return nil, result.Error
	}

	return &schedule, nil
}

func (r *GormScheduleRepository) GetByPropertyID(propertyID string) (*models.RouteSchedule, error) {
	var schedule models.RouteSchedule
	result := r.db.Where("property_id = ?", propertyID).First(&schedule)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("property_id", propertyID).Debug("Route schedule not found for property")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get route schedule by property")
		return nil, result.Error
	}

	return &schedule, nil
}

func (r *GormScheduleRepository) GetActive() ([]*models.RouteSchedule, error) {
	var schedules []*models.RouteSchedule
	result := r.db.Where("is_active = ?", true).Order("property_id ASC").Find(&schedules)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active route schedules")
		return nil, result.Error
	}

	r.logger.WithField("count", len(schedules)).Debug("Retrieved active route schedules")
	return schedules, nil
}

// Save inserts a new schedule or updates the existing row of the same property.
func (r *GormScheduleRepository) Save(schedule *models.RouteSchedule) error {
	r.logger.WithFields(logrus.Fields{
		"property_id":   schedule.PropertyID,
		"active_season": schedule.ActiveSeason,
		"is_active":     schedule.IsActive,
	}).Info("Saving route schedule")

	if !schedule.IsValid() {
		r.logger.WithField("property_id", schedule.PropertyID).Warn("Invalid route schedule data")
		return errors.New("invalid route schedule data")
	}

	var result *gorm.DB
	if schedule.ID == "" {
		result = r.db.Create(schedule)
	} else {
		result = r.db.Save(schedule)
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to save route schedule")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":          schedule.ID,
		"property_id": schedule.PropertyID,
	}).Info("Route schedule saved successfully")

	return nil
}
