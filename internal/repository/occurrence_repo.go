package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OccurrenceRepository interface {
	GetByID(id string) (*models.ServiceOccurrence, error)
	GetByProperty(propertyID string) ([]*models.ServiceOccurrence, error)
	GetByPropertyInRange(propertyID string, start, end time.Time) ([]*models.ServiceOccurrence, error)
	GetByRoute(routeID string) ([]*models.ServiceOccurrence, error)
	GetUnscheduled(start, end time.Time) ([]*models.ServiceOccurrence, error)
	BulkCreate(occurrences []*models.ServiceOccurrence) error
	DeleteBySchedule(scheduleID string) (int64, error)
	Assign(id, routeID string, technicianID *string) error
	Unassign(id string) error
}

type GormOccurrenceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormOccurrenceRepository(db *gorm.DB) (*GormOccurrenceRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.ServiceOccurrence{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate service_occurrences table")
		return nil, err
	}

	return &GormOccurrenceRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormOccurrenceRepository) GetByID(id string) (*models.ServiceOccurrence, error) {
	var occurrence models.ServiceOccurrence
	result := r.db.Where("id = ?", id).First(&occurrence)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Service occurrence not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get service occurrence by ID")
		return nil, result.Error
	}

	return &occurrence, nil
}

func (r *GormOccurrenceRepository) GetByProperty(propertyID string) ([]*models.ServiceOccurrence, error) {
	var occurrences []*models.ServiceOccurrence
	err := r.db.Where("property_id = ?", propertyID).
		Order("date ASC").
		Find(&occurrences).Error
	return occurrences, err
}

func (r *GormOccurrenceRepository) GetByPropertyInRange(propertyID string, start, end time.Time) ([]*models.ServiceOccurrence, error) {
	var occurrences []*models.ServiceOccurrence
	err := r.db.Where("property_id = ? AND date >= ? AND date <= ?", propertyID, start, end).
		Order("date ASC").
		Find(&occurrences).Error
	return occurrences, err
}

func (r *GormOccurrenceRepository) GetByRoute(routeID string) ([]*models.ServiceOccurrence, error) {
	var occurrences []*models.ServiceOccurrence
	err := r.db.Where("route_id = ? AND status = ?", routeID, models.OccurrenceScheduled).
		Order("date ASC, property_id ASC").
		Find(&occurrences).Error
	return occurrences, err
}

func (r *GormOccurrenceRepository) GetUnscheduled(start, end time.Time) ([]*models.ServiceOccurrence, error) {
	var occurrences []*models.ServiceOccurrence
	result := r.db.Where("status = ? AND date >= ? AND date <= ?", models.OccurrenceUnscheduled, start, end).
		Order("date ASC, property_id ASC").
		Find(&occurrences)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get unscheduled occurrences")
		return nil, result.Error
	}

	return occurrences, nil
}

func (r *GormOccurrenceRepository) BulkCreate(occurrences []*models.ServiceOccurrence) error {
	if len(occurrences) == 0 {
		return nil
	}

	result := r.db.CreateInBatches(occurrences, 100)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to bulk create service occurrences")
		return result.Error
	}

	r.logger.WithField("count", len(occurrences)).Debug("Service occurrences created")
	return nil
}

func (r *GormOccurrenceRepository) DeleteBySchedule(scheduleID string) (int64, error) {
	result := r.db.Where("source_schedule_id = ?", scheduleID).Delete(&models.ServiceOccurrence{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete occurrences by schedule")
		return 0, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"schedule_id":   scheduleID,
		"rows_affected": result.RowsAffected,
	}).Info("Occurrences deleted for schedule")

	return result.RowsAffected, nil
}

func (r *GormOccurrenceRepository) Assign(id, routeID string, technicianID *string) error {
	result := r.db.Model(&models.ServiceOccurrence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.OccurrenceScheduled,
			"route_id":      routeID,
			"technician_id": technicianID,
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to assign occurrence")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *GormOccurrenceRepository) Unassign(id string) error {
	result := r.db.Model(&models.ServiceOccurrence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.OccurrenceUnscheduled,
			"route_id":      nil,
			"technician_id": nil,
		})

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to unassign occurrence")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
