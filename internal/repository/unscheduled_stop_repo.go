package repository

import (
	"errors"
	"pool-route-scheduler/internal/models"

	"gorm.io/gorm"
)

type UnscheduledStopRepository interface {
	Create(stop *models.UnscheduledStop) error
	GetByID(id string) (*models.UnscheduledStop, error)
	List() ([]*models.UnscheduledStop, error)
	Delete(id string) error
	Schedule(id string, stop *models.RouteStop) error
}

type GormUnscheduledStopRepository struct {
	db *gorm.DB
}

func NewGormUnscheduledStopRepository(db *gorm.DB) (*GormUnscheduledStopRepository, error) {
	if err := db.AutoMigrate(&models.UnscheduledStop{}); err != nil {
		return nil, err
	}

	return &GormUnscheduledStopRepository{db: db}, nil
}

func (r *GormUnscheduledStopRepository) Create(stop *models.UnscheduledStop) error {
	return r.db.Create(stop).Error
}

func (r *GormUnscheduledStopRepository) GetByID(id string) (*models.UnscheduledStop, error) {
	var stop models.UnscheduledStop
	result := r.db.Where("id = ?", id).First(&stop)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &stop, nil
}

func (r *GormUnscheduledStopRepository) List() ([]*models.UnscheduledStop, error) {
	var stops []*models.UnscheduledStop
	err := r.db.Order("created_at ASC").Find(&stops).Error
	return stops, err
}

func (r *GormUnscheduledStopRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.UnscheduledStop{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Schedule turns the pooled stop into stop and removes it from the pool.
func (r *GormUnscheduledStopRepository) Schedule(id string, stop *models.RouteStop) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.UnscheduledStop{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(stop).Error
	})
}
