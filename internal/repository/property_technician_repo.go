package repository

import (
	"pool-route-scheduler/internal/models"

	"gorm.io/gorm"
)

type PropertyTechnicianRepository interface {
	Create(assignment *models.PropertyTechnician) error
	Exists(propertyID, technicianID string) (bool, error)
	ListByProperty(propertyID string) ([]*models.PropertyTechnician, error)
	ListAll() ([]*models.PropertyTechnician, error)
	Delete(propertyID, technicianID string) error
}

type GormPropertyTechnicianRepository struct {
	db *gorm.DB
}

func NewGormPropertyTechnicianRepository(db *gorm.DB) (*GormPropertyTechnicianRepository, error) {
	if err := db.AutoMigrate(&models.PropertyTechnician{}); err != nil {
		return nil, err
	}

	return &GormPropertyTechnicianRepository{db: db}, nil
}

func (r *GormPropertyTechnicianRepository) Create(assignment *models.PropertyTechnician) error {
	exists, err := r.Exists(assignment.PropertyID, assignment.TechnicianID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyAssigned
	}

	return r.db.Create(assignment).Error
}

func (r *GormPropertyTechnicianRepository) Exists(propertyID, technicianID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PropertyTechnician{}).
		Where("property_id = ? AND technician_id = ?", propertyID, technicianID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormPropertyTechnicianRepository) ListByProperty(propertyID string) ([]*models.PropertyTechnician, error) {
	var assignments []*models.PropertyTechnician
	err := r.db.Where("property_id = ?", propertyID).Order("assigned_at ASC").Find(&assignments).Error
	return assignments, err
}

func (r *GormPropertyTechnicianRepository) ListAll() ([]*models.PropertyTechnician, error) {
	var assignments []*models.PropertyTechnician
	err := r.db.Order("property_id ASC, assigned_at ASC").Find(&assignments).Error
	return assignments, err
}

func (r *GormPropertyTechnicianRepository) Delete(propertyID, technicianID string) error {
	result := r.db.Where("property_id = ? AND technician_id = ?", propertyID, technicianID).
		Delete(&models.PropertyTechnician{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
