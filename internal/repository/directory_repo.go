package repository

import (
	"errors"
	"pool-route-scheduler/internal/models"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) (*PropertyRepository, error) {
	err := db.AutoMigrate(&models.Customer{}, &models.Property{})
	if err != nil {
		return nil, err
	}

	return &PropertyRepository{db: db}, nil
}

func (r *PropertyRepository) CreateCustomer(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

func (r *PropertyRepository) Create(property *models.Property) error {
	return r.db.Create(property).Error
}

func (r *PropertyRepository) GetByID(id string) (*models.Property, error) {
	var property models.Property
	result := r.db.Preload("Customer").Where("id = ?", id).First(&property)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &property, nil
}

// GetByIDs loads the given properties keyed by id. Unknown ids are absent from the map.
func (r *PropertyRepository) GetByIDs(ids []string) (map[string]*models.Property, error) {
	found := make(map[string]*models.Property, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var properties []*models.Property
	if err := r.db.Preload("Customer").Where("id IN ?", ids).Find(&properties).Error; err != nil {
		return nil, err
	}

	for _, p := range properties {
		found[p.ID] = p
	}
	return found, nil
}

type TechnicianRepository struct {
	db *gorm.DB
}

func NewTechnicianRepository(db *gorm.DB) (*TechnicianRepository, error) {
	err := db.AutoMigrate(&models.Technician{})
	if err != nil {
		return nil, err
	}

	return &TechnicianRepository{db: db}, nil
}

func (r *TechnicianRepository) Create(technician *models.Technician) error {
	return r.db.Create(technician).Error
}

func (r *TechnicianRepository) GetByID(id string) (*models.Technician, error) {
	var technician models.Technician
	result := r.db.Where("id = ?", id).First(&technician)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &technician, nil
}

func (r *TechnicianRepository) List(role string) ([]*models.Technician, error) {
	var technicians []*models.Technician
	query := r.db.Where("active = ?", true)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Order("first_name ASC, last_name ASC").Find(&technicians).Error
	return technicians, err
}
