package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EstimateRepository interface {
	Create(estimate *models.Estimate) error
	GetByID(id string) (*models.Estimate, error)
	FindOverdue(now time.Time) ([]*models.Estimate, error)
	AutoReturn(id string, now time.Time, reason string, record *models.JobReassignment) (bool, error)
	Assign(estimate *models.Estimate, record *models.JobReassignment) error
	ListReassignments(jobID string) ([]*models.JobReassignment, error)
}

type GormEstimateRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormEstimateRepository(db *gorm.DB) (*GormEstimateRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.Estimate{}, &models.JobReassignment{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate estimate tables")
		return nil, err
	}

	return &GormEstimateRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormEstimateRepository) Create(estimate *models.Estimate) error {
	return r.db.Create(estimate).Error
}

func (r *GormEstimateRepository) GetByID(id string) (*models.Estimate, error) {
	var estimate models.Estimate
	result := r.db.Where("id = ?", id).First(&estimate)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &estimate, nil
}

// FindOverdue returns scheduled jobs whose deadline passed before now and that
// were never auto-returned.
func (r *GormEstimateRepository) FindOverdue(now time.Time) ([]*models.Estimate, error) {
	var estimates []*models.Estimate
	result := r.db.Where("status = ?", models.EstimateStatusScheduled).
		Where("deadline_at IS NOT NULL AND deadline_at < ?", now).
		Where("auto_returned_at IS NULL").
		Order("deadline_at ASC").
		Find(&estimates)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to find overdue jobs")
		return nil, result.Error
	}

	return estimates, nil
}

// AutoReturn puts the job back in the approved queue and records the
// reassignment in one transaction. It reports false without writing anything
// when the job was already auto-returned.
func (r *GormEstimateRepository) AutoReturn(id string, now time.Time, reason string, record *models.JobReassignment) (bool, error) {
	returned := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Estimate{}).
			Where("id = ? AND auto_returned_at IS NULL", id).
			Updates(map[string]interface{}{
				"status":               models.EstimateStatusApproved,
				"repair_tech_id":       nil,
				"repair_tech_name":     nil,
				"scheduled_date":       nil,
				"scheduled_at":         nil,
				"deadline_at":          nil,
				"deadline_value":       nil,
				"deadline_unit":        "",
				"auto_returned_at":     now,
				"auto_returned_reason": reason,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}
		returned = true
		return nil
	})

	if err != nil {
		r.logger.WithError(err).WithField("job_id", id).Error("Failed to auto-return job")
		return false, err
	}

	return returned, nil
}

// Assign saves the job and, when record is non-nil, its reassignment entry.
func (r *GormEstimateRepository) Assign(estimate *models.Estimate, record *models.JobReassignment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(estimate).Error; err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		return tx.Create(record).Error
	})
}

func (r *GormEstimateRepository) ListReassignments(jobID string) ([]*models.JobReassignment, error) {
	var records []*models.JobReassignment
	err := r.db.Where("job_id = ?", jobID).
		Order("reassigned_at DESC").
		Find(&records).Error
	return records, err
}
