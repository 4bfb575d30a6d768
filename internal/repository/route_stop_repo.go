package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RouteStopRepository interface {
	Create(stop *models.RouteStop) error
	Update(stop *models.RouteStop) error
	Delete(id string) error
	GetByID(id string) (*models.RouteStop, error)
	GetByIDs(ids []string) ([]*models.RouteStop, error)
	ListByRoute(routeID string) ([]*models.RouteStop, error)
	ExistsOnRoute(routeID, propertyID string) (bool, error)
	NextSortOrder(routeID string) (int, error)
	Reorder(ids []string) error
	MovePermanently(stopID, routeID string) error
	CreateMove(move *models.RouteMove) error
	MovesOnDate(date time.Time) ([]*models.RouteMove, error)
}

type GormRouteStopRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormRouteStopRepository(db *gorm.DB) (*GormRouteStopRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.RouteStop{}, &models.RouteMove{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate route stop tables")
		return nil, err
	}

	return &GormRouteStopRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormRouteStopRepository) Create(stop *models.RouteStop) error {
	if result := r.db.Create(stop); result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create route stop")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":          stop.ID,
		"route_id":    stop.RouteID,
		"property_id": stop.PropertyID,
		"sort_order":  stop.SortOrder,
	}).Info("Route stop created")

	return nil
}

func (r *GormRouteStopRepository) Update(stop *models.RouteStop) error {
	var existing models.RouteStop
	result := r.db.Where("id = ?", stop.ID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if result.Error != nil {
		return result.Error
	}

	return r.db.Save(stop).Error
}

func (r *GormRouteStopRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stop_id = ?", id).Delete(&models.RouteMove{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.RouteStop{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRouteStopRepository) GetByID(id string) (*models.RouteStop, error) {
	var stop models.RouteStop
	result := r.db.Where("id = ?", id).First(&stop)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &stop, nil
}

func (r *GormRouteStopRepository) GetByIDs(ids []string) ([]*models.RouteStop, error) {
	var stops []*models.RouteStop
	if len(ids) == 0 {
		return stops, nil
	}
	err := r.db.Where("id IN ?", ids).Order("sort_order ASC").Find(&stops).Error
	return stops, err
}

func (r *GormRouteStopRepository) ListByRoute(routeID string) ([]*models.RouteStop, error) {
	var stops []*models.RouteStop
	result := r.db.Where("route_id = ?", routeID).Order("sort_order ASC").Find(&stops)

	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("route_id", routeID).Error("Failed to list route stops")
		return nil, result.Error
	}

	return stops, nil
}

func (r *GormRouteStopRepository) ExistsOnRoute(routeID, propertyID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RouteStop{}).
		Where("route_id = ? AND property_id = ?", routeID, propertyID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRouteStopRepository) NextSortOrder(routeID string) (int, error) {
	var max *int
	err := r.db.Model(&models.RouteStop{}).
		Select("MAX(sort_order)").
		Where("route_id = ?", routeID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// Reorder assigns sort order i+1 to ids[i] in one transaction.
func (r *GormRouteStopRepository) Reorder(ids []string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.RouteStop{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to reorder route stops")
	}

	return err
}

// MovePermanently reassigns the stop to routeID, appending it after the last stop there.
func (r *GormRouteStopRepository) MovePermanently(stopID, routeID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var max *int
		if err := tx.Model(&models.RouteStop{}).
			Select("MAX(sort_order)").
			Where("route_id = ?", routeID).
			Scan(&max).Error; err != nil {
			return err
		}
		next := 1
		if max != nil {
			next = *max + 1
		}

		result := tx.Model(&models.RouteStop{}).
			Where("id = ?", stopID).
			Updates(map[string]interface{}{"route_id": routeID, "sort_order": next})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRouteStopRepository) CreateMove(move *models.RouteMove) error {
	if result := r.db.Create(move); result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to record route move")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"stop_id":            move.StopID,
		"original_route_id":  move.OriginalRouteID,
		"temporary_route_id": move.TemporaryRouteID,
		"move_date":          move.MoveDate.Format("2006-01-02"),
	}).Info("Route move recorded")

	return nil
}

func (r *GormRouteStopRepository) MovesOnDate(date time.Time) ([]*models.RouteMove, error) {
	var moves []*models.RouteMove
	err := r.db.Where("move_date = ? AND is_permanent = ?", date, false).
		Order("created_at ASC").
		Find(&moves).Error
	return moves, err
}
