package repository

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RouteRepository interface {
	Create(route *models.Route) error
	Update(route *models.Route) error
	Delete(id string) error
	GetByID(id string) (*models.Route, error)
	List(dayOfWeek *int) ([]*models.Route, error)
	ListByTechnician(technicianID string) ([]*models.Route, error)
	ListByDateRange(start, end time.Time) ([]*models.Route, error)
	FindByTechnicianAndDay(technicianID string, dayOfWeek time.Weekday) (*models.Route, error)
	NextSortOrder() (int, error)
	Reorder(ids []string) error
	Reset() (*ResetCounts, error)
}

// ResetCounts reports how many rows each table lost during a reset.
type ResetCounts struct {
	Moves                 int64 `json:"moves"`
	Stops                 int64 `json:"stops"`
	Unscheduled           int64 `json:"unscheduled"`
	Routes                int64 `json:"routes"`
	UnassignedOccurrences int64 `json:"unassigned_occurrences"`
}

type GormRouteRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormRouteRepository(db *gorm.DB) (*GormRouteRepository, error) {
	logger := logger.New()

	if err := db.AutoMigrate(&models.Route{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate routes table")
		return nil, err
	}

	return &GormRouteRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormRouteRepository) Create(route *models.Route) error {
	if !route.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"name":        route.Name,
			"day_of_week": route.DayOfWeek,
		}).Warn("Invalid route data")
		return errors.New("invalid route data")
	}

	if result := r.db.Create(route); result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create route")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":          route.ID,
		"name":        route.Name,
		"day_of_week": route.DayOfWeek,
	}).Info("Route created")

	return nil
}

func (r *GormRouteRepository) Update(route *models.Route) error {
	if !route.IsValid() {
		return errors.New("invalid route data")
	}

	var existing models.Route
	result := r.db.Where("id = ?", route.ID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if result.Error != nil {
		return result.Error
	}

	if result = r.db.Save(route); result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update route")
		return result.Error
	}

	return nil
}

// Delete removes the route together with its stops and their moves, and
// returns occurrences that sat on it to the unscheduled state.
func (r *GormRouteRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		stopIDs := tx.Model(&models.RouteStop{}).Select("id").Where("route_id = ?", id)

		if err := tx.Where("stop_id IN (?) OR temporary_route_id = ? OR original_route_id = ?", stopIDs, id, id).
			Delete(&models.RouteMove{}).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id = ?", id).Delete(&models.RouteStop{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ServiceOccurrence{}).
			Where("route_id = ?", id).
			Updates(map[string]interface{}{
				"status":        models.OccurrenceUnscheduled,
				"route_id":      nil,
				"technician_id": nil,
			}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Route{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.WithError(err).WithField("id", id).Error("Failed to delete route")
	}

	return err
}

func (r *GormRouteRepository) GetByID(id string) (*models.Route, error) {
	var route models.Route
	result := r.db.Where("id = ?", id).First(&route)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &route, nil
}

func (r *GormRouteRepository) List(dayOfWeek *int) ([]*models.Route, error) {
	var routes []*models.Route
	query := r.db.Order("sort_order ASC, name ASC")
	if dayOfWeek != nil {
		query = query.Where("day_of_week = ?", *dayOfWeek)
	}

	if err := query.Find(&routes).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list routes")
		return nil, err
	}

	return routes, nil
}

func (r *GormRouteRepository) ListByTechnician(technicianID string) ([]*models.Route, error) {
	var routes []*models.Route
	err := r.db.Where("technician_id = ?", technicianID).
		Order("day_of_week ASC, sort_order ASC").
		Find(&routes).Error
	return routes, err
}

func (r *GormRouteRepository) ListByDateRange(start, end time.Time) ([]*models.Route, error) {
	var routes []*models.Route
	err := r.db.Where("date >= ? AND date <= ?", start, end).
		Order("date ASC, sort_order ASC").
		Find(&routes).Error
	return routes, err
}

// FindByTechnicianAndDay returns the recurring route of a technician on a weekday.
func (r *GormRouteRepository) FindByTechnicianAndDay(technicianID string, dayOfWeek time.Weekday) (*models.Route, error) {
	var route models.Route
	result := r.db.Where("technician_id = ? AND day_of_week = ? AND date IS NULL", technicianID, int(dayOfWeek)).
		Order("sort_order ASC").
		First(&route)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &route, nil
}

func (r *GormRouteRepository) NextSortOrder() (int, error) {
	var max *int
	if err := r.db.Model(&models.Route{}).Select("MAX(sort_order)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// Reorder assigns sort order i+1 to ids[i] in one transaction.
func (r *GormRouteRepository) Reorder(ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.Route{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset removes routes, stops, moves and the unscheduled pool, and returns
// every occurrence that sat on a route to the unscheduled state.
// Schedules, directory data and jobs are untouched.
func (r *GormRouteRepository) Reset() (*ResetCounts, error) {
	counts := &ResetCounts{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ServiceOccurrence{}).
			Where("route_id IS NOT NULL").
			Updates(map[string]interface{}{
				"status":        models.OccurrenceUnscheduled,
				"route_id":      nil,
				"technician_id": nil,
			})
		if result.Error != nil {
			return result.Error
		}
		counts.UnassignedOccurrences = result.RowsAffected

		steps := []struct {
			model interface{}
			count *int64
		}{
			{&models.RouteMove{}, &counts.Moves},
			{&models.RouteStop{}, &counts.Stops},
			{&models.UnscheduledStop{}, &counts.Unscheduled},
			{&models.Route{}, &counts.Routes},
		}

		for _, step := range steps {
			result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(step.model)
			if result.Error != nil {
				return result.Error
			}
			*step.count = result.RowsAffected
		}
		return nil
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to reset scheduling data")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"stops":       counts.Stops,
		"routes":      counts.Routes,
		"occurrences": counts.UnassignedOccurrences,
	}).Warn("Scheduling data reset")

	return counts, nil
}
