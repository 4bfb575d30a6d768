package service

import (
	"errors"
	"fmt"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/pkg/weekdays"
	"time"

	"github.com/sirupsen/logrus"
)

// RouteInput creates or patches a route. On update nil fields are left alone
// and an empty Date clears the route's date.
type RouteInput struct {
	Name           *string  `json:"name"`
	DayOfWeek      *int     `json:"day_of_week"`
	TechnicianID   *string  `json:"technician_id"`
	TechnicianName *string  `json:"technician_name"`
	Color          *string  `json:"color"`
	Date           *string  `json:"date"`
	SortOrder      *int     `json:"sort_order"`
	PropertyIDs    []string `json:"property_ids"`
}

// RouteWithStops is a route with its manual stops followed by the
// occurrences assigned to it.
type RouteWithStops struct {
	models.Route
	Stops []StopView `json:"stops"`
}

type RouteService struct {
	routes      repository.RouteRepository
	stops       repository.RouteStopRepository
	unscheduled repository.UnscheduledStopRepository
	occurrences repository.OccurrenceRepository
	schedules   repository.ScheduleRepository
	assignments repository.PropertyTechnicianRepository
	properties  PropertyDirectory
	technicians TechnicianDirectory
	logger      *logrus.Logger
	now         func() time.Time
}

func NewRouteService(
	routes repository.RouteRepository,
	stops repository.RouteStopRepository,
	unscheduled repository.UnscheduledStopRepository,
	occurrences repository.OccurrenceRepository,
	schedules repository.ScheduleRepository,
	assignments repository.PropertyTechnicianRepository,
	properties PropertyDirectory,
	technicians TechnicianDirectory,
) *RouteService {
	return &RouteService{
		routes:      routes,
		stops:       stops,
		unscheduled: unscheduled,
		occurrences: occurrences,
		schedules:   schedules,
		assignments: assignments,
		properties:  properties,
		technicians: technicians,
		logger:      logger.New(),
		now:         time.Now,
	}
}

func (s *RouteService) CreateRoute(in RouteInput) (*models.Route, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, invalid("name is required")
	}

	route := &models.Route{Name: *in.Name}
	if err := applyRouteInput(route, in); err != nil {
		return nil, err
	}

	if in.SortOrder == nil {
		next, err := s.routes.NextSortOrder()
		if err != nil {
			return nil, storeError("next route sort order", err)
		}
		route.SortOrder = next
	}

	if err := s.routes.Create(route); err != nil {
		return nil, storeError("create route", err)
	}

	for _, propertyID := range in.PropertyIDs {
		if _, err := s.appendPropertyStop(route.ID, propertyID); err != nil {
			return nil, err
		}
	}

	return route, nil
}

func (s *RouteService) UpdateRoute(id string, in RouteInput) (*models.Route, error) {
	route, err := s.getRoute(id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalid("name must not be empty")
		}
		route.Name = *in.Name
	}
	if err := applyRouteInput(route, in); err != nil {
		return nil, err
	}

	if err := s.routes.Update(route); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("route", id)
		}
		return nil, storeError("update route", err)
	}

	return route, nil
}

func applyRouteInput(route *models.Route, in RouteInput) error {
	if in.DayOfWeek != nil {
		if *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
			return invalid("day_of_week must be between 0 (sunday) and 6 (saturday)")
		}
		route.DayOfWeek = *in.DayOfWeek
	}
	if in.TechnicianID != nil {
		route.TechnicianID = stringPtr(*in.TechnicianID)
	}
	if in.TechnicianName != nil {
		route.TechnicianName = stringPtr(*in.TechnicianName)
	}
	if in.Color != nil && *in.Color != "" {
		route.Color = *in.Color
	}
	if in.SortOrder != nil {
		route.SortOrder = *in.SortOrder
	}
	if in.Date != nil {
		if *in.Date == "" {
			route.Date = nil
		} else {
			d, err := weekdays.ParseDate(*in.Date)
			if err != nil {
				return invalid("date: %v", err)
			}
			route.Date = &d
		}
	}
	return nil
}

// DeleteRoute removes the route and every stop on it.
func (s *RouteService) DeleteRoute(id string) error {
	if err := s.routes.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("route", id)
		}
		return storeError("delete route", err)
	}

	s.logger.WithField("route_id", id).Info("Route deleted")
	return nil
}

// ReorderRoutes rewrites sort order so ids[i] gets i+1. Routes left out of ids
// follow in their current order.
func (s *RouteService) ReorderRoutes(ids []string) error {
	if len(ids) == 0 {
		return invalid("route_ids must not be empty")
	}
	if dup := firstDuplicate(ids); dup != "" {
		return invalid("route %q is listed twice", dup)
	}

	routes, err := s.routes.List(nil)
	if err != nil {
		return storeError("list routes", err)
	}
	existing := make([]string, 0, len(routes))
	known := make(map[string]bool, len(routes))
	for _, route := range routes {
		existing = append(existing, route.ID)
		known[route.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return notFound("route", id)
		}
	}

	if err := s.routes.Reorder(completeOrder(ids, existing)); err != nil {
		return storeError("reorder routes", err)
	}
	return nil
}

// completeOrder returns ids followed by the members of existing that ids does
// not mention, keeping their relative order.
func completeOrder(ids, existing []string) []string {
	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}

	order := append(make([]string, 0, len(existing)), ids...)
	for _, id := range existing {
		if !listed[id] {
			order = append(order, id)
		}
	}
	return order
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id
		}
		seen[id] = true
	}
	return ""
}

func (s *RouteService) GetRoute(id string) (*RouteWithStops, error) {
	route, err := s.getRoute(id)
	if err != nil {
		return nil, err
	}
	return s.withStops(route)
}

// ListRoutes returns routes, optionally for one weekday (0 = sunday), each
// with its merged stop list.
func (s *RouteService) ListRoutes(dayOfWeek *int) ([]RouteWithStops, error) {
	routes, err := s.routes.List(dayOfWeek)
	if err != nil {
		return nil, storeError("list routes", err)
	}
	return s.allWithStops(routes)
}

func (s *RouteService) ListRoutesByDateRange(start, end time.Time) ([]RouteWithStops, error) {
	start, end = weekdays.Day(start), weekdays.Day(end)
	if end.Before(start) {
		return nil, invalid("end date %s is before start date %s", weekdays.Key(end), weekdays.Key(start))
	}

	routes, err := s.routes.ListByDateRange(start, end)
	if err != nil {
		return nil, storeError("list dated routes", err)
	}
	return s.allWithStops(routes)
}

func (s *RouteService) allWithStops(routes []*models.Route) ([]RouteWithStops, error) {
	result := make([]RouteWithStops, 0, len(routes))
	for _, route := range routes {
		rw, err := s.withStops(route)
		if err != nil {
			return nil, err
		}
		result = append(result, *rw)
	}
	return result, nil
}

func (s *RouteService) withStops(route *models.Route) (*RouteWithStops, error) {
	stops, err := s.stops.ListByRoute(route.ID)
	if err != nil {
		return nil, storeError("list route stops", err)
	}

	occurrences, err := s.occurrences.GetByRoute(route.ID)
	if err != nil {
		return nil, storeError("list route occurrences", err)
	}

	views := make([]StopView, 0, len(stops)+len(occurrences))
	for _, stop := range stops {
		views = append(views, stopView(stop))
	}

	occViews, err := s.occurrenceStops(occurrences, len(stops))
	if err != nil {
		return nil, err
	}
	views = append(views, occViews...)

	return &RouteWithStops{Route: *route, Stops: views}, nil
}

func (s *RouteService) getRoute(id string) (*models.Route, error) {
	route, err := s.routes.GetByID(id)
	if err != nil {
		return nil, storeError("get route", err)
	}
	if route == nil {
		return nil, notFound("route", id)
	}
	return route, nil
}

// findOrCreateRoute returns the technician's recurring route for the weekday,
// creating "<Tech>'s <Day> Route" when there is none.
func (s *RouteService) findOrCreateRoute(technicianID string, technicianName *string, day time.Weekday) (*models.Route, error) {
	route, err := s.routes.FindByTechnicianAndDay(technicianID, day)
	if err != nil {
		return nil, storeError("find technician route", err)
	}
	if route != nil && !route.IsDated() {
		return route, nil
	}

	name := deref(technicianName)
	if name == "" {
		name = lookupTechnicianName(s.technicians, technicianID)
	}
	if name == "" {
		name = "Technician"
	}

	next, err := s.routes.NextSortOrder()
	if err != nil {
		return nil, storeError("next route sort order", err)
	}

	route = &models.Route{
		Name:           fmt.Sprintf("%s's %s Route", name, weekdays.Title(day)),
		DayOfWeek:      int(day),
		TechnicianID:   &technicianID,
		TechnicianName: stringPtr(name),
		Color:          models.DefaultRouteColor,
		SortOrder:      next,
	}
	if err := s.routes.Create(route); err != nil {
		return nil, storeError("create technician route", err)
	}

	s.logger.WithFields(logrus.Fields{
		"route_id":      route.ID,
		"technician_id": technicianID,
		"day":           weekdays.Name(day),
	}).Info("Route created for technician")

	return route, nil
}

// ResetSchedulingData clears routes, stops, moves and the unscheduled pool.
func (s *RouteService) ResetSchedulingData() (*repository.ResetCounts, error) {
	counts, err := s.routes.Reset()
	if err != nil {
		return nil, storeError("reset scheduling data", err)
	}
	return counts, nil
}
