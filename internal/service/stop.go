package service

import (
	"errors"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/pkg/weekdays"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPropertyName  = "Unknown Property"
	defaultWaterBodyType = "Pool"
	defaultEstimatedTime = 30
	defaultFrequency     = "weekly"
)

// StopView is one entry of a route's stop list. Entries built from assigned
// occurrences carry IsOccurrence, a Status and a Date.
type StopView struct {
	ID               string     `json:"id"`
	RouteID          string     `json:"route_id"`
	PropertyID       string     `json:"property_id"`
	PropertyName     string     `json:"property_name"`
	CustomerID       *string    `json:"customer_id"`
	CustomerName     string     `json:"customer_name"`
	PoolName         string     `json:"pool_name,omitempty"`
	WaterBodyType    string     `json:"water_body_type"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Zip              string     `json:"zip"`
	Notes            string     `json:"notes,omitempty"`
	SortOrder        int        `json:"sort_order"`
	EstimatedTime    int        `json:"estimated_time"`
	Frequency        string     `json:"frequency"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	IsCoverage       bool       `json:"is_coverage"`
	IsOccurrence     bool       `json:"is_occurrence"`
	Status           string     `json:"status,omitempty"`
	Date             *time.Time `json:"date,omitempty"`
	MovedFromRouteID *string    `json:"moved_from_route_id,omitempty"`
}

func stopView(stop *models.RouteStop) StopView {
	return StopView{
		ID:            stop.ID,
		RouteID:       stop.RouteID,
		PropertyID:    stop.PropertyID,
		PropertyName:  stop.PropertyName,
		CustomerID:    stop.CustomerID,
		CustomerName:  stop.CustomerName,
		PoolName:      stop.PoolName,
		WaterBodyType: stop.WaterBodyType,
		Address:       stop.Address,
		City:          stop.City,
		State:         stop.State,
		Zip:           stop.Zip,
		Notes:         stop.Notes,
		SortOrder:     stop.SortOrder,
		EstimatedTime: stop.EstimatedTime,
		Frequency:     stop.Frequency,
		ScheduledDate: stop.ScheduledDate,
		IsCoverage:    stop.IsCoverage,
	}
}

// occurrenceStops turns assigned occurrences into stop entries numbered after
// the route's offset manual stops.
func (s *RouteService) occurrenceStops(occurrences []*models.ServiceOccurrence, offset int) ([]StopView, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		ids = append(ids, occ.PropertyID)
	}
	properties, err := s.lookupProperties(ids)
	if err != nil {
		return nil, err
	}

	views := make([]StopView, 0, len(occurrences))
	for i, occ := range occurrences {
		date := occ.Date
		view := StopView{
			ID:            occ.ID,
			RouteID:       deref(occ.RouteID),
			PropertyID:    occ.PropertyID,
			PropertyName:  occ.PropertyID,
			WaterBodyType: defaultWaterBodyType,
			SortOrder:     offset + i + 1,
			EstimatedTime: defaultEstimatedTime,
			Frequency:     defaultFrequency,
			IsOccurrence:  true,
			Status:        occ.Status,
			Date:          &date,
		}
		if p, ok := properties[occ.PropertyID]; ok {
			view.PropertyName = p.DisplayName()
			view.CustomerID = p.CustomerID
			view.CustomerName = p.CustomerName()
			view.Address = p.AddressLine1
			view.City = p.City
			view.State = p.State
			view.Zip = p.Zip
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *RouteService) lookupProperties(ids []string) (map[string]*models.Property, error) {
	if s.properties == nil {
		return map[string]*models.Property{}, nil
	}
	found, err := s.properties.GetByIDs(ids)
	if err != nil {
		return nil, storeError("load properties", err)
	}
	return found, nil
}

func (s *RouteService) lookupProperty(id string) (*models.Property, error) {
	if s.properties == nil {
		return nil, nil
	}
	p, err := s.properties.GetByID(id)
	if err != nil {
		return nil, storeError("load property", err)
	}
	return p, nil
}

// StopInput creates a stop. Without RouteID the stop goes on the technician's
// route for DayOfWeek (monday when unset), which is created when missing.
type StopInput struct {
	RouteID        string  `json:"route_id"`
	TechnicianID   string  `json:"technician_id"`
	TechnicianName *string `json:"technician_name"`
	DayOfWeek      *int    `json:"day_of_week"`
	PropertyID     string  `json:"property_id"`
	PropertyName   string  `json:"property_name"`
	CustomerID     *string `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	PoolID         *string `json:"pool_id"`
	PoolName       string  `json:"pool_name"`
	WaterBodyType  string  `json:"water_body_type"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	Notes          string  `json:"notes"`
	SortOrder      *int    `json:"sort_order"`
	EstimatedTime  *int    `json:"estimated_time"`
	Frequency      string  `json:"frequency"`
	ScheduledDate  string  `json:"scheduled_date"`
	IsCoverage     bool    `json:"is_coverage"`
}

func (s *RouteService) CreateStop(in StopInput) (*models.RouteStop, error) {
	if in.PropertyID == "" {
		return nil, invalid("property_id is required")
	}

	var route *models.Route
	var err error
	switch {
	case in.RouteID != "":
		route, err = s.getRoute(in.RouteID)
	case in.TechnicianID != "":
		day := time.Monday
		if in.DayOfWeek != nil {
			if *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
				return nil, invalid("day_of_week must be between 0 (sunday) and 6 (saturday)")
			}
			day = time.Weekday(*in.DayOfWeek)
		}
		route, err = s.findOrCreateRoute(in.TechnicianID, in.TechnicianName, day)
	default:
		return nil, invalid("route_id or technician_id is required")
	}
	if err != nil {
		return nil, err
	}

	stop := &models.RouteStop{
		RouteID:       route.ID,
		PropertyID:    in.PropertyID,
		PropertyName:  in.PropertyName,
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		PoolID:        in.PoolID,
		PoolName:      in.PoolName,
		WaterBodyType: in.WaterBodyType,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		Zip:           in.Zip,
		Notes:         in.Notes,
		Frequency:     in.Frequency,
		IsCoverage:    in.IsCoverage,
	}
	if in.ScheduledDate != "" {
		d, err := weekdays.ParseDate(in.ScheduledDate)
		if err != nil {
			return nil, invalid("scheduled_date: %v", err)
		}
		stop.ScheduledDate = &d
	}
	if in.EstimatedTime != nil {
		stop.EstimatedTime = *in.EstimatedTime
	}

	if err := s.fillFromDirectory(stop); err != nil {
		return nil, err
	}
	applyStopDefaults(stop)

	if in.SortOrder != nil {
		stop.SortOrder = *in.SortOrder
	} else {
		next, err := s.stops.NextSortOrder(route.ID)
		if err != nil {
			return nil, storeError("next stop sort order", err)
		}
		stop.SortOrder = next
	}

	if err := s.stops.Create(stop); err != nil {
		return nil, storeError("create stop", err)
	}

	return stop, nil
}

// appendPropertyStop adds a stop for a directory property at the end of a route.
func (s *RouteService) appendPropertyStop(routeID, propertyID string) (*models.RouteStop, error) {
	next, err := s.stops.NextSortOrder(routeID)
	if err != nil {
		return nil, storeError("next stop sort order", err)
	}

	stop := &models.RouteStop{RouteID: routeID, PropertyID: propertyID, SortOrder: next}
	if err := s.fillFromDirectory(stop); err != nil {
		return nil, err
	}
	applyStopDefaults(stop)

	if err := s.stops.Create(stop); err != nil {
		return nil, storeError("create stop", err)
	}
	return stop, nil
}

func (s *RouteService) fillFromDirectory(stop *models.RouteStop) error {
	p, err := s.lookupProperty(stop.PropertyID)
	if err != nil || p == nil {
		return err
	}

	if stop.PropertyName == "" {
		stop.PropertyName = p.DisplayName()
	}
	if stop.CustomerID == nil {
		stop.CustomerID = p.CustomerID
	}
	if stop.CustomerName == "" {
		stop.CustomerName = p.CustomerName()
	}
	if stop.Address == "" {
		stop.Address = p.AddressLine1
		stop.City = p.City
		stop.State = p.State
		stop.Zip = p.Zip
	}
	return nil
}

func applyStopDefaults(stop *models.RouteStop) {
	if stop.PropertyName == "" {
		stop.PropertyName = defaultPropertyName
	}
	if stop.WaterBodyType == "" {
		stop.WaterBodyType = defaultWaterBodyType
	}
	if stop.EstimatedTime <= 0 {
		stop.EstimatedTime = defaultEstimatedTime
	}
	if stop.Frequency == "" {
		stop.Frequency = defaultFrequency
	}
}

// StopPatch updates a stop. Nil fields are left alone; an empty
// ScheduledDate clears the date.
type StopPatch struct {
	PropertyName  *string `json:"property_name"`
	CustomerName  *string `json:"customer_name"`
	PoolName      *string `json:"pool_name"`
	WaterBodyType *string `json:"water_body_type"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Zip           *string `json:"zip"`
	Notes         *string `json:"notes"`
	SortOrder     *int    `json:"sort_order"`
	EstimatedTime *int    `json:"estimated_time"`
	Frequency     *string `json:"frequency"`
	ScheduledDate *string `json:"scheduled_date"`
	IsCoverage    *bool   `json:"is_coverage"`
}

func (s *RouteService) UpdateStop(id string, patch StopPatch) (*models.RouteStop, error) {
	stop, err := s.getStop(id)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		in  *string
		out *string
	}{
		{patch.PropertyName, &stop.PropertyName},
		{patch.CustomerName, &stop.CustomerName},
		{patch.PoolName, &stop.PoolName},
		{patch.WaterBodyType, &stop.WaterBodyType},
		{patch.Address, &stop.Address},
		{patch.City, &stop.City},
		{patch.State, &stop.State},
		{patch.Zip, &stop.Zip},
		{patch.Notes, &stop.Notes},
		{patch.Frequency, &stop.Frequency},
	} {
		if f.in != nil {
			*f.out = *f.in
		}
	}

	if patch.SortOrder != nil {
		stop.SortOrder = *patch.SortOrder
	}
	if patch.EstimatedTime != nil {
		if *patch.EstimatedTime <= 0 {
			return nil, invalid("estimated_time must be positive")
		}
		stop.EstimatedTime = *patch.EstimatedTime
	}
	if patch.IsCoverage != nil {
		stop.IsCoverage = *patch.IsCoverage
	}
	if patch.ScheduledDate != nil {
		if *patch.ScheduledDate == "" {
			stop.ScheduledDate = nil
		} else {
			d, err := weekdays.ParseDate(*patch.ScheduledDate)
			if err != nil {
				return nil, invalid("scheduled_date: %v", err)
			}
			stop.ScheduledDate = &d
		}
	}

	if err := s.stops.Update(stop); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("stop", id)
		}
		return nil, storeError("update stop", err)
	}
	return stop, nil
}

func (s *RouteService) DeleteStop(id string) error {
	if err := s.stops.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("stop", id)
		}
		return storeError("delete stop", err)
	}
	return nil
}

// ReorderStops rewrites sort order so ids[i] gets i+1. All ids must belong to
// one route; stops of that route left out of ids follow in their current order.
func (s *RouteService) ReorderStops(ids []string) error {
	if len(ids) == 0 {
		return invalid("stop_ids must not be empty")
	}
	if dup := firstDuplicate(ids); dup != "" {
		return invalid("stop %q is listed twice", dup)
	}

	listed, err := s.stops.GetByIDs(ids)
	if err != nil {
		return storeError("load stops", err)
	}
	byID := make(map[string]*models.RouteStop, len(listed))
	for _, stop := range listed {
		byID[stop.ID] = stop
	}

	routeID := ""
	for _, id := range ids {
		stop, ok := byID[id]
		if !ok {
			return notFound("stop", id)
		}
		if routeID == "" {
			routeID = stop.RouteID
		} else if stop.RouteID != routeID {
			return invalid("stop_ids must belong to one route")
		}
	}

	current, err := s.stops.ListByRoute(routeID)
	if err != nil {
		return storeError("list route stops", err)
	}
	existing := make([]string, 0, len(current))
	for _, stop := range current {
		existing = append(existing, stop.ID)
	}

	if err := s.stops.Reorder(completeOrder(ids, existing)); err != nil {
		return storeError("reorder stops", err)
	}
	return nil
}

func (s *RouteService) getStop(id string) (*models.RouteStop, error) {
	stop, err := s.stops.GetByID(id)
	if err != nil {
		return nil, storeError("get stop", err)
	}
	if stop == nil {
		return nil, notFound("stop", id)
	}
	return stop, nil
}

// StopMove is either a PermanentMove or a TemporaryMove.
type StopMove interface {
	targetRoute() string
}

// PermanentMove puts the stop on another route for good.
type PermanentMove struct {
	RouteID string
}

// TemporaryMove shows the stop on another route for one date only. The stop
// keeps its own route.
type TemporaryMove struct {
	RouteID string
	Date    time.Time
}

func (m PermanentMove) targetRoute() string { return m.RouteID }
func (m TemporaryMove) targetRoute() string { return m.RouteID }

func (s *RouteService) MoveStop(id string, move StopMove) (*models.RouteStop, error) {
	if move == nil {
		return nil, invalid("move is required")
	}

	stop, err := s.getStop(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.getRoute(move.targetRoute()); err != nil {
		return nil, err
	}

	switch m := move.(type) {
	case PermanentMove:
		if err := s.stops.MovePermanently(stop.ID, m.RouteID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("stop", id)
			}
			return nil, storeError("move stop", err)
		}
		s.logger.WithFields(logrus.Fields{
			"stop_id":  stop.ID,
			"from":     stop.RouteID,
			"route_id": m.RouteID,
		}).Info("Stop moved permanently")
		return s.getStop(id)

	case TemporaryMove:
		if m.RouteID == stop.RouteID {
			return nil, invalid("stop is already on route %s", m.RouteID)
		}
		date := m.Date
		if date.IsZero() {
			date = s.now()
		}
		if err := s.stops.CreateMove(&models.RouteMove{
			StopID:           stop.ID,
			OriginalRouteID:  stop.RouteID,
			TemporaryRouteID: m.RouteID,
			MoveDate:         weekdays.Day(date),
		}); err != nil {
			return nil, storeError("record move", err)
		}
		return stop, nil
	}

	return nil, invalid("unsupported move %T", move)
}

// StopsOnDate lists what a route serves on date: its own stops minus those
// temporarily moved away, stops temporarily moved in, then occurrences
// scheduled on the route for that date.
func (s *RouteService) StopsOnDate(routeID string, date time.Time) ([]StopView, error) {
	if _, err := s.getRoute(routeID); err != nil {
		return nil, err
	}
	date = weekdays.Day(date)

	own, err := s.stops.ListByRoute(routeID)
	if err != nil {
		return nil, storeError("list route stops", err)
	}

	moves, err := s.stops.MovesOnDate(date)
	if err != nil {
		return nil, storeError("list moves", err)
	}
	latest := make(map[string]*models.RouteMove, len(moves))
	for _, m := range moves {
		latest[m.StopID] = m
	}

	views := make([]StopView, 0, len(own))
	for _, stop := range own {
		if m, ok := latest[stop.ID]; ok && m.TemporaryRouteID != routeID {
			continue
		}
		if stop.ScheduledDate != nil && !stop.ScheduledDate.Equal(date) {
			continue
		}
		views = append(views, stopView(stop))
	}

	var incoming []string
	for stopID, m := range latest {
		if m.TemporaryRouteID == routeID && m.OriginalRouteID != routeID {
			incoming = append(incoming, stopID)
		}
	}
	visitors, err := s.stops.GetByIDs(incoming)
	if err != nil {
		return nil, storeError("load moved stops", err)
	}
	for _, stop := range visitors {
		if stop.RouteID == routeID {
			continue
		}
		view := stopView(stop)
		from := stop.RouteID
		view.RouteID = routeID
		view.MovedFromRouteID = &from
		view.SortOrder = len(views) + 1
		views = append(views, view)
	}

	occurrences, err := s.occurrences.GetByRoute(routeID)
	if err != nil {
		return nil, storeError("list route occurrences", err)
	}
	var today []*models.ServiceOccurrence
	for _, occ := range occurrences {
		if occ.Date.Equal(date) {
			today = append(today, occ)
		}
	}
	occViews, err := s.occurrenceStops(today, len(views))
	if err != nil {
		return nil, err
	}

	return append(views, occViews...), nil
}

// TechnicianStops lists the stops on every route of a technician, dated
// stops first by date, then undated ones by weekday and sort order.
func (s *RouteService) TechnicianStops(technicianID string) ([]StopView, error) {
	routes, err := s.routes.ListByTechnician(technicianID)
	if err != nil {
		return nil, storeError("list technician routes", err)
	}

	dayOf := make(map[string]int, len(routes))
	views := []StopView{}
	for _, route := range routes {
		dayOf[route.ID] = (route.DayOfWeek + 6) % 7
		stops, err := s.stops.ListByRoute(route.ID)
		if err != nil {
			return nil, storeError("list route stops", err)
		}
		for _, stop := range stops {
			views = append(views, stopView(stop))
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		switch {
		case a.ScheduledDate != nil && b.ScheduledDate != nil:
			return a.ScheduledDate.Before(*b.ScheduledDate)
		case a.ScheduledDate != nil:
			return true
		case b.ScheduledDate != nil:
			return false
		}
		if dayOf[a.RouteID] != dayOf[b.RouteID] {
			return dayOf[a.RouteID] < dayOf[b.RouteID]
		}
		return a.SortOrder < b.SortOrder
	})

	return views, nil
}

// UnscheduledStopInput adds a property to the pool of stops waiting for a route.
type UnscheduledStopInput struct {
	PropertyID    string `json:"property_id"`
	PropertyName  string `json:"property_name"`
	CustomerName  string `json:"customer_name"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
	EstimatedTime *int   `json:"estimated_time"`
}

func (s *RouteService) ListUnscheduledStops() ([]*models.UnscheduledStop, error) {
	stops, err := s.unscheduled.List()
	if err != nil {
		return nil, storeError("list unscheduled stops", err)
	}
	return stops, nil
}

func (s *RouteService) CreateUnscheduledStop(in UnscheduledStopInput) (*models.UnscheduledStop, error) {
	if in.PropertyID == "" {
		return nil, invalid("property_id is required")
	}

	stop := &models.UnscheduledStop{
		PropertyID:    in.PropertyID,
		PropertyName:  in.PropertyName,
		CustomerName:  in.CustomerName,
		Address:       in.Address,
		Notes:         in.Notes,
		EstimatedTime: defaultEstimatedTime,
	}
	if in.EstimatedTime != nil && *in.EstimatedTime > 0 {
		stop.EstimatedTime = *in.EstimatedTime
	}

	p, err := s.lookupProperty(in.PropertyID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		if stop.PropertyName == "" {
			stop.PropertyName = p.DisplayName()
		}
		if stop.CustomerName == "" {
			stop.CustomerName = p.CustomerName()
		}
		if stop.Address == "" {
			stop.Address = p.FullAddress()
		}
	}
	if stop.PropertyName == "" {
		stop.PropertyName = defaultPropertyName
	}

	if err := s.unscheduled.Create(stop); err != nil {
		return nil, storeError("create unscheduled stop", err)
	}
	return stop, nil
}

func (s *RouteService) DeleteUnscheduledStop(id string) error {
	if err := s.unscheduled.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("unscheduled stop", id)
		}
		return storeError("delete unscheduled stop", err)
	}
	return nil
}

// AssignUnscheduledStop moves a pooled stop onto the end of a route.
func (s *RouteService) AssignUnscheduledStop(id, routeID string) (*models.RouteStop, error) {
	pooled, err := s.unscheduled.GetByID(id)
	if err != nil {
		return nil, storeError("get unscheduled stop", err)
	}
	if pooled == nil {
		return nil, notFound("unscheduled stop", id)
	}
	if _, err := s.getRoute(routeID); err != nil {
		return nil, err
	}

	next, err := s.stops.NextSortOrder(routeID)
	if err != nil {
		return nil, storeError("next stop sort order", err)
	}

	stop := &models.RouteStop{
		RouteID:       routeID,
		PropertyID:    pooled.PropertyID,
		PropertyName:  pooled.PropertyName,
		CustomerName:  pooled.CustomerName,
		Address:       pooled.Address,
		Notes:         pooled.Notes,
		EstimatedTime: pooled.EstimatedTime,
		SortOrder:     next,
	}
	applyStopDefaults(stop)

	if err := s.unscheduled.Schedule(id, stop); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("unscheduled stop", id)
		}
		return nil, storeError("schedule pooled stop", err)
	}
	return stop, nil
}

// SyncStopsFromAssignments makes sure every property with an assigned
// technician has a stop on that technician's route for each active visit day.
// It returns the number of stops created.
func (s *RouteService) SyncStopsFromAssignments() (int, error) {
	assignments, err := s.assignments.ListAll()
	if err != nil {
		return 0, storeError("list property technicians", err)
	}

	created := 0
	for _, a := range assignments {
		schedule, err := s.schedules.GetByPropertyID(a.PropertyID)
		if err != nil {
			return created, storeError("get schedule", err)
		}
		if schedule == nil || !schedule.IsActive {
			continue
		}

		for _, name := range schedule.ActiveDays() {
			day, err := weekdays.Parse(name)
			if err != nil {
				continue
			}

			route, err := s.findOrCreateRoute(a.TechnicianID, a.TechnicianName, day)
			if err != nil {
				return created, err
			}

			exists, err := s.stops.ExistsOnRoute(route.ID, a.PropertyID)
			if err != nil {
				return created, storeError("check route stop", err)
			}
			if exists {
				continue
			}

			if _, err := s.appendPropertyStop(route.ID, a.PropertyID); err != nil {
				return created, err
			}
			created++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"assignments": len(assignments),
		"created":     created,
	}).Info("Route stops synced from property assignments")

	return created, nil
}
