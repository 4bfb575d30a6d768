package service

import (
	"pool-route-scheduler/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopIDs(views []StopView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestCreateStop_LazilyCreatesTechnicianRoute(t *testing.T) {
	env := newTestEnv(t)
	env.createTechnician(t, "t1", "Dana", "Reyes")

	wednesday := int(time.Wednesday)
	first, err := env.routes.CreateStop(StopInput{
		TechnicianID: "t1",
		DayOfWeek:    &wednesday,
		PropertyID:   "P1",
	})
	require.NoError(t, err)

	route, err := env.routes.GetRoute(first.RouteID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes's Wednesday Route", route.Name)
	assert.Equal(t, int(time.Wednesday), route.DayOfWeek)
	assert.Equal(t, models.DefaultRouteColor, route.Color)
	require.NotNil(t, route.TechnicianID)
	assert.Equal(t, "t1", *route.TechnicianID)

	assert.Equal(t, "Unknown Property", first.PropertyName)
	assert.Equal(t, "Pool", first.WaterBodyType)
	assert.Equal(t, 30, first.EstimatedTime)
	assert.Equal(t, "weekly", first.Frequency)
	assert.Equal(t, 1, first.SortOrder)

	second, err := env.routes.CreateStop(StopInput{
		TechnicianID: "t1",
		DayOfWeek:    &wednesday,
		PropertyID:   "P2",
		PropertyName: "Bayside Villas",
	})
	require.NoError(t, err)
	assert.Equal(t, first.RouteID, second.RouteID, "the existing route is reused")
	assert.Equal(t, 2, second.SortOrder)

	monday, err := env.routes.CreateStop(StopInput{TechnicianID: "t1", PropertyID: "P3"})
	require.NoError(t, err)
	mondayRoute, err := env.routes.GetRoute(monday.RouteID)
	require.NoError(t, err)
	assert.Equal(t, int(time.Monday), mondayRoute.DayOfWeek, "day defaults to monday")

	_, err = env.routes.CreateStop(StopInput{PropertyID: "P4"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.routes.CreateStop(StopInput{RouteID: "missing", PropertyID: "P4"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateStop_FillsFromPropertyDirectory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.properties.CreateCustomer(&models.Customer{ID: "c1", Name: "Harbor HOA"}))
	require.NoError(t, env.properties.Create(&models.Property{
		ID: "P1", CustomerID: strPtr("c1"), AddressLine1: "12 Palm Way", City: "Tampa", State: "FL", Zip: "33602",
	}))
	route := env.createRoute(t, "Tuesday", time.Tuesday, "")

	stop, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: "P1"})
	require.NoError(t, err)
	assert.Equal(t, "12 Palm Way", stop.PropertyName)
	assert.Equal(t, "Harbor HOA", stop.CustomerName)
	assert.Equal(t, "Tampa", stop.City)
	require.NotNil(t, stop.CustomerID)
	assert.Equal(t, "c1", *stop.CustomerID)
}

func TestListRoutes_MergesStopsAndOccurrences(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday North", time.Monday, "t1")
	env.createRoute(t, "Friday South", time.Friday, "t2")

	for _, p := range []string{"P1", "P2"} {
		_, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: p})
		require.NoError(t, err)
	}

	schedule := env.saveSchedule(t, "P3", models.SeasonSummer, []string{"monday"}, nil)
	created, err := env.occurrences.GenerateForSchedule(schedule, day(2024, 6, 3), day(2024, 6, 3))
	require.NoError(t, err)
	_, err = env.occurrences.Assign(created[0].ID, route.ID, nil)
	require.NoError(t, err)

	monday := int(time.Monday)
	routes, err := env.routes.ListRoutes(&monday)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	stops := routes[0].Stops
	require.Len(t, stops, 3)
	assert.False(t, stops[0].IsOccurrence)
	assert.False(t, stops[1].IsOccurrence)
	assert.True(t, stops[2].IsOccurrence)
	assert.Equal(t, created[0].ID, stops[2].ID)
	assert.Equal(t, 3, stops[2].SortOrder)
	assert.Equal(t, models.OccurrenceScheduled, stops[2].Status)

	all, err := env.routes.ListRoutes(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReorderStops_RewritesWholeOrder(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")

	var ids []string
	for _, p := range []string{"a", "b", "c"} {
		stop, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: p})
		require.NoError(t, err)
		ids = append(ids, stop.ID)
	}
	a, b, c := ids[0], ids[1], ids[2]

	require.NoError(t, env.routes.ReorderStops([]string{c, a, b}))

	got, err := env.routes.GetRoute(route.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, stopIDs(got.Stops))
	assert.Equal(t, 1, got.Stops[0].SortOrder)
	assert.Equal(t, 2, got.Stops[1].SortOrder)
	assert.Equal(t, 3, got.Stops[2].SortOrder)

	assert.ErrorIs(t, env.routes.ReorderStops(nil), ErrValidation)
}

func TestReorderStops_PartialListKeepsPositionsUnique(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")
	other := env.createRoute(t, "Tuesday", time.Tuesday, "")

	var ids []string
	for _, p := range []string{"a", "b", "c"} {
		stop, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: p})
		require.NoError(t, err)
		ids = append(ids, stop.ID)
	}
	a, b, c := ids[0], ids[1], ids[2]
	elsewhere, err := env.routes.CreateStop(StopInput{RouteID: other.ID, PropertyID: "d"})
	require.NoError(t, err)

	require.NoError(t, env.routes.ReorderStops([]string{c, a}))

	got, err := env.routes.GetRoute(route.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, stopIDs(got.Stops), "unlisted stops follow the listed ones")
	for i, stop := range got.Stops {
		assert.Equal(t, i+1, stop.SortOrder)
	}

	assert.ErrorIs(t, env.routes.ReorderStops([]string{a, elsewhere.ID}), ErrValidation, "mixed routes")
	assert.ErrorIs(t, env.routes.ReorderStops([]string{a, "missing"}), ErrNotFound)
	assert.ErrorIs(t, env.routes.ReorderStops([]string{a, a}), ErrValidation)

	got, err = env.routes.GetRoute(route.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, stopIDs(got.Stops), "rejected lists change nothing")
}

func TestReorderRoutes(t *testing.T) {
	env := newTestEnv(t)
	first := env.createRoute(t, "A", time.Monday, "")
	second := env.createRoute(t, "B", time.Monday, "")

	require.NoError(t, env.routes.ReorderRoutes([]string{second.ID, first.ID}))

	routes, err := env.routes.ListRoutes(nil)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, second.ID, routes[0].ID)
	assert.Equal(t, 1, routes[0].SortOrder)
	assert.Equal(t, 2, routes[1].SortOrder)

	third := env.createRoute(t, "C", time.Monday, "")
	require.NoError(t, env.routes.ReorderRoutes([]string{third.ID}))

	routes, err = env.routes.ListRoutes(nil)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{routes[0].ID, routes[1].ID, routes[2].ID})
	assert.Equal(t, 3, routes[2].SortOrder)

	assert.ErrorIs(t, env.routes.ReorderRoutes([]string{"missing"}), ErrNotFound)
}

func TestMoveStop(t *testing.T) {
	env := newTestEnv(t)
	monday := env.createRoute(t, "Monday", time.Monday, "")
	tuesday := env.createRoute(t, "Tuesday", time.Tuesday, "")

	stop, err := env.routes.CreateStop(StopInput{RouteID: monday.ID, PropertyID: "P1"})
	require.NoError(t, err)
	keep, err := env.routes.CreateStop(StopInput{RouteID: monday.ID, PropertyID: "P2"})
	require.NoError(t, err)

	moveDate := day(2024, 6, 3)
	moved, err := env.routes.MoveStop(stop.ID, TemporaryMove{RouteID: tuesday.ID, Date: moveDate})
	require.NoError(t, err)
	assert.Equal(t, monday.ID, moved.RouteID, "a temporary move leaves the stop on its route")

	onMonday, err := env.routes.StopsOnDate(monday.ID, moveDate)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, stopIDs(onMonday))

	onTuesday, err := env.routes.StopsOnDate(tuesday.ID, moveDate)
	require.NoError(t, err)
	require.Len(t, onTuesday, 1)
	assert.Equal(t, stop.ID, onTuesday[0].ID)
	require.NotNil(t, onTuesday[0].MovedFromRouteID)
	assert.Equal(t, monday.ID, *onTuesday[0].MovedFromRouteID)

	nextWeek, err := env.routes.StopsOnDate(monday.ID, moveDate.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{stop.ID, keep.ID}, stopIDs(nextWeek))

	moved, err = env.routes.MoveStop(stop.ID, PermanentMove{RouteID: tuesday.ID})
	require.NoError(t, err)
	assert.Equal(t, tuesday.ID, moved.RouteID)

	_, err = env.routes.MoveStop(stop.ID, PermanentMove{RouteID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.routes.MoveStop("missing", PermanentMove{RouteID: tuesday.ID})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.routes.MoveStop(stop.ID, TemporaryMove{RouteID: tuesday.ID})
	assert.ErrorIs(t, err, ErrValidation, "stop already lives on the target route")
}

func TestDeleteRoute_CascadesStops(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")
	stop, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: "P1"})
	require.NoError(t, err)

	require.NoError(t, env.routes.DeleteRoute(route.ID))

	_, err = env.routes.GetRoute(route.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.routes.DeleteStop(stop.ID), ErrNotFound)
	assert.ErrorIs(t, env.routes.DeleteRoute(route.ID), ErrNotFound)
}

func TestDeleteRoute_ReturnsOccurrencesToPool(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "t1")
	schedule := env.saveSchedule(t, "P1", models.SeasonSummer, []string{"monday"}, nil)
	created, err := env.occurrences.GenerateForSchedule(schedule, day(2024, 6, 3), day(2024, 6, 3))
	require.NoError(t, err)
	require.Len(t, created, 1)
	_, err = env.occurrences.Assign(created[0].ID, route.ID, nil)
	require.NoError(t, err)

	require.NoError(t, env.routes.DeleteRoute(route.ID))

	occurrences, err := env.occurrences.ListByProperty("P1")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, models.OccurrenceUnscheduled, occurrences[0].Status)
	assert.Nil(t, occurrences[0].RouteID)
	assert.Nil(t, occurrences[0].TechnicianID)

	pool, err := env.occurrences.ListUnscheduled(day(2024, 6, 3), day(2024, 6, 3))
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, created[0].ID, pool[0].ID)
}

func TestUpdateRouteAndStop(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")

	name := "Monday West"
	date := "2024-06-10"
	updated, err := env.routes.UpdateRoute(route.ID, RouteInput{Name: &name, Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "Monday West", updated.Name)
	require.NotNil(t, updated.Date)

	dated, err := env.routes.ListRoutesByDateRange(day(2024, 6, 10), day(2024, 6, 16))
	require.NoError(t, err)
	require.Len(t, dated, 1)

	noDate := ""
	updated, err = env.routes.UpdateRoute(route.ID, RouteInput{Date: &noDate})
	require.NoError(t, err)
	assert.Nil(t, updated.Date)

	bad := 9
	_, err = env.routes.UpdateRoute(route.ID, RouteInput{DayOfWeek: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	stop, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: "P1"})
	require.NoError(t, err)
	notes := "gate code 4411"
	patched, err := env.routes.UpdateStop(stop.ID, StopPatch{Notes: &notes, EstimatedTime: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, "gate code 4411", patched.Notes)
	assert.Equal(t, 45, patched.EstimatedTime)

	_, err = env.routes.UpdateStop("missing", StopPatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTechnicianStops_DatedFirst(t *testing.T) {
	env := newTestEnv(t)
	tuesday := env.createRoute(t, "Tuesday", time.Tuesday, "t1")
	monday := env.createRoute(t, "Monday", time.Monday, "t1")

	undatedTue, err := env.routes.CreateStop(StopInput{RouteID: tuesday.ID, PropertyID: "P1"})
	require.NoError(t, err)
	undatedMon, err := env.routes.CreateStop(StopInput{RouteID: monday.ID, PropertyID: "P2"})
	require.NoError(t, err)
	dated, err := env.routes.CreateStop(StopInput{RouteID: tuesday.ID, PropertyID: "P3", ScheduledDate: "2024-06-04"})
	require.NoError(t, err)

	stops, err := env.routes.TechnicianStops("t1")
	require.NoError(t, err)
	assert.Equal(t, []string{dated.ID, undatedMon.ID, undatedTue.ID}, stopIDs(stops))
}

func TestUnscheduledStopPool(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")
	_, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: "P1"})
	require.NoError(t, err)

	pooled, err := env.routes.CreateUnscheduledStop(UnscheduledStopInput{PropertyID: "P9", Notes: "new customer"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Property", pooled.PropertyName)
	assert.Equal(t, 30, pooled.EstimatedTime)

	list, err := env.routes.ListUnscheduledStops()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stop, err := env.routes.AssignUnscheduledStop(pooled.ID, route.ID)
	require.NoError(t, err)
	assert.Equal(t, route.ID, stop.RouteID)
	assert.Equal(t, 2, stop.SortOrder)
	assert.Equal(t, "new customer", stop.Notes)

	list, err = env.routes.ListUnscheduledStops()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.routes.AssignUnscheduledStop(pooled.ID, route.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.routes.DeleteUnscheduledStop(pooled.ID), ErrNotFound)
}

func TestSyncStopsFromAssignments(t *testing.T) {
	env := newTestEnv(t)
	env.createTechnician(t, "t1", "Dana", "Reyes")
	env.saveSchedule(t, "P1", models.SeasonSummer, []string{"monday", "thursday"}, nil)
	env.saveSchedule(t, "P2", models.SeasonWinter, []string{"monday"}, nil)

	_, err := env.assignments.AssignTechnician("P1", AssignmentInput{TechnicianID: "t1"})
	require.NoError(t, err)
	_, err = env.assignments.AssignTechnician("P2", AssignmentInput{TechnicianID: "t1"})
	require.NoError(t, err)

	created, err := env.routes.SyncStopsFromAssignments()
	require.NoError(t, err)
	assert.Equal(t, 2, created, "P2 has no winter days")

	created, err = env.routes.SyncStopsFromAssignments()
	require.NoError(t, err)
	assert.Zero(t, created)

	routes, err := env.routes.ListRoutes(nil)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	names := []string{routes[0].Name, routes[1].Name}
	assert.ElementsMatch(t, []string{"Dana Reyes's Monday Route", "Dana Reyes's Thursday Route"}, names)
}

func TestResetSchedulingData(t *testing.T) {
	env := newTestEnv(t)
	route := env.createRoute(t, "Monday", time.Monday, "")
	_, err := env.routes.CreateStop(StopInput{RouteID: route.ID, PropertyID: "P1"})
	require.NoError(t, err)
	_, err = env.routes.CreateUnscheduledStop(UnscheduledStopInput{PropertyID: "P2"})
	require.NoError(t, err)

	schedule := env.saveSchedule(t, "P3", models.SeasonSummer, []string{"monday"}, nil)
	created, err := env.occurrences.GenerateForSchedule(schedule, day(2024, 6, 3), day(2024, 6, 3))
	require.NoError(t, err)
	_, err = env.occurrences.Assign(created[0].ID, route.ID, nil)
	require.NoError(t, err)

	counts, err := env.routes.ResetSchedulingData()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Routes)
	assert.Equal(t, int64(1), counts.Stops)
	assert.Equal(t, int64(1), counts.Unscheduled)
	assert.Equal(t, int64(1), counts.UnassignedOccurrences)

	occurrences, err := env.occurrences.ListByProperty("P3")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, models.OccurrenceUnscheduled, occurrences[0].Status)
	assert.Nil(t, occurrences[0].RouteID)
}
