package service

import (
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/pkg/weekdays"
	"time"

	"github.com/sirupsen/logrus"
)

// SchedulePatch carries the fields of an upsert. Nil fields keep their current
// value, or the default for a new schedule.
//
// VisitPattern is office shorthand such as "M W F" or "5 days". It replaces the
// day set of the active season and wins over the explicit day lists.
type SchedulePatch struct {
	ActiveSeason    *string   `json:"active_season"`
	SummerVisitDays *[]string `json:"summer_visit_days"`
	WinterVisitDays *[]string `json:"winter_visit_days"`
	VisitDays       *[]string `json:"visit_days"`
	VisitPattern    *string   `json:"visit_pattern"`
	IsActive        *bool     `json:"is_active"`
}

type ScheduleService struct {
	repo        repository.ScheduleRepository
	occurrences *OccurrenceService
	logger      *logrus.Logger
	now         func() time.Time
}

func NewScheduleService(repo repository.ScheduleRepository, occurrences *OccurrenceService) *ScheduleService {
	return &ScheduleService{
		repo:        repo,
		occurrences: occurrences,
		logger:      logger.New(),
		now:         time.Now,
	}
}

func (s *ScheduleService) GetByProperty(propertyID string) (*models.RouteSchedule, error) {
	schedule, err := s.repo.GetByPropertyID(propertyID)
	if err != nil {
		return nil, storeError("get schedule", err)
	}
	return schedule, nil
}

// Upsert creates or patches the schedule of a property, then replaces every
// occurrence sourced from it with a fresh generation for the current week.
func (s *ScheduleService) Upsert(propertyID string, patch SchedulePatch) (*models.RouteSchedule, error) {
	if propertyID == "" {
		return nil, invalid("property_id is required")
	}

	schedule, err := s.repo.GetByPropertyID(propertyID)
	if err != nil {
		return nil, storeError("get schedule", err)
	}
	if schedule == nil {
		schedule = &models.RouteSchedule{
			PropertyID:   propertyID,
			ActiveSeason: models.SeasonSummer,
			IsActive:     true,
		}
	}

	if err := applySchedulePatch(schedule, patch); err != nil {
		return nil, err
	}

	if err := s.repo.Save(schedule); err != nil {
		return nil, storeError("save schedule", err)
	}

	weekStart := weekdays.WeekStart(s.now())
	generated, err := s.occurrences.Regenerate(schedule, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": propertyID,
		"season":      schedule.ActiveSeason,
		"days":        schedule.ActiveDays(),
		"generated":   len(generated),
	}).Info("Route schedule upserted")

	return schedule, nil
}

func applySchedulePatch(schedule *models.RouteSchedule, patch SchedulePatch) error {
	var problems []string

	if patch.ActiveSeason != nil {
		switch *patch.ActiveSeason {
		case models.SeasonSummer, models.SeasonWinter:
			schedule.ActiveSeason = *patch.ActiveSeason
		default:
			problems = append(problems, "active_season must be summer or winter")
		}
	}

	days := []struct {
		field string
		in    *[]string
		out   *[]string
	}{
		{"summer_visit_days", patch.SummerVisitDays, (*[]string)(&schedule.SummerVisitDays)},
		{"winter_visit_days", patch.WinterVisitDays, (*[]string)(&schedule.WinterVisitDays)},
		{"visit_days", patch.VisitDays, (*[]string)(&schedule.VisitDays)},
	}
	for _, d := range days {
		if d.in == nil {
			continue
		}
		normalized, err := weekdays.Normalize(*d.in)
		if err != nil {
			problems = append(problems, d.field+": "+err.Error())
			continue
		}
		*d.out = normalized
	}

	if patch.VisitPattern != nil {
		parsed, err := weekdays.ParseShorthand(*patch.VisitPattern)
		switch {
		case err != nil:
			problems = append(problems, "visit_pattern: "+err.Error())
		case schedule.ActiveSeason == models.SeasonWinter:
			schedule.WinterVisitDays = parsed
		default:
			schedule.SummerVisitDays = parsed
		}
	}

	if patch.IsActive != nil {
		schedule.IsActive = *patch.IsActive
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
