package service

import (
	"errors"
	"fmt"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/pkg/weekdays"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// OverrideInput is one coverage override as submitted by a dispatcher.
// Dates are YYYY-MM-DD.
type OverrideInput struct {
	Date                   string     `json:"date"`
	StartDate              string     `json:"start_date"`
	EndDate                string     `json:"end_date"`
	CoverageType           string     `json:"coverage_type"`
	SplitDays              []string   `json:"split_days"`
	PropertyID             string     `json:"property_id"`
	PropertyName           string     `json:"property_name"`
	OriginalTechnicianID   FlexibleID `json:"original_technician_id"`
	OriginalTechnicianName *string    `json:"original_technician_name"`
	CoveringTechnicianID   FlexibleID `json:"covering_technician_id"`
	CoveringTechnicianName *string    `json:"covering_technician_name"`
	OverrideType           string     `json:"override_type"`
	Reason                 string     `json:"reason"`
	Notes                  string     `json:"notes"`
	CreatedByUserID        FlexibleID `json:"created_by_user_id"`
	CreatedByName          *string    `json:"created_by_name"`
}

type overrideRules struct {
	PropertyID           string `json:"property_id" validate:"required"`
	CoveringTechnicianID string `json:"covering_technician_id" validate:"required"`
	CoverageType         string `json:"coverage_type" validate:"omitempty,oneof=single_day extended_cover split_route"`
	OverrideType         string `json:"override_type" validate:"omitempty,oneof=reassign split cancel"`
}

type batchOverrideRules struct {
	Date                   string `json:"date" validate:"required"`
	PropertyID             string `json:"property_id" validate:"required"`
	PropertyName           string `json:"property_name" validate:"required"`
	CoveringTechnicianID   string `json:"covering_technician_id" validate:"required"`
	CoveringTechnicianName string `json:"covering_technician_name" validate:"required"`
	CoverageType           string `json:"coverage_type" validate:"omitempty,oneof=single_day extended_cover split_route"`
	OverrideType           string `json:"override_type" validate:"required,oneof=reassign split cancel"`
}

// OverrideQuery filters overrides. TechnicianID matches the original or the
// covering technician.
type OverrideQuery struct {
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
	TechnicianID string `form:"technician_id"`
	PropertyID   string `form:"property_id"`
	Reason       string `form:"reason"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type OverridePage struct {
	Data       []*models.RouteOverride `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// CoveringPatch reassigns the covering side of an override. A null id means
// nobody covers.
type CoveringPatch struct {
	CoveringTechnicianID   FlexibleID `json:"covering_technician_id"`
	CoveringTechnicianName *string    `json:"covering_technician_name"`
}

type OverrideService struct {
	repo        repository.OverrideRepository
	technicians TechnicianDirectory
	validate    *validator.Validate
	logger      *logrus.Logger
}

func NewOverrideService(repo repository.OverrideRepository, technicians TechnicianDirectory) *OverrideService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &OverrideService{
		repo:        repo,
		technicians: technicians,
		validate:    validate,
		logger:      logger.New(),
	}
}

func (s *OverrideService) Create(in OverrideInput) (*models.RouteOverride, error) {
	problems := s.check(overrideRules{
		PropertyID:           in.PropertyID,
		CoveringTechnicianID: in.CoveringTechnicianID.String(),
		CoverageType:         in.CoverageType,
		OverrideType:         in.OverrideType,
	})

	override, buildProblems := buildOverride(in)
	problems = append(problems, buildProblems...)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if err := s.repo.Create(override); err != nil {
		return nil, storeError("create override", err)
	}
	return override, nil
}

// CreateBatch validates every entry first and then writes all of them in one
// transaction. Nothing is written when any entry is invalid.
func (s *OverrideService) CreateBatch(inputs []OverrideInput) ([]*models.RouteOverride, error) {
	if len(inputs) == 0 {
		return nil, invalid("overrides must not be empty")
	}

	var problems []string
	overrides := make([]*models.RouteOverride, 0, len(inputs))
	for i, in := range inputs {
		entryProblems := s.check(batchOverrideRules{
			Date:                   in.Date,
			PropertyID:             in.PropertyID,
			PropertyName:           in.PropertyName,
			CoveringTechnicianID:   in.CoveringTechnicianID.String(),
			CoveringTechnicianName: deref(in.CoveringTechnicianName),
			CoverageType:           in.CoverageType,
			OverrideType:           in.OverrideType,
		})

		override, buildProblems := buildOverride(in)
		entryProblems = append(entryProblems, buildProblems...)

		seen := make(map[string]bool, len(entryProblems))
		for _, p := range entryProblems {
			if seen[p] {
				continue
			}
			seen[p] = true
			problems = append(problems, fmt.Sprintf("overrides[%d].%s", i, p))
		}
		overrides = append(overrides, override)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if err := s.repo.CreateBatch(overrides); err != nil {
		return nil, storeError("create override batch", err)
	}

	s.logger.WithField("count", len(overrides)).Info("Override batch created")
	return overrides, nil
}

func (s *OverrideService) check(rules interface{}) []string {
	err := s.validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fe.Field()+" is required")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return problems
}

// buildOverride converts the input and reports date and split-day problems.
func buildOverride(in OverrideInput) (*models.RouteOverride, []string) {
	var problems []string

	o := &models.RouteOverride{
		CoverageType:           in.CoverageType,
		PropertyID:             in.PropertyID,
		PropertyName:           in.PropertyName,
		OriginalTechnicianID:   in.OriginalTechnicianID.Ptr(),
		OriginalTechnicianName: in.OriginalTechnicianName,
		CoveringTechnicianID:   in.CoveringTechnicianID.Ptr(),
		CoveringTechnicianName: in.CoveringTechnicianName,
		OverrideType:           in.OverrideType,
		Reason:                 in.Reason,
		Notes:                  in.Notes,
		CreatedByUserID:        in.CreatedByUserID.Ptr(),
		CreatedByName:          in.CreatedByName,
		Active:                 true,
	}
	if o.CoverageType == "" {
		o.CoverageType = models.CoverageSingleDay
	}
	if o.OverrideType == "" {
		o.OverrideType = models.DefaultOverrideType(o.CoverageType)
	}

	parse := func(field, value string) *time.Time {
		if value == "" {
			return nil
		}
		d, err := weekdays.ParseDate(value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", field, err))
			return nil
		}
		return &d
	}

	date := parse("date", in.Date)
	start := parse("start_date", in.StartDate)
	end := parse("end_date", in.EndDate)

	if o.IsRange() {
		if in.StartDate == "" {
			problems = append(problems, "start_date is required for "+o.CoverageType)
		}
		o.StartDate = start
		o.EndDate = end
		if start != nil && end != nil && end.Before(*start) {
			problems = append(problems, "end_date must not be before start_date")
		}
		if date == nil && in.Date == "" {
			date = start
		}
	}

	if date != nil {
		o.Date = *date
	} else if in.Date == "" && !o.IsRange() {
		problems = append(problems, "date is required")
	}

	if o.CoverageType == models.CoverageSplitRoute {
		days, err := weekdays.Normalize(in.SplitDays)
		switch {
		case err != nil:
			problems = append(problems, "split_days: "+err.Error())
		case len(days) == 0:
			problems = append(problems, "split_days is required for split_route")
		default:
			o.SplitDays = days
		}
	}

	return o, problems
}

func (s *OverrideService) Query(q OverrideQuery) ([]*models.RouteOverride, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}

	overrides, err := s.repo.Find(filter)
	if err != nil {
		return nil, storeError("query overrides", err)
	}
	return overrides, nil
}

// History pages through overrides newest first. page starts at 1.
func (s *OverrideService) History(q OverrideQuery, page, limit int) (*OverridePage, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	overrides, total, err := s.repo.FindPage(filter, (page-1)*limit, limit)
	if err != nil {
		return nil, storeError("page override history", err)
	}

	return &OverridePage{
		Data: overrides,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// ByDate returns the active overrides in effect on date, including range
// overrides whose window and split days cover it.
func (s *OverrideService) ByDate(date string) ([]*models.RouteOverride, error) {
	day, err := weekdays.ParseDate(date)
	if err != nil {
		return nil, invalid("date: %v", err)
	}

	candidates, err := s.repo.FindCovering(day)
	if err != nil {
		return nil, storeError("find overrides by date", err)
	}

	result := make([]*models.RouteOverride, 0, len(candidates))
	for _, o := range candidates {
		if o.CoversDate(day) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (s *OverrideService) PatchCovering(id string, patch CoveringPatch) (*models.RouteOverride, error) {
	technicianID := patch.CoveringTechnicianID.Ptr()
	name := patch.CoveringTechnicianName
	if technicianID != nil && (name == nil || *name == "") {
		name = stringPtr(lookupTechnicianName(s.technicians, *technicianID))
	}
	if technicianID == nil {
		name = nil
	}

	if err := s.repo.UpdateCovering(id, technicianID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("override", id)
		}
		return nil, storeError("update covering technician", err)
	}

	override, err := s.repo.GetByID(id)
	if err != nil {
		return nil, storeError("get override", err)
	}
	if override == nil {
		return nil, notFound("override", id)
	}
	return override, nil
}

func (s *OverrideService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("override", id)
		}
		return storeError("delete override", err)
	}
	return nil
}

func (q OverrideQuery) filter() (repository.OverrideFilter, error) {
	filter := repository.OverrideFilter{
		TechnicianID: q.TechnicianID,
		PropertyID:   q.PropertyID,
		Reason:       q.Reason,
	}

	var problems []string
	if q.StartDate != "" {
		d, err := weekdays.ParseDate(q.StartDate)
		if err != nil {
			problems = append(problems, "start_date: "+err.Error())
		} else {
			filter.StartDate = &d
		}
	}
	if q.EndDate != "" {
		d, err := weekdays.ParseDate(q.EndDate)
		if err != nil {
			problems = append(problems, "end_date: "+err.Error())
		} else {
			filter.EndDate = &d
		}
	}
	if len(problems) > 0 {
		return filter, &ValidationError{Problems: problems}
	}
	return filter, nil
}
