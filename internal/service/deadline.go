package service

import (
	"errors"
	"fmt"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/metrics"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const unknownTechnician = "Unknown Technician"

// Notifier delivers dispatch messages, e.g. to a Telegram chat.
type Notifier interface {
	Notify(message string) error
}

// SweepResult summarizes one deadline sweep.
type SweepResult struct {
	Matched  int `json:"matched"`
	Returned int `json:"returned"`
	Failed   int `json:"failed"`
}

// DeadlineSweeper returns overdue repair jobs to the approved queue on a
// fixed interval.
type DeadlineSweeper struct {
	repo        repository.EstimateRepository
	technicians TechnicianDirectory
	notifier    Notifier
	logger      *logrus.Logger
	now         func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewDeadlineSweeper builds a stopped sweeper. notifier may be nil.
func NewDeadlineSweeper(repo repository.EstimateRepository, technicians TechnicianDirectory, notifier Notifier) *DeadlineSweeper {
	return &DeadlineSweeper{
		repo:        repo,
		technicians: technicians,
		notifier:    notifier,
		logger:      logger.New(),
		now:         time.Now,
	}
}

// Start runs one sweep right away and then every intervalMinutes.
// Starting a running sweeper does nothing.
func (s *DeadlineSweeper) Start(intervalMinutes int) error {
	if intervalMinutes <= 0 {
		return invalid("sweep interval must be positive, got %d minutes", intervalMinutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.logger.Info("Deadline sweeper already running")
		return nil
	}

	cronLogger := cron.PrintfLogger(s.logger)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %dm", intervalMinutes), s.tick); err != nil {
		return fmt.Errorf("schedule deadline sweep: %w", err)
	}

	s.tick()
	c.Start()
	s.cron = c

	s.logger.WithField("interval_minutes", intervalMinutes).Info("Deadline sweeper started")
	return nil
}

// Stop cancels future sweeps and waits for a running one to finish.
func (s *DeadlineSweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	<-c.Stop().Done()
	s.logger.Info("Deadline sweeper stopped")
}

func (s *DeadlineSweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *DeadlineSweeper) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Deadline sweep panicked")
			metrics.RecordSweep("error", 0, 0)
		}
	}()

	s.SweepOnce(s.now())
}

// SweepOnce returns every job whose deadline passed before now. A job that
// fails is logged and skipped; the others are still processed.
func (s *DeadlineSweeper) SweepOnce(now time.Time) SweepResult {
	now = now.UTC()
	var result SweepResult

	jobs, err := s.repo.FindOverdue(now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to query overdue jobs")
		metrics.RecordSweep("error", 0, 0)
		return result
	}
	result.Matched = len(jobs)

	for _, job := range jobs {
		if !job.IsOverdue(now) {
			s.logger.WithField("job_id", job.ID).Debug("Skipping job that is no longer overdue")
			continue
		}
		returned, err := s.returnJob(job, now)
		if err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to auto-return job")
			continue
		}
		if returned {
			result.Returned++
		}
	}

	metrics.RecordSweep("ok", result.Returned, result.Failed)
	if result.Matched > 0 {
		s.logger.WithFields(logrus.Fields{
			"matched":  result.Matched,
			"returned": result.Returned,
			"failed":   result.Failed,
		}).Info("Deadline sweep finished")
	}

	return result
}

func (s *DeadlineSweeper) returnJob(job *models.Estimate, now time.Time) (bool, error) {
	techName := s.technicianDisplayName(job)
	reason := fmt.Sprintf("Auto-returned: Not completed within %s by %s",
		FormatDeadline(job.DeadlineValue, job.DeadlineUnit), techName)

	record := &models.JobReassignment{
		JobID:            job.ID,
		OriginalTechID:   job.RepairTechID,
		OriginalTechName: &techName,
		NewTechName:      models.ReturnedToQueue,
		Reason:           reason,
		ReassignedAt:     now,
	}

	returned, err := s.repo.AutoReturn(job.ID, now, reason, record)
	if err != nil {
		return false, err
	}
	if !returned {
		s.logger.WithField("job_id", job.ID).Debug("Job already returned by another sweep")
		return false, nil
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"technician": techName,
		"reason":     reason,
	}).Info("Job returned to queue")

	if s.notifier != nil {
		message := fmt.Sprintf("%s at %s returned to queue. %s", job.Label(), job.PropertyName, reason)
		if err := s.notifier.Notify(message); err != nil {
			s.logger.WithError(err).WithField("job_id", job.ID).Warn("Failed to send dispatch notification")
		}
	}

	return true, nil
}

func (s *DeadlineSweeper) technicianDisplayName(job *models.Estimate) string {
	if job.RepairTechID != nil {
		if name := lookupTechnicianName(s.technicians, *job.RepairTechID); name != "" {
			return name
		}
	}
	if name := deref(job.RepairTechName); name != "" {
		return name
	}
	return unknownTechnician
}

// FormatDeadline renders a deadline as "1 hour", "24 hours", "1 day" or "3 days".
func FormatDeadline(value *int, unit string) string {
	if value == nil {
		return "an unknown number of hours"
	}

	word := "hour"
	if unit == models.DeadlineDays {
		word = "day"
	}
	if *value != 1 {
		word += "s"
	}
	return fmt.Sprintf("%d %s", *value, word)
}

// deadlineDuration converts a deadline value and unit to a duration.
func deadlineDuration(value int, unit string) (time.Duration, error) {
	if value <= 0 {
		return 0, errors.New("deadline_value must be positive")
	}
	switch unit {
	case models.DeadlineHours, "":
		return time.Duration(value) * time.Hour, nil
	case models.DeadlineDays:
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("deadline_unit must be %s or %s", models.DeadlineHours, models.DeadlineDays)
	}
}
