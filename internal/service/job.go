package service

import (
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// JobAssignment hands a repair job to a technician with a completion deadline.
type JobAssignment struct {
	TechnicianID  FlexibleID `json:"technician_id"`
	DeadlineValue int        `json:"deadline_value"`
	DeadlineUnit  string     `json:"deadline_unit"`
}

type JobService struct {
	repo        repository.EstimateRepository
	technicians TechnicianDirectory
	logger      *logrus.Logger
	now         func() time.Time
}

func NewJobService(repo repository.EstimateRepository, technicians TechnicianDirectory) *JobService {
	return &JobService{
		repo:        repo,
		technicians: technicians,
		logger:      logger.New(),
		now:         time.Now,
	}
}

// AssignJob schedules the job for a technician. Any earlier auto-return mark
// is cleared so the deadline sweep sees the job again.
func (s *JobService) AssignJob(jobID string, in JobAssignment) (*models.Estimate, error) {
	if in.TechnicianID == "" {
		return nil, invalid("technician_id is required")
	}
	duration, err := deadlineDuration(in.DeadlineValue, in.DeadlineUnit)
	if err != nil {
		return nil, invalid("%v", err)
	}

	job, err := s.repo.GetByID(jobID)
	if err != nil {
		return nil, storeError("get job", err)
	}
	if job == nil {
		return nil, notFound("job", jobID)
	}

	technicianID := in.TechnicianID.String()
	name := lookupTechnicianName(s.technicians, technicianID)
	if name == "" {
		return nil, notFound("technician", technicianID)
	}

	unit := in.DeadlineUnit
	if unit == "" {
		unit = models.DeadlineHours
	}

	now := s.now().UTC()
	deadline := now.Add(duration)
	value := in.DeadlineValue

	record := &models.JobReassignment{
		JobID:            job.ID,
		OriginalTechID:   job.RepairTechID,
		OriginalTechName: job.RepairTechName,
		NewTechID:        &technicianID,
		NewTechName:      name,
		Reason:           "Assigned by dispatch",
		ReassignedAt:     now,
	}

	job.Status = models.EstimateStatusScheduled
	job.RepairTechID = &technicianID
	job.RepairTechName = &name
	job.ScheduledAt = &now
	job.DeadlineAt = &deadline
	job.DeadlineValue = &value
	job.DeadlineUnit = unit
	job.AutoReturnedAt = nil
	job.AutoReturnedReason = nil

	if err := s.repo.Assign(job, record); err != nil {
		return nil, storeError("assign job", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":        job.ID,
		"technician_id": technicianID,
		"deadline_at":   deadline.Format(time.RFC3339),
	}).Info("Job assigned")

	return job, nil
}

func (s *JobService) GetJob(jobID string) (*models.Estimate, error) {
	job, err := s.repo.GetByID(jobID)
	if err != nil {
		return nil, storeError("get job", err)
	}
	if job == nil {
		return nil, notFound("job", jobID)
	}
	return job, nil
}

// History lists the job's reassignment records, newest first.
func (s *JobService) History(jobID string) ([]*models.JobReassignment, error) {
	records, err := s.repo.ListReassignments(jobID)
	if err != nil {
		return nil, storeError("list job history", err)
	}
	return records, nil
}
