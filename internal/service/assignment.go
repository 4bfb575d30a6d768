package service

import (
	"errors"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
)

// AssignmentInput links a technician to a property.
type AssignmentInput struct {
	TechnicianID   FlexibleID `json:"technician_id"`
	AssignedByID   FlexibleID `json:"assigned_by_id"`
	AssignedByName *string    `json:"assigned_by_name"`
}

type PropertyTechnicianService struct {
	repo        repository.PropertyTechnicianRepository
	technicians TechnicianDirectory
}

func NewPropertyTechnicianService(repo repository.PropertyTechnicianRepository, technicians TechnicianDirectory) *PropertyTechnicianService {
	return &PropertyTechnicianService{
		repo:        repo,
		technicians: technicians,
	}
}

func (s *PropertyTechnicianService) AssignTechnician(propertyID string, in AssignmentInput) (*models.PropertyTechnician, error) {
	if propertyID == "" {
		return nil, invalid("property_id is required")
	}
	if in.TechnicianID == "" {
		return nil, invalid("technician_id is required")
	}

	assignment := &models.PropertyTechnician{
		PropertyID:     propertyID,
		TechnicianID:   in.TechnicianID.String(),
		TechnicianName: stringPtr(lookupTechnicianName(s.technicians, in.TechnicianID.String())),
		AssignedByID:   in.AssignedByID.Ptr(),
		AssignedByName: in.AssignedByName,
	}

	if err := s.repo.Create(assignment); err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			return nil, invalid("technician %s is already assigned to property %s", in.TechnicianID, propertyID)
		}
		return nil, storeError("assign technician", err)
	}
	return assignment, nil
}

func (s *PropertyTechnicianService) ListPropertyTechnicians(propertyID string) ([]*models.PropertyTechnician, error) {
	assignments, err := s.repo.ListByProperty(propertyID)
	if err != nil {
		return nil, storeError("list property technicians", err)
	}
	return assignments, nil
}

func (s *PropertyTechnicianService) RemovePropertyTechnician(propertyID, technicianID string) error {
	if err := s.repo.Delete(propertyID, technicianID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("property technician", propertyID+"/"+technicianID)
		}
		return storeError("remove property technician", err)
	}
	return nil
}
