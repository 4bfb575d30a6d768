package service

import "pool-route-scheduler/internal/models"

// PropertyDirectory resolves property and customer details for enrichment.
type PropertyDirectory interface {
	GetByID(id string) (*models.Property, error)
	GetByIDs(ids []string) (map[string]*models.Property, error)
}

type TechnicianDirectory interface {
	GetByID(id string) (*models.Technician, error)
}

// lookupTechnicianName returns the directory name of id, or "" when it cannot be resolved.
func lookupTechnicianName(dir TechnicianDirectory, id string) string {
	if dir == nil || id == "" {
		return ""
	}
	tech, err := dir.GetByID(id)
	if err != nil || tech == nil {
		return ""
	}
	return tech.FullName()
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
