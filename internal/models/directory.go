package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Technician roles
const (
	RoleServiceTech = "service"
	RoleRepairTech  = "repair"
	RoleSupervisor  = "supervisor"
)

type Customer struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Property is a serviced address belonging to a customer.
type Property struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CustomerID   *string   `gorm:"type:varchar(64);index" json:"customer_id"`
	AddressLine1 string    `json:"address_line1"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// DisplayName is the label used on stops and occurrence lists.
func (p *Property) DisplayName() string {
	if p.AddressLine1 != "" {
		return p.AddressLine1
	}
	return "Property"
}

// FullAddress formats "line1, city, state zip".
func (p *Property) FullAddress() string {
	return strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s", p.AddressLine1, p.City, p.State, p.Zip))
}

// CustomerName returns the preloaded customer's name or "".
func (p *Property) CustomerName() string {
	if p.Customer == nil {
		return ""
	}
	return p.Customer.Name
}

type Technician struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `gorm:"type:varchar(20)" json:"role"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Technician) TableName() string {
	return "technicians"
}

func (t *Technician) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// FullName joins first and last name.
func (t *Technician) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// PropertyTechnician assigns a technician as a regular servicer of a property.
type PropertyTechnician struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID     string    `gorm:"type:varchar(64);not null;index" json:"property_id"`
	TechnicianID   string    `gorm:"type:varchar(64);not null;index" json:"technician_id"`
	TechnicianName *string   `json:"technician_name"`
	AssignedByID   *string   `gorm:"type:varchar(64)" json:"assigned_by_id"`
	AssignedByName *string   `json:"assigned_by_name"`
	AssignedAt     time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}

func (PropertyTechnician) TableName() string {
	return "property_technicians"
}

func (p *PropertyTechnician) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
