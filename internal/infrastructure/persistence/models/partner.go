package models

import (
	"time"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmployeeModel is the persistence model for the Employee aggregate root.
type EmployeeModel struct {
	TenantAggregateModel
	Name          string                 `gorm:"type:varchar(200);not null"`
	Document      string                 `gorm:"type:varchar(20);index"`
	Email         string                 `gorm:"type:varchar(200)"`
	Phone         string                 `gorm:"type:varchar(30)"`
	Role          string                 `gorm:"type:varchar(100)"`
	CurrentSalary decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Commission    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status        partner.EmployeeStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CustomerID    *uuid.UUID             `gorm:"type:uuid;index"`
	HiredAt       *time.Time             ``
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee entity.
func (m *EmployeeModel) ToDomain() *partner.Employee {
	return &partner.Employee{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		Name:                m.Name,
		Document:            m.Document,
		Email:               m.Email,
		Phone:               m.Phone,
		Role:                m.Role,
		CurrentSalary:       m.CurrentSalary,
		Commission:          m.Commission,
		Status:              m.Status,
		CustomerID:          m.CustomerID,
		HiredAt:             m.HiredAt,
	}
}

// FromDomain populates the persistence model from a domain Employee entity.
func (m *EmployeeModel) FromDomain(e *partner.Employee) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.Name = e.Name
	m.Document = e.Document
	m.Email = e.Email
	m.Phone = e.Phone
	m.Role = e.Role
	m.CurrentSalary = e.CurrentSalary
	m.Commission = e.Commission
	m.Status = e.Status
	m.CustomerID = e.CustomerID
	m.HiredAt = e.HiredAt
}

// EmployeeModelFromDomain creates a new persistence model from a domain Employee.
func EmployeeModelFromDomain(e *partner.Employee) *EmployeeModel {
	m := &EmployeeModel{}
	m.FromDomain(e)
	return m
}

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	TenantAggregateModel
	Name     string `gorm:"type:varchar(200);not null;index"`
	Document string `gorm:"type:varchar(20);index"`
	Email    string `gorm:"type:varchar(200)"`
	Phone    string `gorm:"type:varchar(30)"`
	Notes    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		Name:                m.Name,
		Document:            m.Document,
		Email:               m.Email,
		Phone:               m.Phone,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Document = c.Document
	m.Email = c.Email
	m.Phone = c.Phone
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
