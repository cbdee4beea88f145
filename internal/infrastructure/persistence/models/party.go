package models

import (
	"github.com/billing/backend/internal/domain/party"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Subject  string `gorm:"type:varchar(255);not null;uniqueIndex:idx_customer_subject"`
	Name     string `gorm:"type:varchar(200);not null"`
	Email    string `gorm:"type:varchar(200);index"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *party.Customer {
	return &party.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Subject:           m.Subject,
		Name:              m.Name,
		Email:             m.Email,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *party.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Subject = c.Subject
	m.Name = c.Name
	m.Email = c.Email
	m.IsActive = c.IsActive
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *party.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
