package models

import (
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	OrderNumber string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_number"`
	Subject     string              `gorm:"type:varchar(255);not null;index"`
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status      billing.OrderStatus `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	Remark      string              `gorm:"type:text"`
	PaidAt      *time.Time
	TrialEndsAt *time.Time
	CanceledAt  *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *billing.Order {
	return &billing.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		Subject:           m.Subject,
		ProductID:         m.ProductID,
		Amount:            m.Amount,
		Status:            m.Status,
		Remark:            m.Remark,
		PaidAt:            m.PaidAt,
		TrialEndsAt:       m.TrialEndsAt,
		CanceledAt:        m.CanceledAt,
	}
}

// FromDomain populates the persistence model from a domain Order aggregate.
func (m *OrderModel) FromDomain(o *billing.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Subject = o.Subject
	m.ProductID = o.ProductID
	m.Amount = o.Amount
	m.Status = o.Status
	m.Remark = o.Remark
	m.PaidAt = o.PaidAt
	m.TrialEndsAt = o.TrialEndsAt
	m.CanceledAt = o.CanceledAt
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *billing.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// MembershipModel is the persistence model for the Membership aggregate.
// The unique index on order_id backs the create-exactly-once guarantee.
type MembershipModel struct {
	AggregateModel
	Subject     string                   `gorm:"type:varchar(255);not null;index"`
	ProductID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_membership_order"`
	Status      billing.MembershipStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	StartedAt   time.Time                `gorm:"not null"`
	TrialEndsAt *time.Time
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "memberships"
}

// ToDomain converts the persistence model to a domain Membership aggregate.
func (m *MembershipModel) ToDomain() *billing.Membership {
	return &billing.Membership{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Subject:           m.Subject,
		ProductID:         m.ProductID,
		OrderID:           m.OrderID,
		Status:            m.Status,
		StartedAt:         m.StartedAt,
		TrialEndsAt:       m.TrialEndsAt,
	}
}

// FromDomain populates the persistence model from a domain Membership.
func (m *MembershipModel) FromDomain(ms *billing.Membership) {
	m.FromDomainAggregateRoot(ms.BaseAggregateRoot)
	m.Subject = ms.Subject
	m.ProductID = ms.ProductID
	m.OrderID = ms.OrderID
	m.Status = ms.Status
	m.StartedAt = ms.StartedAt
	m.TrialEndsAt = ms.TrialEndsAt
}

// MembershipModelFromDomain creates a new persistence model from a domain Membership.
func MembershipModelFromDomain(ms *billing.Membership) *MembershipModel {
	m := &MembershipModel{}
	m.FromDomain(ms)
	return m
}

// QuotaRecordModel is the persistence model for the QuotaRecord aggregate.
// The unique index on (membership_id, quota_type) enforces that same-type
// quota declarations are merged before they reach the table.
type QuotaRecordModel struct {
	AggregateModel
	ObjectType   string    `gorm:"type:varchar(20);not null;default:'quota'"`
	QuotaType    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_quota_membership_type,priority:2"`
	SoftLimit    int64     `gorm:"not null;default:0"`
	HardLimit    int64     `gorm:"not null;default:0"`
	Used         int64     `gorm:"not null;default:0"`
	Unit         string    `gorm:"type:varchar(50);not null"`
	MembershipID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quota_membership_type,priority:1"`
	Subject      string    `gorm:"type:varchar(255);not null;index"`
}

// TableName returns the table name for GORM
func (QuotaRecordModel) TableName() string {
	return "quota_records"
}

// ToDomain converts the persistence model to a domain QuotaRecord.
func (m *QuotaRecordModel) ToDomain() *billing.QuotaRecord {
	return &billing.QuotaRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ObjectType:        m.ObjectType,
		QuotaType:         m.QuotaType,
		SoftLimit:         m.SoftLimit,
		HardLimit:         m.HardLimit,
		Used:              m.Used,
		Unit:              m.Unit,
		MembershipID:      m.MembershipID,
		Subject:           m.Subject,
	}
}

// FromDomain populates the persistence model from a domain QuotaRecord.
func (m *QuotaRecordModel) FromDomain(q *billing.QuotaRecord) {
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	m.ObjectType = q.ObjectType
	m.QuotaType = q.QuotaType
	m.SoftLimit = q.SoftLimit
	m.HardLimit = q.HardLimit
	m.Used = q.Used
	m.Unit = q.Unit
	m.MembershipID = q.MembershipID
	m.Subject = q.Subject
}

// QuotaRecordModelFromDomain creates a new persistence model from a domain QuotaRecord.
func QuotaRecordModelFromDomain(q *billing.QuotaRecord) *QuotaRecordModel {
	m := &QuotaRecordModel{}
	m.FromDomain(q)
	return m
}

// UsageRecordModel is the persistence model for the UsageRecord aggregate.
type UsageRecordModel struct {
	AggregateModel
	MembershipID uuid.UUID `gorm:"type:uuid;not null;index"`
	Subject      string    `gorm:"type:varchar(255);not null;index"`
	QuotaType    string    `gorm:"type:varchar(100);not null;index"`
	Amount       int64     `gorm:"not null"`
	Description  string    `gorm:"type:text"`
	RecordedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToDomain converts the persistence model to a domain UsageRecord.
func (m *UsageRecordModel) ToDomain() *billing.UsageRecord {
	return &billing.UsageRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MembershipID:      m.MembershipID,
		Subject:           m.Subject,
		QuotaType:         m.QuotaType,
		Amount:            m.Amount,
		Description:       m.Description,
		RecordedAt:        m.RecordedAt,
	}
}

// FromDomain populates the persistence model from a domain UsageRecord.
func (m *UsageRecordModel) FromDomain(u *billing.UsageRecord) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.MembershipID = u.MembershipID
	m.Subject = u.Subject
	m.QuotaType = u.QuotaType
	m.Amount = u.Amount
	m.Description = u.Description
	m.RecordedAt = u.RecordedAt
}

// UsageRecordModelFromDomain creates a new persistence model from a domain UsageRecord.
func UsageRecordModelFromDomain(u *billing.UsageRecord) *UsageRecordModel {
	m := &UsageRecordModel{}
	m.FromDomain(u)
	return m
}
