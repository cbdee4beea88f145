package billing

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MembershipStatus represents the status of a membership
type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "ACTIVE"
	MembershipStatusTrial    MembershipStatus = "TRIAL"
	MembershipStatusExpired  MembershipStatus = "EXPIRED"
	MembershipStatusCanceled MembershipStatus = "CANCELED"
)

// IsValid checks if the status is a valid MembershipStatus
func (s MembershipStatus) IsValid() bool {
	switch s {
	case MembershipStatusActive, MembershipStatusTrial, MembershipStatusExpired, MembershipStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of MembershipStatus
func (s MembershipStatus) String() string {
	return string(s)
}

// Membership represents a subject's entitlement to a product, created
// exactly once when the owning order is confirmed as paid or trialing.
// Its quota records are created at the same moment and never recreated.
type Membership struct {
	shared.BaseAggregateRoot
	Subject     string
	ProductID   uuid.UUID
	OrderID     uuid.UUID
	Status      MembershipStatus
	StartedAt   time.Time
	TrialEndsAt *time.Time
}

// NewMembership creates an active membership for a paid order
func NewMembership(subject string, productID, orderID uuid.UUID) (*Membership, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Membership subject cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}

	return &Membership{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Subject:           subject,
		ProductID:         productID,
		OrderID:           orderID,
		Status:            MembershipStatusActive,
		StartedAt:         time.Now(),
	}, nil
}

// NewTrialMembership creates a trial membership ending at trialEndsAt
func NewTrialMembership(subject string, productID, orderID uuid.UUID, trialEndsAt time.Time) (*Membership, error) {
	membership, err := NewMembership(subject, productID, orderID)
	if err != nil {
		return nil, err
	}
	membership.Status = MembershipStatusTrial
	membership.TrialEndsAt = &trialEndsAt
	return membership, nil
}

// Cancel cancels the membership
func (m *Membership) Cancel() error {
	if m.Status == MembershipStatusCanceled {
		return shared.NewDomainError("INVALID_STATE", "Membership is already canceled")
	}
	m.Status = MembershipStatusCanceled
	m.UpdatedAt = time.Now()
	return nil
}

// Expire marks the membership expired
func (m *Membership) Expire() error {
	if m.Status != MembershipStatusActive && m.Status != MembershipStatusTrial {
		return shared.NewDomainError("INVALID_STATE", "Only active or trial memberships can expire")
	}
	m.Status = MembershipStatusExpired
	m.UpdatedAt = time.Now()
	return nil
}

// IsActive reports whether the membership still grants its entitlement
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive || m.Status == MembershipStatusTrial
}

// IsTrial reports whether the membership is in its trial period
func (m *Membership) IsTrial() bool {
	return m.Status == MembershipStatusTrial
}
