package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusTrialing  OrderStatus = "TRIALING"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusTrialing,
		OrderStatusCanceled, OrderStatusFulfilled, OrderStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Quota consolidation fires only on CREATED -> PAID and CREATED -> TRIALING,
// exactly once.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return target == OrderStatusPaid || target == OrderStatusTrialing || target == OrderStatusCanceled
	case OrderStatusPaid, OrderStatusTrialing:
		return target == OrderStatusCanceled || target == OrderStatusFulfilled || target == OrderStatusReturned
	case OrderStatusCanceled, OrderStatusFulfilled, OrderStatusReturned:
		return false // Terminal states
	}
	return false
}

// Order represents a purchase of a product by a subject
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string
	Subject     string
	ProductID   uuid.UUID
	Amount      decimal.Decimal
	Status      OrderStatus
	Remark      string
	PaidAt      *time.Time
	TrialEndsAt *time.Time
	CanceledAt  *time.Time
}

// NewOrder creates a new order in CREATED state
func NewOrder(orderNumber, subject string, productID uuid.UUID, amount decimal.Decimal) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Order subject cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order amount cannot be negative")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Subject:           subject,
		ProductID:         productID,
		Amount:            amount,
		Status:            OrderStatusCreated,
	}, nil
}

// transition moves the order to the target status, enforcing the state machine
func (o *Order) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid records payment confirmation. Only valid from CREATED.
func (o *Order) MarkPaid() error {
	if err := o.transition(OrderStatusPaid); err != nil {
		return err
	}
	now := time.Now()
	o.PaidAt = &now
	return nil
}

// StartTrial records trial confirmation with the given trial end. Only
// valid from CREATED.
func (o *Order) StartTrial(trialEndsAt time.Time) error {
	if err := o.transition(OrderStatusTrialing); err != nil {
		return err
	}
	o.TrialEndsAt = &trialEndsAt
	return nil
}

// Cancel cancels the order
func (o *Order) Cancel(reason string) error {
	if err := o.transition(OrderStatusCanceled); err != nil {
		return err
	}
	now := time.Now()
	o.CanceledAt = &now
	if reason != "" {
		o.Remark = reason
	}
	return nil
}

// Complete marks the order fulfilled
func (o *Order) Complete() error {
	return o.transition(OrderStatusFulfilled)
}

// Return marks the order returned
func (o *Order) Return() error {
	return o.transition(OrderStatusReturned)
}

// IsCreated reports whether the order is still awaiting payment or trial
func (o *Order) IsCreated() bool {
	return o.Status == OrderStatusCreated
}

// IsTerminal reports whether the order is in a terminal state
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCanceled, OrderStatusFulfilled, OrderStatusReturned:
		return true
	}
	return false
}
