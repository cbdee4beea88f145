package catalog

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a purchasable catalog item. A product carries an
// ordered list of features; features may declare quotas that are
// consolidated into quota records when an order for the product is
// fulfilled.
type Product struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal
	IsActive    bool
	Features    []Feature
}

// Feature is a single capability of a product. Catalog data is immutable
// once published; feature order is the catalog-declared order and is
// significant for quota consolidation determinism.
type Feature struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Name        string
	Label       string
	Description string
	Position    int
	Quota       *QuotaDeclaration
}

// QuotaDeclaration describes the quota a feature grants
type QuotaDeclaration struct {
	QuotaType string
	SoftLimit int64
	HardLimit int64
	Unit      string
}

// Validate checks the declaration for internal consistency
func (q QuotaDeclaration) Validate() error {
	if strings.TrimSpace(q.QuotaType) == "" {
		return shared.NewDomainError("INVALID_QUOTA_TYPE", "Quota type cannot be empty")
	}
	if strings.TrimSpace(q.Unit) == "" {
		return shared.NewDomainError("INVALID_QUOTA_UNIT", "Quota unit cannot be empty")
	}
	if q.SoftLimit < 0 || q.HardLimit < 0 {
		return shared.NewDomainError("INVALID_QUOTA_LIMIT", "Quota limits cannot be negative")
	}
	if q.SoftLimit > q.HardLimit {
		return shared.NewDomainError("INVALID_QUOTA_LIMIT", "Soft limit cannot exceed hard limit")
	}
	return nil
}

// NewProduct creates a new product
func NewProduct(code, name, description string, price decimal.Decimal) (*Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Description:       description,
		Price:             price,
		IsActive:          true,
		Features:          make([]Feature, 0),
	}, nil
}

// AddFeature appends a feature to the product's feature list
func (p *Product) AddFeature(name, label, description string, quota *QuotaDeclaration) (*Feature, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_FEATURE_NAME", "Feature name cannot be empty")
	}
	if quota != nil {
		if err := quota.Validate(); err != nil {
			return nil, err
		}
	}

	feature := Feature{
		ID:          uuid.New(),
		ProductID:   p.ID,
		Name:        name,
		Label:       label,
		Description: description,
		Position:    len(p.Features),
		Quota:       quota,
	}
	p.Features = append(p.Features, feature)
	p.UpdatedAt = time.Now()
	return &p.Features[len(p.Features)-1], nil
}

// Deactivate removes the product from sale
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// Activate puts the product on sale
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
}
