package models

import (
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_code"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive    bool            `gorm:"not null;default:true"`
	Features    []FeatureModel  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// FeatureModel is the persistence model for a product feature. Quota
// columns are nullable; a feature without a quota type declares no quota.
type FeatureModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Label       string    `gorm:"type:varchar(200)"`
	Description string    `gorm:"type:text"`
	Position    int       `gorm:"not null;default:0"`
	QuotaType   *string   `gorm:"type:varchar(100)"`
	SoftLimit   *int64
	HardLimit   *int64
	Unit        *string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (FeatureModel) TableName() string {
	return "product_features"
}

// ToDomain converts the persistence model to a domain Product aggregate,
// features in catalog-declared order.
func (m *ProductModel) ToDomain() *catalog.Product {
	features := make([]catalog.Feature, len(m.Features))
	for i, fm := range m.Features {
		features[i] = fm.ToDomain()
	}
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		IsActive:          m.IsActive,
		Features:          features,
	}
}

// ToDomain converts the feature model to a domain Feature.
func (m *FeatureModel) ToDomain() catalog.Feature {
	feature := catalog.Feature{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Name:        m.Name,
		Label:       m.Label,
		Description: m.Description,
		Position:    m.Position,
	}
	if m.QuotaType != nil {
		quota := &catalog.QuotaDeclaration{QuotaType: *m.QuotaType}
		if m.SoftLimit != nil {
			quota.SoftLimit = *m.SoftLimit
		}
		if m.HardLimit != nil {
			quota.HardLimit = *m.HardLimit
		}
		if m.Unit != nil {
			quota.Unit = *m.Unit
		}
		feature.Quota = quota
	}
	return feature
}

// FromDomain populates the persistence model from a domain Product aggregate.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.IsActive = p.IsActive
	m.Features = make([]FeatureModel, len(p.Features))
	for i, f := range p.Features {
		m.Features[i] = featureModelFromDomain(f)
	}
}

func featureModelFromDomain(f catalog.Feature) FeatureModel {
	fm := FeatureModel{
		ID:          f.ID,
		ProductID:   f.ProductID,
		Name:        f.Name,
		Label:       f.Label,
		Description: f.Description,
		Position:    f.Position,
	}
	if f.Quota != nil {
		fm.QuotaType = &f.Quota.QuotaType
		fm.SoftLimit = &f.Quota.SoftLimit
		fm.HardLimit = &f.Quota.HardLimit
		fm.Unit = &f.Quota.Unit
	}
	return fm
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
