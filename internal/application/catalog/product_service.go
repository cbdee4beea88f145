package catalog

import (
	"context"

	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeatureInput describes one product feature with an optional quota
type FeatureInput struct {
	Name        string
	Label       string
	Description string
	QuotaType   string
	SoftLimit   int64
	HardLimit   int64
	Unit        string
}

// CreateProductRequest contains input for creating a product
type CreateProductRequest struct {
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal
	Features    []FeatureInput
}

// ProductService orchestrates catalog operations
type ProductService struct {
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create registers a new product with its feature list
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	existing, err := s.productRepo.FindByCode(ctx, req.Code)
	if err != nil && err != shared.ErrNotFound {
		s.logger.Error("failed to check for existing product", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A product already exists with this code")
	}

	product, err := catalog.NewProduct(req.Code, req.Name, req.Description, req.Price)
	if err != nil {
		return nil, err
	}

	for _, input := range req.Features {
		var quota *catalog.QuotaDeclaration
		if input.QuotaType != "" {
			quota = &catalog.QuotaDeclaration{
				QuotaType: input.QuotaType,
				SoftLimit: input.SoftLimit,
				HardLimit: input.HardLimit,
				Unit:      input.Unit,
			}
		}
		if _, err := product.AddFeature(input.Name, input.Label, input.Description, quota); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("failed to save product", zap.Error(err))
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Int("features", len(product.Features)))
	return product, nil
}

// GetByID returns a product with its features
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List returns products
func (s *ProductService) List(ctx context.Context, filter shared.Filter) ([]*catalog.Product, int64, error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Deactivate removes a product from sale
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.Deactivate()
	return s.productRepo.Update(ctx, product)
}
