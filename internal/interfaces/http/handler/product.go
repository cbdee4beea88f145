package handler

import (
	"time"

	catalogapp "github.com/billing/backend/internal/application/catalog"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductHandler handles catalog API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// FeatureRequest describes one product feature with an optional quota
type FeatureRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Label       string `json:"label" binding:"max=200"`
	Description string `json:"description"`
	QuotaType   string `json:"quota_type" binding:"omitempty,max=100"`
	SoftLimit   int64  `json:"soft_limit" binding:"omitempty,min=0"`
	HardLimit   int64  `json:"hard_limit" binding:"omitempty,min=0"`
	Unit        string `json:"unit" binding:"omitempty,max=50"`
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code        string           `json:"code" binding:"required,min=1,max=50"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Description string           `json:"description"`
	Price       float64          `json:"price" binding:"min=0"`
	Features    []FeatureRequest `json:"features" binding:"dive"`
}

// QuotaDeclarationResponse is the API representation of a feature quota
type QuotaDeclarationResponse struct {
	QuotaType string `json:"quota_type"`
	SoftLimit int64  `json:"soft_limit"`
	HardLimit int64  `json:"hard_limit"`
	Unit      string `json:"unit"`
}

// FeatureResponse is the API representation of a product feature
type FeatureResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Label       string                    `json:"label,omitempty"`
	Description string                    `json:"description,omitempty"`
	Position    int                       `json:"position"`
	Quota       *QuotaDeclarationResponse `json:"quota,omitempty"`
}

// ProductResponse is the API representation of a product
type ProductResponse struct {
	ID          string            `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       string            `json:"price"`
	IsActive    bool              `json:"is_active"`
	Features    []FeatureResponse `json:"features"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toProductResponse(product *catalog.Product) ProductResponse {
	features := make([]FeatureResponse, len(product.Features))
	for i, feature := range product.Features {
		fr := FeatureResponse{
			ID:          feature.ID.String(),
			Name:        feature.Name,
			Label:       feature.Label,
			Description: feature.Description,
			Position:    feature.Position,
		}
		if feature.Quota != nil {
			fr.Quota = &QuotaDeclarationResponse{
				QuotaType: feature.Quota.QuotaType,
				SoftLimit: feature.Quota.SoftLimit,
				HardLimit: feature.Quota.HardLimit,
				Unit:      feature.Quota.Unit,
			}
		}
		features[i] = fr
	}
	return ProductResponse{
		ID:          product.ID.String(),
		Code:        product.Code,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.String(),
		IsActive:    product.IsActive,
		Features:    features,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// Create godoc
// @ID           createProduct
// @Summary      Create a product with its feature list
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product creation request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	features := make([]catalogapp.FeatureInput, len(req.Features))
	for i, f := range req.Features {
		features[i] = catalogapp.FeatureInput{
			Name:        f.Name,
			Label:       f.Label,
			Description: f.Description,
			QuotaType:   f.QuotaType,
			SoftLimit:   f.SoftLimit,
			HardLimit:   f.HardLimit,
			Unit:        f.Unit,
		}
	}

	product, err := h.productService.Create(c.Request.Context(), catalogapp.CreateProductRequest{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Features:    features,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// Get godoc
// @ID           getProduct
// @Summary      Get a product by ID
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := filterFromList(req)
	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductResponse, len(products))
	for i, product := range products {
		responses[i] = toProductResponse(product)
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.Limit())
}

// Deactivate godoc
// @ID           deactivateProduct
// @Summary      Remove a product from sale
// @Tags         products
// @Param        id path string true "Product ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	if err := h.productService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
