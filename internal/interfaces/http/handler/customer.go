package handler

import (
	"time"

	appaccess "github.com/billing/backend/internal/application/access"
	partyapp "github.com/billing/backend/internal/application/party"
	"github.com/billing/backend/internal/domain/party"
	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partyapp.CustomerService
	resolver        *appaccess.Resolver
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partyapp.CustomerService, resolver *appaccess.Resolver) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		resolver:        resolver,
	}
}

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Subject string `json:"subject" binding:"required,min=1,max=255"`
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
}

// CustomerResponse is the API representation of a customer
type CustomerResponse struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerResponse(customer *party.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID.String(),
		Subject:   customer.Subject,
		Name:      customer.Name,
		Email:     customer.Email,
		IsActive:  customer.IsActive,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}

// Create godoc
// @ID           createCustomer
// @Summary      Register a new customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), partyapp.CreateCustomerRequest{
		Subject: req.Subject,
		Name:    req.Name,
		Email:   req.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// Get godoc
// @ID           getCustomer
// @Summary      Get a customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req dto.AccessRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	targets, err := resolveTargets(c, h.resolver, req.Subscriber, req.Requestor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// List godoc
// @ID           listCustomers
// @Summary      List customers visible to the caller
// @Tags         customers
// @Produce      json
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	targets, err := resolveTargets(c, h.resolver, req.Subscriber, req.Requestor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	customers, err := h.customerService.List(c.Request.Context(), targets, filterFromList(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CustomerResponse, len(customers))
	for i, customer := range customers {
		responses[i] = toCustomerResponse(customer)
	}
	h.Success(c, responses)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer's contact information
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        request body UpdateCustomerRequest true "Customer update request"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var accessReq dto.AccessRequest
	if err := c.ShouldBindQuery(&accessReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	targets, err := resolveTargets(c, h.resolver, accessReq.Subscriber, accessReq.Requestor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), targets, id, partyapp.UpdateCustomerRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
