package handler

import (
	"time"

	appaccess "github.com/billing/backend/internal/application/access"
	billingapp "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService       *billingapp.OrderService
	fulfillmentService *billingapp.FulfillmentService
	resolver           *appaccess.Resolver
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	orderService *billingapp.OrderService,
	fulfillmentService *billingapp.FulfillmentService,
	resolver *appaccess.Resolver,
) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
		resolver:           resolver,
	}
}

// CreateOrderRequest represents a request to place an order
type CreateOrderRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Remark    string `json:"remark"`
	// Requestor is the admin-only act-as override: the order is placed
	// for this subject instead of the caller's own
	Requestor string `json:"requestor"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderResponse is the API representation of an order
type OrderResponse struct {
	ID          string     `json:"id"`
	OrderNumber string     `json:"order_number"`
	Subject     string     `json:"subject"`
	ProductID   string     `json:"product_id"`
	Amount      string     `json:"amount"`
	Status      string     `json:"status"`
	Remark      string     `json:"remark,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toOrderResponse(order *billing.Order) OrderResponse {
	return OrderResponse{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		Subject:     order.Subject,
		ProductID:   order.ProductID.String(),
		Amount:      order.Amount.String(),
		Status:      order.Status.String(),
		Remark:      order.Remark,
		PaidAt:      order.PaidAt,
		TrialEndsAt: order.TrialEndsAt,
		CanceledAt:  order.CanceledAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// FulfillmentResponse is the API representation of a fulfillment outcome
type FulfillmentResponse struct {
	Order      OrderResponse        `json:"order"`
	Membership MembershipResponse   `json:"membership"`
	Quotas     []QuotaRecordResponse `json:"quotas"`
}

func toFulfillmentResponse(result *billingapp.FulfillmentResult) FulfillmentResponse {
	quotas := make([]QuotaRecordResponse, len(result.Quotas))
	for i, quota := range result.Quotas {
		quotas[i] = toQuotaRecordResponse(quota)
	}
	return FulfillmentResponse{
		Order:      toOrderResponse(result.Order),
		Membership: toMembershipResponse(result.Membership),
		Quotas:     quotas,
	}
}

// Create godoc
// @ID           createOrder
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order creation request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	caller, err := getCaller(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Requestor != "" {
		if !caller.IsAdmin() {
			h.Forbidden(c, "Only administrators may act on behalf of another subject")
			return
		}
		caller = caller.AsSubject(req.Requestor)
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), caller, billingapp.CreateOrderRequest{
		ProductID: productID,
		Remark:    req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(order))
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
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

	order, err := h.orderService.GetByID(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// List godoc
// @ID           listOrders
// @Summary      List orders visible to the caller
// @Tags         orders
// @Produce      json
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
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

	orders, err := h.orderService.List(c.Request.Context(), targets, filterFromList(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = toOrderResponse(order)
	}
	h.Success(c, responses)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
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

	order, err := h.orderService.Cancel(c.Request.Context(), targets, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// ConfirmPayment godoc
// @ID           confirmOrderPayment
// @Summary      Confirm payment and fulfill the order
// @Description  Advances the order to PAID, creates the membership and
// @Description  consolidates feature quotas into quota records. Admin only;
// @Description  non-admin fulfillment happens through the payment callback.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/confirm-payment [post]
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.fulfillmentService.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFulfillmentResponse(result))
}

// StartTrial godoc
// @ID           startOrderTrial
// @Summary      Open a trial and fulfill the order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/start-trial [post]
func (h *OrderHandler) StartTrial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.fulfillmentService.StartTrial(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFulfillmentResponse(result))
}
