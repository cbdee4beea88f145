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

// MembershipHandler handles membership API endpoints
type MembershipHandler struct {
	BaseHandler
	membershipService *billingapp.MembershipService
	resolver          *appaccess.Resolver
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService *billingapp.MembershipService, resolver *appaccess.Resolver) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		resolver:          resolver,
	}
}

// MembershipResponse is the API representation of a membership
type MembershipResponse struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	ProductID   string     `json:"product_id"`
	OrderID     string     `json:"order_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toMembershipResponse(membership *billing.Membership) MembershipResponse {
	return MembershipResponse{
		ID:          membership.ID.String(),
		Subject:     membership.Subject,
		ProductID:   membership.ProductID.String(),
		OrderID:     membership.OrderID.String(),
		Status:      membership.Status.String(),
		StartedAt:   membership.StartedAt,
		TrialEndsAt: membership.TrialEndsAt,
		CreatedAt:   membership.CreatedAt,
		UpdatedAt:   membership.UpdatedAt,
	}
}

// Get godoc
// @ID           getMembership
// @Summary      Get a membership by ID
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Membership ID"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /memberships/{id} [get]
func (h *MembershipHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
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

	membership, err := h.membershipService.GetByID(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMembershipResponse(membership))
}

// MembershipWithQuotasResponse is a membership with its quota records inlined
type MembershipWithQuotasResponse struct {
	MembershipResponse
	Quotas []QuotaRecordResponse `json:"quotas"`
}

func toMembershipWithQuotasResponse(entry *billing.MembershipWithQuotas) MembershipWithQuotasResponse {
	quotas := make([]QuotaRecordResponse, len(entry.Quotas))
	for i, quota := range entry.Quotas {
		quotas[i] = toQuotaRecordResponse(quota)
	}
	return MembershipWithQuotasResponse{
		MembershipResponse: toMembershipResponse(entry.Membership),
		Quotas:             quotas,
	}
}

// List godoc
// @ID           listMemberships
// @Summary      List memberships visible to the caller
// @Tags         memberships
// @Produce      json
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Param        expand query string false "Set to quotas to inline quota records"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /memberships [get]
func (h *MembershipHandler) List(c *gin.Context) {
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

	if req.Expand == "quotas" {
		entries, err := h.membershipService.ListWithQuotas(c.Request.Context(), targets, filterFromList(req))
		if err != nil {
			h.HandleError(c, err)
			return
		}
		responses := make([]MembershipWithQuotasResponse, len(entries))
		for i, entry := range entries {
			responses[i] = toMembershipWithQuotasResponse(entry)
		}
		h.Success(c, responses)
		return
	}

	memberships, err := h.membershipService.List(c.Request.Context(), targets, filterFromList(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]MembershipResponse, len(memberships))
	for i, membership := range memberships {
		responses[i] = toMembershipResponse(membership)
	}
	h.Success(c, responses)
}

// GetQuotas godoc
// @ID           getMembershipQuotas
// @Summary      List the quota records of a membership
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Membership ID"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /memberships/{id}/quotas [get]
func (h *MembershipHandler) GetQuotas(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
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

	quotas, err := h.membershipService.GetQuotas(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]QuotaRecordResponse, len(quotas))
	for i, quota := range quotas {
		responses[i] = toQuotaRecordResponse(quota)
	}
	h.Success(c, responses)
}

// Cancel godoc
// @ID           cancelMembership
// @Summary      Cancel a membership
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Membership ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /memberships/{id}/cancel [post]
func (h *MembershipHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
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

	membership, err := h.membershipService.Cancel(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMembershipResponse(membership))
}
