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

// QuotaHandler handles quota record API endpoints
type QuotaHandler struct {
	BaseHandler
	quotaService *billingapp.QuotaService
	resolver     *appaccess.Resolver
}

// NewQuotaHandler creates a new QuotaHandler
func NewQuotaHandler(quotaService *billingapp.QuotaService, resolver *appaccess.Resolver) *QuotaHandler {
	return &QuotaHandler{
		quotaService: quotaService,
		resolver:     resolver,
	}
}

// AdjustQuotaRequest represents a request to replace quota limits
type AdjustQuotaRequest struct {
	SoftLimit int64 `json:"soft_limit" binding:"min=0"`
	HardLimit int64 `json:"hard_limit" binding:"min=0"`
}

// QuotaRecordResponse is the API representation of a quota record
type QuotaRecordResponse struct {
	ID           string    `json:"id"`
	ObjectType   string    `json:"object_type"`
	QuotaType    string    `json:"quota_type"`
	SoftLimit    int64     `json:"soft_limit"`
	HardLimit    int64     `json:"hard_limit"`
	Used         int64     `json:"used"`
	Remaining    int64     `json:"remaining"`
	Unit         string    `json:"unit"`
	MembershipID string    `json:"membership_id"`
	Subject      string    `json:"subject"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toQuotaRecordResponse(record *billing.QuotaRecord) QuotaRecordResponse {
	return QuotaRecordResponse{
		ID:           record.ID.String(),
		ObjectType:   record.ObjectType,
		QuotaType:    record.QuotaType,
		SoftLimit:    record.SoftLimit,
		HardLimit:    record.HardLimit,
		Used:         record.Used,
		Remaining:    record.Remaining(),
		Unit:         record.Unit,
		MembershipID: record.MembershipID.String(),
		Subject:      record.Subject,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

// Get godoc
// @ID           getQuota
// @Summary      Get a quota record by ID
// @Tags         quotas
// @Produce      json
// @Param        id path string true "Quota record ID"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /quotas/{id} [get]
func (h *QuotaHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quota record ID")
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

	record, err := h.quotaService.GetByID(c.Request.Context(), targets, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuotaRecordResponse(record))
}

// List godoc
// @ID           listQuotas
// @Summary      List quota records visible to the caller
// @Tags         quotas
// @Produce      json
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /quotas [get]
func (h *QuotaHandler) List(c *gin.Context) {
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

	records, err := h.quotaService.List(c.Request.Context(), targets, filterFromList(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]QuotaRecordResponse, len(records))
	for i, record := range records {
		responses[i] = toQuotaRecordResponse(record)
	}
	h.Success(c, responses)
}

// AdjustLimits godoc
// @ID           adjustQuotaLimits
// @Summary      Replace a quota record's limits
// @Description  Administrator-only quota adjustment
// @Tags         quotas
// @Accept       json
// @Produce      json
// @Param        id path string true "Quota record ID"
// @Param        request body AdjustQuotaRequest true "New limits"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /quotas/{id}/limits [put]
func (h *QuotaHandler) AdjustLimits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quota record ID")
		return
	}

	var req AdjustQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.quotaService.AdjustLimits(c.Request.Context(), id, billingapp.AdjustQuotaRequest{
		SoftLimit: req.SoftLimit,
		HardLimit: req.HardLimit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuotaRecordResponse(record))
}
