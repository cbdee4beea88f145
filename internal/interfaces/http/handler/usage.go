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

// UsageHandler handles usage recording API endpoints
type UsageHandler struct {
	BaseHandler
	usageService *billingapp.UsageService
	resolver     *appaccess.Resolver
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(usageService *billingapp.UsageService, resolver *appaccess.Resolver) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		resolver:     resolver,
	}
}

// RecordUsageRequest represents a request to record quota usage
type RecordUsageRequest struct {
	MembershipID string `json:"membership_id" binding:"required,uuid"`
	QuotaType    string `json:"quota_type" binding:"required,min=1,max=100"`
	Amount       int64  `json:"amount" binding:"required,min=1"`
	Description  string `json:"description" binding:"max=500"`
}

// UsageRecordResponse is the API representation of a usage record
type UsageRecordResponse struct {
	ID           string    `json:"id"`
	MembershipID string    `json:"membership_id"`
	Subject      string    `json:"subject"`
	QuotaType    string    `json:"quota_type"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUsageRecordResponse(record *billing.UsageRecord) UsageRecordResponse {
	return UsageRecordResponse{
		ID:           record.ID.String(),
		MembershipID: record.MembershipID.String(),
		Subject:      record.Subject,
		QuotaType:    record.QuotaType,
		Amount:       record.Amount,
		Description:  record.Description,
		CreatedAt:    record.CreatedAt,
	}
}

// Record godoc
// @ID           recordUsage
// @Summary      Record quota usage against a membership
// @Tags         usage
// @Accept       json
// @Produce      json
// @Param        request body RecordUsageRequest true "Usage event"
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      201 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /usage [post]
func (h *UsageHandler) Record(c *gin.Context) {
	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	membershipID, err := uuid.Parse(req.MembershipID)
	if err != nil {
		h.BadRequest(c, "Invalid membership ID")
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

	record, err := h.usageService.Record(c.Request.Context(), targets, billingapp.RecordUsageRequest{
		MembershipID: membershipID,
		QuotaType:    req.QuotaType,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toUsageRecordResponse(record))
}

// List godoc
// @ID           listUsage
// @Summary      List usage records visible to the caller
// @Tags         usage
// @Produce      json
// @Param        subscriber query []string false "Restrict to subjects"
// @Param        requestor query string false "Admin act-as subject"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /usage [get]
func (h *UsageHandler) List(c *gin.Context) {
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

	records, err := h.usageService.List(c.Request.Context(), targets, filterFromList(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]UsageRecordResponse, len(records))
	for i, record := range records {
		responses[i] = toUsageRecordResponse(record)
	}
	h.Success(c, responses)
}
