package handler

import (
	"io"
	"time"

	billingapp "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/payment"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw callback body
const SignatureHeader = "X-Callback-Signature"

// notificationTTL bounds how long a processed notification ID is
// remembered for duplicate suppression. Providers stop retrying well
// before this.
const notificationTTL = 24 * time.Hour

// PaymentCallbackHandler receives payment provider callbacks. The
// endpoint is unauthenticated; the HMAC signature over the raw body is
// the only credential.
type PaymentCallbackHandler struct {
	BaseHandler
	verifier           *payment.CallbackVerifier
	idempotencyStore   shared.IdempotencyStore
	orderRepo          billing.OrderRepository
	membershipRepo     billing.MembershipRepository
	fulfillmentService *billingapp.FulfillmentService
	logger             *zap.Logger
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(
	verifier *payment.CallbackVerifier,
	idempotencyStore shared.IdempotencyStore,
	orderRepo billing.OrderRepository,
	membershipRepo billing.MembershipRepository,
	fulfillmentService *billingapp.FulfillmentService,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		verifier:           verifier,
		idempotencyStore:   idempotencyStore,
		orderRepo:          orderRepo,
		membershipRepo:     membershipRepo,
		fulfillmentService: fulfillmentService,
		logger:             logger,
	}
}

// CallbackAck is the acknowledgement returned to the provider
type CallbackAck struct {
	NotificationID string `json:"notification_id"`
	OrderNumber    string `json:"order_number"`
	Duplicate      bool   `json:"duplicate,omitempty"`
}

// Handle godoc
// @ID           paymentCallback
// @Summary      Receive a payment provider callback
// @Description  Verifies the HMAC signature, suppresses duplicate
// @Description  notifications and advances the referenced order.
// @Tags         callbacks
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /callbacks/payment [post]
func (h *PaymentCallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read callback body")
		return
	}

	notification, err := h.verifier.Verify(body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.logger.Warn("payment callback rejected",
			zap.String("remote_addr", c.ClientIP()),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()

	// Duplicate suppression is a fast path only. The fulfillment
	// transaction's row lock is what actually guarantees at-most-once,
	// so a dedup store failure or a mark left behind by a failed
	// attempt cannot corrupt the order.
	fresh, err := h.idempotencyStore.MarkProcessed(ctx, notification.NotificationID, notificationTTL)
	if err != nil {
		h.logger.Error("idempotency store unavailable, relying on the fulfillment lock",
			zap.String("notification_id", notification.NotificationID),
			zap.Error(err))
		fresh = true
	}
	if !fresh {
		h.logger.Info("duplicate payment callback ignored",
			zap.String("notification_id", notification.NotificationID),
			zap.String("order_number", notification.OrderNumber))
		h.Success(c, CallbackAck{
			NotificationID: notification.NotificationID,
			OrderNumber:    notification.OrderNumber,
			Duplicate:      true,
		})
		return
	}

	order, err := h.orderRepo.FindByOrderNumber(ctx, notification.OrderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	switch notification.Event {
	case payment.CallbackEventPaid:
		_, err = h.fulfillmentService.ConfirmPayment(ctx, order.ID)
	case payment.CallbackEventTrialOpened:
		_, err = h.fulfillmentService.StartTrial(ctx, order.ID)
	case payment.CallbackEventRefunded:
		err = h.processRefund(c, order)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("payment callback processed",
		zap.String("notification_id", notification.NotificationID),
		zap.String("order_number", notification.OrderNumber),
		zap.String("event", string(notification.Event)))
	h.Success(c, CallbackAck{
		NotificationID: notification.NotificationID,
		OrderNumber:    notification.OrderNumber,
	})
}

// processRefund returns the order and cancels the membership it funded
func (h *PaymentCallbackHandler) processRefund(c *gin.Context, order *billing.Order) error {
	ctx := c.Request.Context()
	if err := order.Return(); err != nil {
		return err
	}
	if err := h.orderRepo.Update(ctx, order); err != nil {
		return err
	}

	membership, err := h.membershipRepo.FindByOrderID(ctx, order.ID)
	if err != nil {
		// A refund for an order that never got fulfilled has nothing
		// else to unwind.
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := membership.Cancel(); err != nil {
		return err
	}
	return h.membershipRepo.Update(ctx, membership)
}
