package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CallbackEvent identifies what the payment provider is reporting
type CallbackEvent string

const (
	CallbackEventPaid        CallbackEvent = "payment.succeeded"
	CallbackEventTrialOpened CallbackEvent = "trial.opened"
	CallbackEventRefunded    CallbackEvent = "payment.refunded"
)

// CallbackNotification is the decoded payload of a provider callback
type CallbackNotification struct {
	NotificationID string        `json:"notification_id"`
	Event          CallbackEvent `json:"event"`
	OrderNumber    string        `json:"order_number"`
	TransactionID  string        `json:"transaction_id"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// CallbackVerifier authenticates provider callbacks with an HMAC-SHA256
// signature over the raw request body. Callbacks arrive without a bearer
// token, so the signature is the only authentication they get.
type CallbackVerifier struct {
	secret []byte
}

// NewCallbackVerifier creates a verifier with the shared callback secret
func NewCallbackVerifier(secret string) *CallbackVerifier {
	return &CallbackVerifier{secret: []byte(secret)}
}

// Verify checks the hex-encoded signature against the raw body and
// decodes the notification. Any mismatch or malformed payload is
// rejected before the order is touched.
func (v *CallbackVerifier) Verify(body []byte, signature string) (*CallbackNotification, error) {
	if len(v.secret) == 0 {
		return nil, shared.NewDomainError("CALLBACK_REJECTED", "Callback secret is not configured")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(provided, mac.Sum(nil)) {
		return nil, shared.NewDomainError("CALLBACK_REJECTED", "Invalid callback signature")
	}

	var notification CallbackNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, shared.NewDomainError("CALLBACK_REJECTED", "Malformed callback payload")
	}
	if err := notification.validate(); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (n *CallbackNotification) validate() error {
	if n.NotificationID == "" {
		return shared.NewDomainError("CALLBACK_REJECTED", "Missing notification ID")
	}
	if _, err := uuid.Parse(n.NotificationID); err != nil {
		return shared.NewDomainError("CALLBACK_REJECTED",
			fmt.Sprintf("Notification ID %q is not a valid UUID", n.NotificationID))
	}
	switch n.Event {
	case CallbackEventPaid, CallbackEventTrialOpened, CallbackEventRefunded:
	default:
		return shared.NewDomainError("CALLBACK_REJECTED",
			fmt.Sprintf("Unknown callback event %q", n.Event))
	}
	if n.OrderNumber == "" {
		return shared.NewDomainError("CALLBACK_REJECTED", "Missing order number")
	}
	return nil
}

// Sign computes the signature for a body. Used by tests and by the
// sandbox provider simulator.
func (v *CallbackVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
