package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"shaadibiyah/internal/models"
	"shaadibiyah/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// HandleWebhook processes asynchronous payment outcomes pushed by Stripe.
// ProcessPayment only publishes final statuses, so intents that were left
// pending (3DS, processing) are settled here once Stripe calls back. The
// signature check is the only authentication on this endpoint.
func (h *StripeHandler) HandleWebhook(c *gin.Context) {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		h.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Webhook processing error", "webhook not configured"))
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid webhook payload", err.Error()))
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload,
		c.GetHeader("Stripe-Signature"), webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid webhook signature", "signature verification failed"))
		return
	}

	h.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	var outcome models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = models.StatusSuccess
	case "payment_intent.payment_failed":
		outcome = models.StatusFailed
	default:
		// Not an event we act on, acknowledge so Stripe stops retrying
		c.JSON(http.StatusOK, utils.SuccessResponse("Event ignored", nil))
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal payment intent: %v", err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid event data", err.Error()))
		return
	}

	paymentID, ok := intent.Metadata["payment_id"]
	if !ok || paymentID == "" {
		h.logger.Error("WEBHOOK", "Payment intent has no payment_id in metadata")
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid payment intent data", "payment_id metadata missing"))
		return
	}

	payment, err := h.paymentStore.GetPayment(paymentID)
	if err != nil {
		h.logger.Error("WEBHOOK", fmt.Sprintf("No payment record %s for webhook event: %v", paymentID, err))
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	// Stripe retries webhooks; a payment already settled to this outcome
	// needs no second update or event
	if payment.Status == outcome {
		c.JSON(http.StatusOK, utils.SuccessResponse("Already processed", payment))
		return
	}

	payment.Status = outcome
	payment.IntentID = intent.ID
	if outcome == models.StatusSuccess {
		payment.TransactionID = intent.ID
	}
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		h.logger.Error("WEBHOOK", fmt.Sprintf("Failed to update payment record %s: %v", paymentID, err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to process payment", err.Error()))
		return
	}

	h.publishResult(payment)

	h.logger.Info("WEBHOOK", fmt.Sprintf("Payment %s settled %s for booking %s", payment.PaymentID, payment.Status, payment.BookingID))
	c.JSON(http.StatusOK, utils.SuccessResponse("Webhook processed", payment))
}
