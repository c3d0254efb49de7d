package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	paymentredis "shaadibiyah/internal/payment/redis"
	"shaadibiyah/internal/payment/services"
	"shaadibiyah/internal/payment/storage"
	"shaadibiyah/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultCurrency = "pkr"

// Topics carries the Kafka topic names payment results are published to.
type Topics struct {
	PaymentSuccess string
	PaymentFailed  string
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type StripeHandler struct {
	stripeService *services.StripeService
	paymentStore  storage.Store
	locks         *paymentredis.Redis
	producer      KafkaPublisher
	topics        Topics
	logger        *logger.Logger
}

func NewStripeHandler(stripeService *services.StripeService, paymentStore storage.Store, locks *paymentredis.Redis, producer KafkaPublisher, topics Topics, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		paymentStore:  paymentStore,
		locks:         locks,
		producer:      producer,
		topics:        topics,
		logger:        logger,
	}
}

// ValidateCard validates credit card details without creating a charge
func (h *StripeHandler) ValidateCard(c *gin.Context) {
	var req models.StripeCardValidationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	// Only validate cards against bookings that actually exist
	_, err := h.paymentStore.GetBookingSnapshot(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			"No booking found for this booking_id"))
		return
	}

	result, err := h.stripeService.ValidateCard(req.Card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Card validation failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Card validation result", result))
}

// ProcessPayment charges a booking through Stripe. The amount always comes
// from the booking record, never from the request body.
func (h *StripeHandler) ProcessPayment(c *gin.Context) {
	var req models.StripePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	if req.BookingID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "booking_id is required"))
		return
	}

	if req.Currency == "" {
		req.Currency = defaultCurrency
	}

	if req.Token == "" && req.Card == nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "Either token or card must be provided"))
		return
	}

	// The booking row decides whether a charge is allowed and for how much.
	// This prevents the frontend from specifying the amount, which could be a security risk
	booking, err := h.paymentStore.GetBookingSnapshot(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			"No booking found for this booking_id"))
		return
	}

	if booking.Status != string(models.BookingApproved) {
		h.logger.Warn("PAYMENT", fmt.Sprintf("Charge refused for booking %s in status %s", booking.BookingID, booking.Status))
		c.JSON(http.StatusConflict, utils.ErrorResponse("Booking not payable",
			fmt.Sprintf("Booking must be approved before payment, current status: %s", booking.Status)))
		return
	}

	if booking.PaymentStatus == string(models.PaymentCompleted) {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Booking not payable", "Booking has already been paid"))
		return
	}

	req.Amount = booking.TotalAmount
	h.logger.Info("PAYMENT", fmt.Sprintf("Using amount %.2f from booking %s", req.Amount, req.BookingID))

	// Reuse the pending payment record for this booking if one exists
	payment, err := h.paymentStore.GetPaymentByBookingID(req.BookingID)
	if err != nil {
		payment = &models.Payment{
			PaymentID:   utils.GeneratePaymentID(),
			BookingID:   booking.BookingID,
			Status:      models.StatusPending,
			Amount:      booking.TotalAmount,
			Currency:    req.Currency,
			CreatedDate: time.Now(),
		}
		if err := h.paymentStore.SavePayment(payment); err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment creation failed", err.Error()))
			return
		}
		h.logger.Info("PAYMENT", fmt.Sprintf("Created payment record %s for booking %s", payment.PaymentID, booking.BookingID))
	} else if payment.Status == models.StatusSuccess {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Booking not payable", "Booking has already been paid"))
		return
	}
	req.PaymentID = payment.PaymentID

	// One charge in flight per booking
	locked, err := h.locks.LockBooking(booking.BookingID, payment.PaymentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment lock failed", err.Error()))
		return
	}
	if !locked {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Payment in progress",
			"Another payment for this booking is already being processed"))
		return
	}
	defer func() {
		if err := h.locks.UnlockBooking(booking.BookingID, payment.PaymentID); err != nil {
			h.logger.Warn("REDIS", fmt.Sprintf("Failed to release payment lock for booking %s: %v", booking.BookingID, err))
		}
	}()

	result, err := h.stripeService.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment processing failed", err.Error()))
		return
	}

	payment.Status = result.Status
	payment.IntentID = result.TransactionID
	if result.Status == models.StatusSuccess {
		payment.TransactionID = result.TransactionID
	}
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		// The Stripe charge went through, keep going but leave a trace
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment record %s: %v", payment.PaymentID, err))
	}

	h.publishResult(payment)

	response := map[string]interface{}{
		"stripe_result":  result,
		"payment_record": payment,
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", response))
}

// GetPaymentByBooking returns the latest payment record for a booking
func (h *StripeHandler) GetPaymentByBooking(c *gin.Context) {
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "bookingId is required"))
		return
	}

	payment, err := h.paymentStore.GetPaymentByBookingID(bookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment record", payment))
}

// publishResult streams the payment outcome to Kafka so the marketplace can
// reconcile the booking's payment status.
func (h *StripeHandler) publishResult(payment *models.Payment) {
	var (
		topic     string
		eventType string
	)
	switch payment.Status {
	case models.StatusSuccess:
		topic = h.topics.PaymentSuccess
		eventType = "payment.success"
	case models.StatusFailed:
		topic = h.topics.PaymentFailed
		eventType = "payment.failed"
	default:
		// Pending outcomes are not final, nothing to reconcile yet
		return
	}

	event := &models.PaymentEvent{
		Type:      eventType,
		PaymentID: payment.PaymentID,
		BookingID: payment.BookingID,
		Amount:    payment.Amount,
		Timestamp: time.Now(),
	}

	eventData, _ := json.Marshal(event)
	if err := h.producer.Publish(topic, payment.BookingID, eventData); err != nil {
		h.logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s event for payment %s: %v", eventType, payment.PaymentID, err))
		return
	}
	h.logger.LogKafka("PUBLISH", topic, fmt.Sprintf("%s event published for payment %s", eventType, payment.PaymentID))
}
