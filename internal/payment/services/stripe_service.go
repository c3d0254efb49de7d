package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeService handles integration with the Stripe payment gateway.
type StripeService struct {
	client *client.API
	log    *logger.Logger
}

// parseStringToInt64 safely converts a string to int64, returns 0 if conversion fails
func parseStringToInt64(s string) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

func NewStripeService(log *logger.Logger) (*StripeService, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(stripeKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{
		client: sc,
		log:    log,
	}, nil
}

// ValidateCard validates the provided card details using Stripe
func (s *StripeService) ValidateCard(card *models.StripeCard) (*models.StripeCardValidationResponse, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(parseStringToInt64(card.ExpMonth)),
			ExpYear:  stripe.Int64(parseStringToInt64(card.ExpYear)),
			CVC:      stripe.String(card.CVC),
		},
	}

	pm, err := s.client.PaymentMethods.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Card validation failed: %v", err))

		return &models.StripeCardValidationResponse{
			Valid:   false,
			Message: err.Error(),
		}, nil
	}

	response := &models.StripeCardValidationResponse{
		Valid:    true,
		Message:  "Card is valid",
		CardType: string(pm.Card.Brand),
		Last4:    pm.Card.Last4,
	}

	s.log.Info("VALIDATE", fmt.Sprintf("Card validation successful: %s ending in %s", response.CardType, response.Last4))

	// Clean up the payment method since we don't need it anymore
	_, err = s.client.PaymentMethods.Detach(pm.ID, &stripe.PaymentMethodDetachParams{})
	if err != nil {
		s.log.Warn("STRIPE", fmt.Sprintf("Failed to detach payment method: %v", err))
	}

	return response, nil
}

// ProcessPayment charges the booking total through Stripe. The amount on the
// request is set server side from the booking record before this is called.
func (s *StripeService) ProcessPayment(ctx context.Context, req *models.StripePaymentRequest) (*models.StripePaymentResponse, error) {
	s.log.Info("PROCESS", fmt.Sprintf("Processing Stripe payment for booking %s, amount: %.2f %s (paymentID: %s)",
		req.BookingID, req.Amount, req.Currency, req.PaymentID))

	if req.Amount <= 0 {
		s.log.Error("ERROR", fmt.Sprintf("Invalid amount for booking %s: %.2f", req.BookingID, req.Amount))
		return nil, fmt.Errorf("invalid payment amount: %.2f", req.Amount)
	}

	var paymentMethod string
	if req.Token != "" {
		paymentMethod = req.Token
		s.log.Info("STRIPE", fmt.Sprintf("Using provided token/payment method ID (paymentID: %s)", req.PaymentID))
	} else if req.Card != nil {
		pmParams := &stripe.PaymentMethodParams{
			Type: stripe.String("card"),
			Card: &stripe.PaymentMethodCardParams{
				Number:   stripe.String(req.Card.Number),
				ExpMonth: stripe.Int64(parseStringToInt64(req.Card.ExpMonth)),
				ExpYear:  stripe.Int64(parseStringToInt64(req.Card.ExpYear)),
				CVC:      stripe.String(req.Card.CVC),
			},
		}
		if req.Card.Name != "" {
			pmParams.BillingDetails = &stripe.PaymentMethodBillingDetailsParams{
				Name: stripe.String(req.Card.Name),
			}
		}
		s.log.Info("STRIPE", fmt.Sprintf("Creating payment method from card (paymentID: %s)", req.PaymentID))
		pm, err := s.client.PaymentMethods.New(pmParams)
		if err != nil {
			s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment method: %v", err))
			return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
		}
		paymentMethod = pm.ID
		s.log.Info("STRIPE", fmt.Sprintf("Payment method created: %s (paymentID: %s)", pm.ID, req.PaymentID))
	} else {
		return nil, fmt.Errorf("%w: no payment method provided", ErrStripeAPIError)
	}

	// Stripe works in the smallest currency unit
	amountInCents := int64(req.Amount * 100)
	metadata := make(map[string]string)
	metadata["payment_id"] = req.PaymentID
	metadata["booking_id"] = req.BookingID
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountInCents),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(paymentMethod),
		Description:        stripe.String(fmt.Sprintf("ShaadiBiyah booking %s", req.BookingID)),
		Metadata:           metadata,
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}

	s.log.Info("STRIPE", fmt.Sprintf("Creating payment intent (paymentID: %s)", req.PaymentID))
	pi, err := s.client.PaymentIntents.New(piParams)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	s.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s (paymentID: %s)", pi.ID, req.PaymentID))

	var status models.PaymentStatus
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.StatusSuccess
		s.log.Info("STRIPE", fmt.Sprintf("Payment succeeded (paymentID: %s)", req.PaymentID))
	case stripe.PaymentIntentStatusProcessing:
		status = models.StatusPending
		s.log.Info("STRIPE", fmt.Sprintf("Payment is processing (paymentID: %s)", req.PaymentID))
	case stripe.PaymentIntentStatusRequiresAction:
		status = models.StatusPending
		s.log.Info("STRIPE", fmt.Sprintf("Payment requires further action (paymentID: %s)", req.PaymentID))
	default:
		status = models.StatusFailed
		s.log.Error("STRIPE", fmt.Sprintf("Payment failed with status: %s (paymentID: %s)", pi.Status, req.PaymentID))
	}

	response := &models.StripePaymentResponse{
		PaymentID:     req.PaymentID,
		BookingID:     req.BookingID,
		Status:        status,
		Amount:        float64(pi.Amount) / 100.0,
		Currency:      string(pi.Currency),
		TransactionID: pi.ID,
		PaymentMethod: paymentMethod,
		Created:       pi.Created,
	}

	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		charge, err := s.client.Charges.Get(pi.LatestCharge.ID, nil)
		if err == nil && charge.ReceiptURL != "" {
			response.ReceiptURL = charge.ReceiptURL
		}
	}

	return response, nil
}
