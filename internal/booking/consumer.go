package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"shaadibiyah/internal/models"
)

// HandlePaymentEvent consumes a payment outcome published by the payment
// service and folds it into the booking's payment status. Unknown event
// types are acknowledged and skipped so the consumer never wedges on them.
func (s *Service) HandlePaymentEvent(ctx context.Context, key, value []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("unreadable payment event for key %s: %v", string(key), err))
		return nil
	}

	var succeeded bool
	switch event.Type {
	case "payment.success":
		succeeded = true
	case "payment.failed":
		succeeded = false
	default:
		s.logger.Warn("KAFKA", fmt.Sprintf("skipping payment event with unknown type %q", event.Type))
		return nil
	}

	if event.BookingID == "" {
		s.logger.Warn("KAFKA", fmt.Sprintf("payment event %s carries no booking id", event.PaymentID))
		return nil
	}

	s.logger.LogKafka("CONSUME", event.Type, fmt.Sprintf("payment %s for booking %s", event.PaymentID, event.BookingID))
	return s.RecordPaymentResult(ctx, event.BookingID, succeeded)
}
