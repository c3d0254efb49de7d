package booking_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shaadibiyah/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func paymentEventBytes(t *testing.T, eventType, bookingID string) []byte {
	t.Helper()
	data, err := json.Marshal(models.PaymentEvent{
		Type:      eventType,
		PaymentID: "pay-1",
		BookingID: bookingID,
		Amount:    150000,
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
	return data
}

func TestHandlePaymentEventSuccess(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockPush := new(MockPusher)
	svc := newTestService(mockDB, mockNotify, new(MockKafkaProducer), mockPush, &MockEmailSender{})

	testBooking := &models.Booking{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
		Status:     models.BookingApproved,
	}
	mockDB.On("SetPaymentStatus", "bk-1", models.PaymentCompleted).Return(true, nil)
	mockDB.On("GetBookingByID", "bk-1").Return(testBooking, nil)
	mockNotify.On("CreateNotification", mock.Anything).Return(nil)
	mockPush.On("EmitToUser", "cust-1", mock.Anything).Return()

	err := svc.HandlePaymentEvent(context.Background(), []byte("bk-1"), paymentEventBytes(t, "payment.success", "bk-1"))

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestHandlePaymentEventFailed(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockPush := new(MockPusher)
	svc := newTestService(mockDB, mockNotify, new(MockKafkaProducer), mockPush, &MockEmailSender{})

	testBooking := &models.Booking{
		BookingID:  "bk-2",
		CustomerID: "cust-1",
		Status:     models.BookingApproved,
	}
	mockDB.On("SetPaymentStatus", "bk-2", models.PaymentFailed).Return(true, nil)
	mockDB.On("GetBookingByID", "bk-2").Return(testBooking, nil)
	mockNotify.On("CreateNotification", mock.Anything).Return(nil)
	mockPush.On("EmitToUser", "cust-1", mock.Anything).Return()

	err := svc.HandlePaymentEvent(context.Background(), []byte("bk-2"), paymentEventBytes(t, "payment.failed", "bk-2"))

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestHandlePaymentEventUnknownTypeSkipped(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	err := svc.HandlePaymentEvent(context.Background(), []byte("bk-1"), paymentEventBytes(t, "payment.refund_requested", "bk-1"))

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything)
}

func TestHandlePaymentEventBadPayloadAcked(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	// Malformed payloads are logged and acknowledged, never retried forever
	err := svc.HandlePaymentEvent(context.Background(), []byte("bk-1"), []byte("{not json"))

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything)
}

func TestHandlePaymentEventMissingBookingID(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	err := svc.HandlePaymentEvent(context.Background(), []byte("pay-1"), paymentEventBytes(t, "payment.success", ""))

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything)
}
