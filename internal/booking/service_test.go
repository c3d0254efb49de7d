package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/booking"
	"shaadibiyah/internal/email"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) CreateBooking(ctx context.Context, b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateBookingIfPending(ctx context.Context, b models.Booking) (bool, error) {
	args := m.Called(b)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) TransitionStatus(ctx context.Context, bookingID string, fromStates []models.BookingStatus, newStatus models.BookingStatus, now time.Time) (bool, error) {
	args := m.Called(bookingID, fromStates, newStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) SetPaymentStatus(ctx context.Context, bookingID string, state models.PaymentState) (bool, error) {
	args := m.Called(bookingID, state)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	args := m.Called(customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) ListByVendor(ctx context.Context, vendorID string) ([]models.Booking, error) {
	args := m.Called(vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDBLayer) GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	args := m.Called(vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockDBLayer) GetVendorByOwner(ctx context.Context, ownerID string) (*models.Vendor, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockDBLayer) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	args := m.Called(serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) CreateNotification(ctx context.Context, n models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) Publish(topic string, key string, value []byte) error {
	args := m.Called(topic, key, value)
	return args.Error(0)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) EmitToUser(userID string, event models.PushEvent) {
	m.Called(userID, event)
}

// MockEmailSender records deliveries and can be flipped into failure mode.
type MockEmailSender struct {
	Sent []string
	Fail bool
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, htmlBody string) email.Outcome {
	if m.Fail {
		return email.Failed(errors.New("smtp unreachable"))
	}
	m.Sent = append(m.Sent, to)
	return email.Delivered()
}

func newTestService(db *MockDBLayer, notifier *MockNotifier, kafka *MockKafkaProducer, push *MockPusher, sender *MockEmailSender) *booking.Service {
	topics := booking.Topics{
		BookingCreated: "shaadibiyah.booking.created",
		BookingStatus:  "shaadibiyah.booking.status",
	}
	return booking.NewService(db, notifier, sender, kafka, push, topics, logger.NewLogger())
}

func testVendor(ownerID string) *models.Vendor {
	return &models.Vendor{
		VendorID:           uuid.NewString(),
		OwnerID:            ownerID,
		BusinessName:       "Shahi Caterers",
		Category:           models.CategoryCaterer,
		ContactEmail:       "shahi@example.com",
		VerificationStatus: models.VerificationVerified,
		IsActive:           true,
	}
}

func testCustomer() *models.User {
	return &models.User{
		UserID:   uuid.NewString(),
		FullName: "Ayesha Khan",
		Email:    "ayesha@example.com",
		Role:     models.RoleCustomer,
	}
}

// Tests start here
func TestCreateBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockKafka := new(MockKafkaProducer)
	mockPush := new(MockPusher)
	sender := &MockEmailSender{}

	svc := newTestService(mockDB, mockNotify, mockKafka, mockPush, sender)

	vendor := testVendor("owner-1")
	customer := testCustomer()
	service := &models.Service{
		ServiceID: uuid.NewString(),
		VendorID:  vendor.VendorID,
		Name:      "Full Wedding Catering",
		BasePrice: 2000.0,
		IsActive:  true,
	}

	req := models.BookingRequest{
		VendorID:        vendor.VendorID,
		ServiceID:       service.ServiceID,
		EventDate:       time.Now().AddDate(0, 2, 0),
		DurationHours:   6,
		GuestCount:      300,
		Location:        "Lahore",
		AdditionalCosts: 500.0,
	}

	mockDB.On("GetService", service.ServiceID).Return(service, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetUser", customer.UserID).Return(customer, nil)
	mockDB.On("CreateBooking", mock.MatchedBy(func(b models.Booking) bool {
		return b.Status == models.BookingPending && b.TotalAmount == 2500.0
	})).Return(nil)
	mockNotify.On("CreateNotification", mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == vendor.OwnerID && n.Type == models.NotifyBookingRequest
	})).Return(nil)
	mockKafka.On("Publish", "shaadibiyah.booking.created", mock.Anything, mock.Anything).Return(nil)

	details, err := svc.CreateBooking(context.Background(), customer.UserID, req)

	assert.NoError(t, err)
	assert.Equal(t, models.BookingPending, details.Booking.Status)
	assert.Equal(t, 2500.0, details.Booking.TotalAmount)
	assert.Equal(t, customer.FullName, details.Customer.FullName)
	assert.Contains(t, sender.Sent, vendor.ContactEmail)
	mockDB.AssertExpectations(t)
	mockNotify.AssertExpectations(t)
}

func TestCreateBookingEmailFailureDoesNotBlock(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockKafka := new(MockKafkaProducer)
	sender := &MockEmailSender{Fail: true}

	svc := newTestService(mockDB, mockNotify, mockKafka, new(MockPusher), sender)

	vendor := testVendor("owner-1")
	customer := testCustomer()
	service := &models.Service{
		ServiceID: uuid.NewString(),
		VendorID:  vendor.VendorID,
		Name:      "Bridal Makeup",
		BasePrice: 400.0,
		IsActive:  true,
	}

	mockDB.On("GetService", service.ServiceID).Return(service, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetUser", customer.UserID).Return(customer, nil)
	mockDB.On("CreateBooking", mock.Anything).Return(nil)
	mockNotify.On("CreateNotification", mock.Anything).Return(nil)
	mockKafka.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	details, err := svc.CreateBooking(context.Background(), customer.UserID, models.BookingRequest{
		VendorID:  vendor.VendorID,
		ServiceID: service.ServiceID,
		EventDate: time.Now().AddDate(0, 1, 0),
	})

	// Booking persists and the notification is written even when email fails.
	assert.NoError(t, err)
	assert.NotNil(t, details)
	mockNotify.AssertExpectations(t)
}

func TestCreateBookingServiceVendorMismatch(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	service := &models.Service{
		ServiceID: "svc-1",
		VendorID:  "vendor-a",
		BasePrice: 100.0,
		IsActive:  true,
	}
	mockDB.On("GetService", "svc-1").Return(service, nil)

	_, err := svc.CreateBooking(context.Background(), "cust-1", models.BookingRequest{
		VendorID:  "vendor-b",
		ServiceID: "svc-1",
	})

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	mockDB.AssertNotCalled(t, "CreateBooking", mock.Anything)
}

func TestCreateBookingUnverifiedVendor(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	vendor := testVendor("owner-1")
	vendor.VerificationStatus = models.VerificationPending
	service := &models.Service{
		ServiceID: "svc-1",
		VendorID:  vendor.VendorID,
		BasePrice: 100.0,
		IsActive:  true,
	}
	mockDB.On("GetService", "svc-1").Return(service, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)

	_, err := svc.CreateBooking(context.Background(), "cust-1", models.BookingRequest{
		VendorID:  vendor.VendorID,
		ServiceID: "svc-1",
	})

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestVendorTransitionApprove(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockKafka := new(MockKafkaProducer)
	mockPush := new(MockPusher)
	sender := &MockEmailSender{}

	svc := newTestService(mockDB, mockNotify, mockKafka, mockPush, sender)

	vendor := testVendor("owner-1")
	customer := testCustomer()
	testBooking := &models.Booking{
		BookingID:  uuid.NewString(),
		CustomerID: customer.UserID,
		VendorID:   vendor.VendorID,
		ServiceID:  "svc-1",
		Status:     models.BookingPending,
	}

	mockDB.On("GetBookingByID", testBooking.BookingID).Return(testBooking, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)
	mockDB.On("TransitionStatus", testBooking.BookingID,
		[]models.BookingStatus{models.BookingPending}, models.BookingApproved).Return(true, nil)
	mockDB.On("GetService", "svc-1").Return(nil, errors.New("not found"))
	mockDB.On("GetUser", customer.UserID).Return(customer, nil)
	mockNotify.On("CreateNotification", mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == customer.UserID && n.Type == models.NotifyBookingStatus
	})).Return(nil)
	mockPush.On("EmitToUser", customer.UserID, mock.Anything).Return()
	mockKafka.On("Publish", "shaadibiyah.booking.status", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.VendorTransition(context.Background(), testBooking.BookingID, "owner-1", models.BookingApproved)

	assert.NoError(t, err)
	assert.Equal(t, models.BookingApproved, updated.Status)
	assert.NotNil(t, updated.ApprovedAt)
	mockDB.AssertExpectations(t)
	mockNotify.AssertExpectations(t)
}

func TestVendorTransitionIllegalEdge(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	vendor := testVendor("owner-1")
	testBooking := &models.Booking{
		BookingID:  uuid.NewString(),
		CustomerID: "cust-1",
		VendorID:   vendor.VendorID,
		Status:     models.BookingPending,
	}

	mockDB.On("GetBookingByID", testBooking.BookingID).Return(testBooking, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)

	// PENDING cannot jump straight to CONFIRMED.
	_, err := svc.VendorTransition(context.Background(), testBooking.BookingID, "owner-1", models.BookingConfirmed)

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	mockDB.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorTransitionNotOwner(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	vendor := testVendor("owner-1")
	testBooking := &models.Booking{
		BookingID:  uuid.NewString(),
		CustomerID: "cust-1",
		VendorID:   vendor.VendorID,
		Status:     models.BookingPending,
	}

	mockDB.On("GetBookingByID", testBooking.BookingID).Return(testBooking, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)

	_, err := svc.VendorTransition(context.Background(), testBooking.BookingID, "intruder", models.BookingApproved)

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authorization))
}

func TestVendorTransitionLostRace(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	vendor := testVendor("owner-1")
	testBooking := &models.Booking{
		BookingID:  uuid.NewString(),
		CustomerID: "cust-1",
		VendorID:   vendor.VendorID,
		Status:     models.BookingPending,
	}

	mockDB.On("GetBookingByID", testBooking.BookingID).Return(testBooking, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)
	// Another request won the conditional update first: zero rows affected.
	mockDB.On("TransitionStatus", testBooking.BookingID,
		[]models.BookingStatus{models.BookingPending}, models.BookingApproved).Return(false, nil)

	_, err := svc.VendorTransition(context.Background(), testBooking.BookingID, "owner-1", models.BookingApproved)

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestUpdateBookingOnlyWhilePending(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	testBooking := &models.Booking{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
		Status:     models.BookingApproved,
	}
	mockDB.On("GetBookingByID", "bk-1").Return(testBooking, nil)

	guests := 500
	_, err := svc.UpdateBooking(context.Background(), "bk-1", "cust-1", models.BookingPatch{GuestCount: &guests})

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	mockDB.AssertNotCalled(t, "UpdateBookingIfPending", mock.Anything)
}

func TestUpdateBookingRecomputesTotal(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	testBooking := &models.Booking{
		BookingID:       "bk-1",
		CustomerID:      "cust-1",
		Status:          models.BookingPending,
		BasePrice:       1000.0,
		AdditionalCosts: 100.0,
		TotalAmount:     1100.0,
	}
	mockDB.On("GetBookingByID", "bk-1").Return(testBooking, nil)
	mockDB.On("UpdateBookingIfPending", mock.MatchedBy(func(b models.Booking) bool {
		return b.TotalAmount == 1250.0
	})).Return(true, nil)

	extra := 250.0
	updated, err := svc.UpdateBooking(context.Background(), "bk-1", "cust-1", models.BookingPatch{AdditionalCosts: &extra})

	assert.NoError(t, err)
	assert.Equal(t, 1250.0, updated.TotalAmount)
	mockDB.AssertExpectations(t)
}

func TestCancelBookingFromApproved(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	mockKafka := new(MockKafkaProducer)
	sender := &MockEmailSender{}
	svc := newTestService(mockDB, mockNotify, mockKafka, new(MockPusher), sender)

	vendor := testVendor("owner-1")
	testBooking := &models.Booking{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
		VendorID:   vendor.VendorID,
		ServiceID:  "svc-1",
		Status:     models.BookingApproved,
	}

	mockDB.On("GetBookingByID", "bk-1").Return(testBooking, nil)
	mockDB.On("TransitionStatus", "bk-1",
		[]models.BookingStatus{models.BookingPending, models.BookingApproved},
		models.BookingCancelled).Return(true, nil)
	mockDB.On("GetVendor", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetService", "svc-1").Return(nil, errors.New("not found"))
	mockNotify.On("CreateNotification", mock.Anything).Return(nil)
	mockKafka.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.CancelBooking(context.Background(), "bk-1", "cust-1")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestCancelBookingFromCompleted(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	testBooking := &models.Booking{
		BookingID:  "bk-1",
		CustomerID: "cust-1",
		Status:     models.BookingCompleted,
	}
	mockDB.On("GetBookingByID", "bk-1").Return(testBooking, nil)
	mockDB.On("TransitionStatus", "bk-1",
		[]models.BookingStatus{models.BookingPending, models.BookingApproved},
		models.BookingCancelled).Return(false, nil)

	err := svc.CancelBooking(context.Background(), "bk-1", "cust-1")

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestRecordPaymentResultDuplicateIgnored(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), new(MockKafkaProducer), new(MockPusher), &MockEmailSender{})

	// Payment already COMPLETED: the guarded update affects zero rows and
	// the late event is dropped without error.
	mockDB.On("SetPaymentStatus", "bk-1", models.PaymentCompleted).Return(false, nil)

	err := svc.RecordPaymentResult(context.Background(), "bk-1", true)

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "GetBookingByID", mock.Anything)
}
