package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/email"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking models.Booking) error
	UpdateBookingIfPending(ctx context.Context, booking models.Booking) (bool, error)
	TransitionStatus(ctx context.Context, bookingID string, fromStates []models.BookingStatus, newStatus models.BookingStatus, now time.Time) (bool, error)
	SetPaymentStatus(ctx context.Context, bookingID string, state models.PaymentState) (bool, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListByVendor(ctx context.Context, vendorID string) ([]models.Booking, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error)
	GetVendorByOwner(ctx context.Context, ownerID string) (*models.Vendor, error)
	GetService(ctx context.Context, serviceID string) (*models.Service, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, n models.Notification) error
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type Pusher interface {
	EmitToUser(userID string, event models.PushEvent)
}

type Topics struct {
	BookingCreated string
	BookingStatus  string
}

type Service struct {
	DB       DBLayer
	Notifier Notifier
	Email    email.Sender
	Kafka    KafkaPublisher
	Push     Pusher
	Topics   Topics
	logger   *logger.Logger
}

func NewService(db DBLayer, notifier Notifier, sender email.Sender, kafka KafkaPublisher, push Pusher, topics Topics, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Notifier: notifier,
		Email:    sender,
		Kafka:    kafka,
		Push:     push,
		Topics:   topics,
		logger:   log,
	}
}

// ---------------- CREATE ----------------

// CreateBooking validates the vendor/service pair, persists a PENDING booking
// and fans out the vendor-facing side effects. The in-app notification is the
// authoritative channel; email is best-effort and never rolls back the booking.
func (s *Service) CreateBooking(ctx context.Context, customerID string, req models.BookingRequest) (*models.BookingDetails, error) {
	svc, err := s.DB.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "service %s does not exist", req.ServiceID)
	}
	if svc.VendorID != req.VendorID {
		return nil, apperr.Newf(apperr.Validation, "service %s does not belong to vendor %s", req.ServiceID, req.VendorID)
	}
	if !svc.IsActive {
		return nil, apperr.Newf(apperr.Validation, "service %s is not active", req.ServiceID)
	}

	vendor, err := s.DB.GetVendor(ctx, req.VendorID)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "vendor %s does not exist", req.VendorID)
	}
	if !vendor.CanTransact() {
		return nil, apperr.Newf(apperr.Validation, "vendor %s is not verified or not active", req.VendorID)
	}

	customer, err := s.DB.GetUser(ctx, customerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "customer not found", err)
	}

	now := time.Now()
	booking := models.Booking{
		BookingID:       uuid.NewString(),
		CustomerID:      customerID,
		VendorID:        req.VendorID,
		ServiceID:       req.ServiceID,
		EventDate:       req.EventDate,
		DurationHours:   req.DurationHours,
		GuestCount:      req.GuestCount,
		Location:        req.Location,
		SpecialRequests: req.SpecialRequests,
		BasePrice:       svc.BasePrice,
		AdditionalCosts: req.AdditionalCosts,
		TotalAmount:     svc.BasePrice + req.AdditionalCosts,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.DB.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.logger.LogBooking("CREATE", booking.BookingID, fmt.Sprintf("customer %s booked service %s", customerID, svc.Name))

	// Vendor-facing side effects. The booking is already durable.
	s.notify(ctx, vendor.OwnerID, "New booking request",
		fmt.Sprintf("%s requested %s for %s", customer.FullName, svc.Name, booking.EventDate.Format("2 Jan 2006")),
		models.NotifyBookingRequest)

	if outcome := s.Email.Send(ctx, vendor.ContactEmail, "New booking request",
		email.BookingCreatedBody(customer.FullName, booking, svc.Name)); !outcome.Delivered {
		s.logger.Warn("BOOKING", fmt.Sprintf("booking %s created but vendor email failed: %s", booking.BookingID, outcome.Reason))
	}

	s.publishEvent(s.Topics.BookingCreated, models.BookingEvent{
		Type:        "booking_created",
		BookingID:   booking.BookingID,
		CustomerID:  booking.CustomerID,
		VendorID:    booking.VendorID,
		Status:      booking.Status,
		TotalAmount: booking.TotalAmount,
		Timestamp:   now,
	})

	return &models.BookingDetails{
		Booking:  booking,
		Customer: customer.Summary(),
		Vendor:   vendor.Summary(),
		Service:  svc.Summary(),
	}, nil
}

// ---------------- READ ----------------

func (s *Service) GetBooking(ctx context.Context, bookingID, requesterID string) (*models.BookingDetails, error) {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "booking not found", err)
	}

	vendor, err := s.DB.GetVendor(ctx, booking.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if booking.CustomerID != requesterID && vendor.OwnerID != requesterID {
		return nil, apperr.New(apperr.Authorization, "not a party to this booking")
	}

	customer, err := s.DB.GetUser(ctx, booking.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	svc, err := s.DB.GetService(ctx, booking.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	return &models.BookingDetails{
		Booking:  *booking,
		Customer: customer.Summary(),
		Vendor:   vendor.Summary(),
		Service:  svc.Summary(),
	}, nil
}

// ListMyBookings returns the requester's bookings: the ones they created as a
// customer, or the ones addressed to the vendor they own.
func (s *Service) ListMyBookings(ctx context.Context, userID string, asVendor bool) ([]models.Booking, error) {
	if asVendor {
		vendor, err := s.DB.GetVendorByOwner(ctx, userID)
		if err != nil {
			return nil, apperr.Wrap(apperr.NotFound, "no vendor owned by requester", err)
		}
		return s.DB.ListByVendor(ctx, vendor.VendorID)
	}
	return s.DB.ListByCustomer(ctx, userID)
}

// ---------------- CUSTOMER EDIT ----------------

// UpdateBooking applies a customer patch. Only the owning customer may edit,
// and only while the booking is PENDING; the PENDING guard is re-checked
// inside the conditional UPDATE.
func (s *Service) UpdateBooking(ctx context.Context, bookingID, customerID string, patch models.BookingPatch) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "booking not found", err)
	}
	if booking.CustomerID != customerID {
		return nil, apperr.New(apperr.Authorization, "only the booking customer may edit it")
	}
	if booking.Status != models.BookingPending {
		return nil, apperr.Newf(apperr.Conflict, "booking is %s and can no longer be edited", booking.Status)
	}

	if patch.EventDate != nil {
		booking.EventDate = *patch.EventDate
	}
	if patch.DurationHours != nil {
		booking.DurationHours = *patch.DurationHours
	}
	if patch.GuestCount != nil {
		booking.GuestCount = *patch.GuestCount
	}
	if patch.Location != nil {
		booking.Location = *patch.Location
	}
	if patch.SpecialRequests != nil {
		booking.SpecialRequests = *patch.SpecialRequests
	}
	if patch.AdditionalCosts != nil {
		booking.AdditionalCosts = *patch.AdditionalCosts
	}
	booking.TotalAmount = booking.BasePrice + booking.AdditionalCosts
	booking.UpdatedAt = time.Now()

	ok, err := s.DB.UpdateBookingIfPending(ctx, *booking)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.Conflict, "booking status advanced while editing")
	}

	s.logger.LogBooking("UPDATE", bookingID, "customer edit applied")
	return booking, nil
}

// ---------------- CANCEL ----------------

// CancelBooking is the customer-side cancellation: legal from PENDING or
// APPROVED only. Bookings are never deleted, only status-cancelled.
func (s *Service) CancelBooking(ctx context.Context, bookingID, customerID string) error {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "booking not found", err)
	}
	if booking.CustomerID != customerID {
		return apperr.New(apperr.Authorization, "only the booking customer may cancel it")
	}

	ok, err := s.DB.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending, models.BookingApproved},
		models.BookingCancelled, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		return apperr.Newf(apperr.Conflict, "booking is %s and cannot be cancelled", booking.Status)
	}
	s.logger.LogBooking("CANCEL", bookingID, "cancelled by customer")

	vendor, err := s.DB.GetVendor(ctx, booking.VendorID)
	if err != nil {
		s.logger.Error("BOOKING", fmt.Sprintf("cancelled booking %s but vendor lookup failed: %v", bookingID, err))
		return nil
	}
	svc, _ := s.DB.GetService(ctx, booking.ServiceID)
	serviceName := booking.ServiceID
	if svc != nil {
		serviceName = svc.Name
	}

	s.notify(ctx, vendor.OwnerID, "Booking cancelled",
		fmt.Sprintf("The booking for %s on %s was cancelled by the customer", serviceName, booking.EventDate.Format("2 Jan 2006")),
		models.NotifyBookingStatus)

	booking.Status = models.BookingCancelled
	if outcome := s.Email.Send(ctx, vendor.ContactEmail, "Booking cancelled",
		email.BookingStatusBody(*booking, serviceName, "The customer cancelled this booking.")); !outcome.Delivered {
		s.logger.Warn("BOOKING", fmt.Sprintf("cancellation email for %s failed: %s", bookingID, outcome.Reason))
	}

	s.publishEvent(s.Topics.BookingStatus, models.BookingEvent{
		Type:       "booking_cancelled",
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		VendorID:   booking.VendorID,
		Status:     models.BookingCancelled,
		Timestamp:  time.Now(),
	})
	return nil
}

// ---------------- VENDOR TRANSITION ----------------

// vendorTargets are the states a vendor may move a booking into. CANCELLED is
// customer-only; vendors decline with REJECTED.
var vendorTargets = map[models.BookingStatus]bool{
	models.BookingApproved:  true,
	models.BookingRejected:  true,
	models.BookingConfirmed: true,
	models.BookingCompleted: true,
}

// VendorTransition advances the booking along the lifecycle graph on behalf
// of the owning vendor. The check and the write are one conditional UPDATE
// keyed on the status snapshot, so two racing transitions cannot both win.
func (s *Service) VendorTransition(ctx context.Context, bookingID, vendorUserID string, newStatus models.BookingStatus) (*models.Booking, error) {
	if !vendorTargets[newStatus] {
		return nil, apperr.Newf(apperr.Validation, "vendors cannot set status %s", newStatus)
	}

	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "booking not found", err)
	}

	vendor, err := s.DB.GetVendor(ctx, booking.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if vendor.OwnerID != vendorUserID {
		return nil, apperr.New(apperr.Authorization, "only the owning vendor may change booking status")
	}

	if !models.CanTransition(booking.Status, newStatus) {
		return nil, apperr.Newf(apperr.Conflict, "cannot transition booking from %s to %s", booking.Status, newStatus)
	}

	now := time.Now()
	ok, err := s.DB.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{booking.Status}, newStatus, now)
	if err != nil {
		return nil, fmt.Errorf("failed to transition booking: %w", err)
	}
	if !ok {
		// Lost the race: someone else moved the booking off our snapshot.
		return nil, apperr.Newf(apperr.Conflict, "booking already left state %s", booking.Status)
	}

	booking.Status = newStatus
	booking.UpdatedAt = now
	switch newStatus {
	case models.BookingApproved:
		booking.ApprovedAt = &now
	case models.BookingConfirmed:
		booking.ConfirmedAt = &now
	case models.BookingCompleted:
		booking.CompletedAt = &now
	}
	s.logger.LogBooking("TRANSITION", bookingID, fmt.Sprintf("vendor %s set status %s", vendor.VendorID, newStatus))

	svc, _ := s.DB.GetService(ctx, booking.ServiceID)
	serviceName := booking.ServiceID
	if svc != nil {
		serviceName = svc.Name
	}

	// Customer-facing side effects: durable notification first, then the
	// best-effort channels.
	s.notify(ctx, booking.CustomerID, "Booking "+string(newStatus),
		fmt.Sprintf("Your booking for %s is now %s", serviceName, newStatus),
		models.NotifyBookingStatus)

	customer, err := s.DB.GetUser(ctx, booking.CustomerID)
	if err == nil {
		if outcome := s.Email.Send(ctx, customer.Email, "Booking update",
			email.BookingStatusBody(*booking, serviceName, "")); !outcome.Delivered {
			s.logger.Warn("BOOKING", fmt.Sprintf("status email for %s failed: %s", bookingID, outcome.Reason))
		}
	} else {
		s.logger.Error("BOOKING", fmt.Sprintf("customer lookup failed for status email: %v", err))
	}

	if s.Push != nil {
		s.Push.EmitToUser(booking.CustomerID, models.PushEvent{
			Type:      "booking_status",
			Data:      booking,
			Timestamp: now,
		})
	}

	s.publishEvent(s.Topics.BookingStatus, models.BookingEvent{
		Type:       "booking_status_changed",
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		VendorID:   booking.VendorID,
		Status:     newStatus,
		Timestamp:  now,
	})

	return booking, nil
}

// ---------------- PAYMENT RECONCILIATION ----------------

// RecordPaymentResult flips paymentStatus from an asynchronous payment event.
// A COMPLETED payment state is immutable; late or duplicate events are
// ignored once it is set.
func (s *Service) RecordPaymentResult(ctx context.Context, bookingID string, succeeded bool) error {
	state := models.PaymentFailed
	if succeeded {
		state = models.PaymentCompleted
	}

	ok, err := s.DB.SetPaymentStatus(ctx, bookingID, state)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}
	if !ok {
		s.logger.Warn("BOOKING", fmt.Sprintf("payment result for %s ignored: payment already completed", bookingID))
		return nil
	}
	s.logger.LogBooking("PAYMENT", bookingID, fmt.Sprintf("payment status set to %s", state))

	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil
	}
	title := "Payment received"
	body := "Your payment was processed successfully."
	if !succeeded {
		title = "Payment failed"
		body = "Your payment could not be processed. Please try again."
	}
	s.notify(ctx, booking.CustomerID, title, body, models.NotifyBookingStatus)
	if s.Push != nil {
		s.Push.EmitToUser(booking.CustomerID, models.PushEvent{
			Type:      "booking_status",
			Data:      booking,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// ---------------- HELPERS ----------------

func (s *Service) notify(ctx context.Context, userID, title, message string, typ models.NotificationType) {
	n := models.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Title:          title,
		Message:        message,
		Type:           typ,
		CreatedAt:      time.Now(),
	}
	if err := s.Notifier.CreateNotification(ctx, n); err != nil {
		s.logger.Error("BOOKING", fmt.Sprintf("failed to persist notification for %s: %v", userID, err))
	}
}

func (s *Service) publishEvent(topic string, event models.BookingEvent) {
	if s.Kafka == nil || topic == "" {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("failed to marshal booking event: %v", err))
		return
	}
	if err := s.Kafka.Publish(topic, event.BookingID, value); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("failed to publish booking event: %v", err))
	}
}
