package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"shaadibiyah/internal/chat/db"
	"shaadibiyah/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []interface{}{
		(*models.Message)(nil),
		(*models.ChatSession)(nil),
		(*models.Booking)(nil),
		(*models.Vendor)(nil),
		(*models.User)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(context.Background())
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

// seedBookingPair creates a vendor owned by ownerID and a booking from
// customerID against it.
func seedBookingPair(t *testing.T, bunDB *bun.DB, customerID, ownerID string) {
	vendor := models.Vendor{
		VendorID:           uuid.New().String(),
		OwnerID:            ownerID,
		BusinessName:       "Test Vendor",
		Category:           models.CategoryVenue,
		VerificationStatus: models.VerificationVerified,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&vendor).Exec(context.Background())
	assert.NoError(t, err)

	booking := models.Booking{
		BookingID:     uuid.New().String(),
		CustomerID:    customerID,
		VendorID:      vendor.VendorID,
		ServiceID:     "svc-1",
		EventDate:     time.Now(),
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	_, err = bunDB.NewInsert().Model(&booking).Exec(context.Background())
	assert.NoError(t, err)
}

func newMessage(senderID, receiverID string) models.Message {
	return models.Message{
		MessageID:  uuid.New().String(),
		SessionID:  models.RoomID(senderID, receiverID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    "salaam",
		IsRead:     false,
		CreatedAt:  time.Now(),
	}
}

func TestHasBookingRelationship(t *testing.T) {
	chatDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	seedBookingPair(t, bunDB, "customer-1", "owner-1")

	// Either argument order resolves the same pair
	ok, err := chatDB.HasBookingRelationship(context.Background(), "customer-1", "owner-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = chatDB.HasBookingRelationship(context.Background(), "owner-1", "customer-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	// No booking between these two
	ok, err = chatDB.HasBookingRelationship(context.Background(), "customer-1", "stranger")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveMessageUpsertsSession(t *testing.T) {
	chatDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	room := models.RoomID("a", "b")

	first := newMessage("a", "b")
	err := chatDB.SaveMessage(context.Background(), first)
	assert.NoError(t, err)

	session, err := chatDB.GetSession(context.Background(), room)
	assert.NoError(t, err)
	assert.Equal(t, "a", session.ParticipantA)
	assert.Equal(t, "b", session.ParticipantB)
	assert.True(t, session.IsActive)

	// A reply from the other side hits the same session and bumps it
	second := newMessage("b", "a")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	err = chatDB.SaveMessage(context.Background(), second)
	assert.NoError(t, err)

	sessions, err := chatDB.ListSessions(context.Background(), "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(sessions))
	assert.True(t, sessions[0].LastMessageAt.After(first.CreatedAt))

	messages, err := chatDB.ListMessages(context.Background(), room, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(messages))
	assert.Equal(t, first.MessageID, messages[0].MessageID)
}

func TestMarkReadIdempotent(t *testing.T) {
	chatDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	room := models.RoomID("a", "b")
	for i := 0; i < 3; i++ {
		err := chatDB.SaveMessage(context.Background(), newMessage("b", "a"))
		assert.NoError(t, err)
	}
	// One message in the other direction stays untouched
	err := chatDB.SaveMessage(context.Background(), newMessage("a", "b"))
	assert.NoError(t, err)

	unread, err := chatDB.CountUnreadInSession(context.Background(), room, "a")
	assert.NoError(t, err)
	assert.Equal(t, 3, unread)

	flipped, err := chatDB.MarkRead(context.Background(), room, "a")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	// Second call affects nothing
	flipped, err = chatDB.MarkRead(context.Background(), room, "a")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), flipped)

	unread, err = chatDB.CountUnreadInSession(context.Background(), room, "a")
	assert.NoError(t, err)
	assert.Equal(t, 0, unread)

	// b's unread message from a is unaffected
	unreadB, err := chatDB.CountUnreadInSession(context.Background(), room, "b")
	assert.NoError(t, err)
	assert.Equal(t, 1, unreadB)
}

func TestCountUnreadForUserAcrossSessions(t *testing.T) {
	chatDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	err := chatDB.SaveMessage(context.Background(), newMessage("b", "a"))
	assert.NoError(t, err)
	err = chatDB.SaveMessage(context.Background(), newMessage("c", "a"))
	assert.NoError(t, err)
	err = chatDB.SaveMessage(context.Background(), newMessage("c", "a"))
	assert.NoError(t, err)

	total, err := chatDB.CountUnreadForUser(context.Background(), "a")
	assert.NoError(t, err)
	assert.Equal(t, 3, total)

	sessions, err := chatDB.ListSessions(context.Background(), "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(sessions))
}
