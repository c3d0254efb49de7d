package db

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// HasBookingRelationship reports whether any booking connects the two users,
// in either direction: one as customer, the other as the owner of the booked
// vendor. This is the live permission check for messaging; it is evaluated
// on every send and never cached.
func (d *DB) HasBookingRelationship(ctx context.Context, userA, userB string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Join("JOIN vendors AS v ON v.vendor_id = booking.vendor_id").
		Where("(booking.customer_id = ? AND v.owner_id = ?) OR (booking.customer_id = ? AND v.owner_id = ?)",
			userA, userB, userB, userA).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveMessage persists the message and upserts the pair's session in one
// transaction: create it on first contact, otherwise bump lastMessageAt and
// reactivate.
func (d *DB) SaveMessage(ctx context.Context, message models.Message) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&message).Exec(ctx); err != nil {
			return err
		}

		pair := []string{message.SenderID, message.ReceiverID}
		sort.Strings(pair)
		session := models.ChatSession{
			SessionID:     message.SessionID,
			ParticipantA:  pair[0],
			ParticipantB:  pair[1],
			LastMessageAt: message.CreatedAt,
			IsActive:      true,
			CreatedAt:     message.CreatedAt,
		}
		_, err := tx.NewInsert().
			Model(&session).
			On("CONFLICT (session_id) DO UPDATE").
			Set("last_message_at = EXCLUDED.last_message_at").
			Set("is_active = ?", true).
			Exec(ctx)
		return err
	})
}

func (d *DB) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := d.Bun.NewSelect().
		Model(&session).
		Where("session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the user's active sessions, most recent conversation
// first.
func (d *DB) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := d.Bun.NewSelect().
		Model(&sessions).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Where("is_active = ?", true).
		Order("last_message_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListMessages returns a session's messages oldest first.
func (d *DB) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	q := d.Bun.NewSelect().
		Model(&messages).
		Where("session_id = ?", sessionID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips every unread message addressed to readerID in the session.
// Idempotent: already-read rows are untouched and a second call affects
// nothing. Returns the number of rows flipped.
func (d *DB) MarkRead(ctx context.Context, sessionID, readerID string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Message)(nil)).
		Set("is_read = ?", true).
		Where("session_id = ?", sessionID).
		Where("receiver_id = ?", readerID).
		Where("is_read = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnreadInSession counts unread messages addressed to userID within one
// session. Always a fresh query.
func (d *DB) CountUnreadInSession(ctx context.Context, sessionID, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Message)(nil)).
		Where("session_id = ?", sessionID).
		Where("receiver_id = ?", userID).
		Where("is_read = ?", false).
		Count(ctx)
}

// CountUnreadForUser counts all unread messages addressed to userID across
// sessions.
func (d *DB) CountUnreadForUser(ctx context.Context, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Message)(nil)).
		Where("receiver_id = ?", userID).
		Where("is_read = ?", false).
		Count(ctx)
}

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// touchSession deactivation is intentionally absent: sessions stay active
// even when the underlying booking is cancelled, preserving history.

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
