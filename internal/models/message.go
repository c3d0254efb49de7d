package models

import (
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// RoomID derives the deterministic room name for a participant pair. Both
// parties compute the same name regardless of who initiates.
func RoomID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

type Message struct {
	bun.BaseModel `bun:"table:messages"`

	MessageID  string    `bun:"message_id,pk" json:"message_id"`
	SessionID  string    `bun:"session_id" json:"session_id"`
	SenderID   string    `bun:"sender_id" json:"sender_id"`
	ReceiverID string    `bun:"receiver_id" json:"receiver_id"`
	Content    string    `bun:"content" json:"content"`
	IsRead     bool      `bun:"is_read" json:"is_read"`
	CreatedAt  time.Time `bun:"created_at" json:"created_at"`
}

// ChatSession aggregates one participant pair's conversation. The session ID
// is the pair's room name, which makes the upsert key deterministic.
type ChatSession struct {
	bun.BaseModel `bun:"table:chat_sessions"`

	SessionID     string    `bun:"session_id,pk" json:"session_id"`
	ParticipantA  string    `bun:"participant_a" json:"participant_a"`
	ParticipantB  string    `bun:"participant_b" json:"participant_b"`
	LastMessageAt time.Time `bun:"last_message_at" json:"last_message_at"`
	IsActive      bool      `bun:"is_active" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at" json:"created_at"`
}

// Counterpart returns the other participant of the session.
func (s *ChatSession) Counterpart(userID string) string {
	if s.ParticipantA == userID {
		return s.ParticipantB
	}
	return s.ParticipantA
}

// HasParticipant reports whether userID belongs to the session.
func (s *ChatSession) HasParticipant(userID string) bool {
	return s.ParticipantA == userID || s.ParticipantB == userID
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type TypingRequest struct {
	ReceiverID string `json:"receiver_id"`
}
