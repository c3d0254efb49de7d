package chat

import (
	"context"
	"fmt"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	HasBookingRelationship(ctx context.Context, userA, userB string) (bool, error)
	SaveMessage(ctx context.Context, message models.Message) error
	GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, sessionID, readerID string) (int64, error)
	CountUnreadInSession(ctx context.Context, sessionID, userID string) (int, error)
	CountUnreadForUser(ctx context.Context, userID string) (int, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, n models.Notification) error
}

// Pusher is the volatile realtime relay. Everything pushed through it is
// also durable elsewhere; a dropped event costs nothing but immediacy.
type Pusher interface {
	EmitToUser(userID string, event models.PushEvent)
	EmitToRoom(room, senderID string, event models.PushEvent)
	IsConnected(userID string) bool
	IsViewing(userID, room string) bool
}

type Service struct {
	DB       DBLayer
	Notifier Notifier
	Push     Pusher
	logger   *logger.Logger
}

func NewService(db DBLayer, notifier Notifier, push Pusher, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Notifier: notifier,
		Push:     push,
		logger:   log,
	}
}

// canChat runs the live permission check: the pair must share at least one
// booking. Checked on every operation, never cached, so a newly created
// booking opens the channel immediately.
func (s *Service) canChat(ctx context.Context, userA, userB string) error {
	ok, err := s.DB.HasBookingRelationship(ctx, userA, userB)
	if err != nil {
		return fmt.Errorf("failed to check booking relationship: %w", err)
	}
	if !ok {
		return apperr.New(apperr.Authorization, "no booking connects these users")
	}
	return nil
}

// CanChat exposes the permission check for endpoints that mutate relay
// state without going through SendMessage, such as room join and leave.
func (s *Service) CanChat(ctx context.Context, userID, counterpartID string) error {
	return s.canChat(ctx, userID, counterpartID)
}

// SendMessage persists the message, upserts the pair's session, writes the
// receiver's durable notification and finally pushes a realtime event if the
// receiver is connected but not already viewing the room.
func (s *Service) SendMessage(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.Message, error) {
	if req.Content == "" {
		return nil, apperr.New(apperr.Validation, "message content is required")
	}
	if req.ReceiverID == "" || req.ReceiverID == senderID {
		return nil, apperr.New(apperr.Validation, "invalid receiver")
	}
	if err := s.canChat(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	room := models.RoomID(senderID, req.ReceiverID)
	message := models.Message{
		MessageID:  uuid.NewString(),
		SessionID:  room,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		IsRead:     false,
		CreatedAt:  time.Now(),
	}

	if err := s.DB.SaveMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	s.logger.LogChat("SEND", room, fmt.Sprintf("%s -> %s", senderID, req.ReceiverID))

	sender, err := s.DB.GetUser(ctx, senderID)
	senderName := senderID
	if err == nil {
		senderName = sender.FullName
	}

	n := models.Notification{
		NotificationID: uuid.NewString(),
		UserID:         req.ReceiverID,
		Title:          "New message",
		Message:        fmt.Sprintf("%s sent you a message", senderName),
		Type:           models.NotifyMessage,
		CreatedAt:      time.Now(),
	}
	if err := s.Notifier.CreateNotification(ctx, n); err != nil {
		s.logger.Error("CHAT", fmt.Sprintf("failed to persist message notification: %v", err))
	}

	// Realtime is best-effort. A viewer of the room gets the message via
	// the room stream; everyone else connected gets a notification event
	// with a freshly counted unread total.
	if s.Push != nil {
		s.Push.EmitToRoom(room, senderID, models.PushEvent{
			Type:      "message",
			Room:      room,
			Data:      message,
			Timestamp: message.CreatedAt,
		})

		if s.Push.IsConnected(req.ReceiverID) && !s.Push.IsViewing(req.ReceiverID, room) {
			unread, err := s.DB.CountUnreadForUser(ctx, req.ReceiverID)
			if err != nil {
				s.logger.Error("CHAT", fmt.Sprintf("failed to count unread for %s: %v", req.ReceiverID, err))
				unread = 0
			}
			s.Push.EmitToUser(req.ReceiverID, models.PushEvent{
				Type: "message_notification",
				Room: room,
				Data: models.MessageNotification{
					Message:     message,
					UnreadCount: unread,
				},
				Timestamp: message.CreatedAt,
			})
		}
	}

	return &message, nil
}

// GetConversation returns the message history with a counterpart, subject to
// the same live permission check as sending.
func (s *Service) GetConversation(ctx context.Context, userID, counterpartID string, limit int) ([]models.Message, error) {
	if err := s.canChat(ctx, userID, counterpartID); err != nil {
		return nil, err
	}
	room := models.RoomID(userID, counterpartID)
	return s.DB.ListMessages(ctx, room, limit)
}

// SessionSummary is a session plus the caller's unread count in it.
type SessionSummary struct {
	Session     models.ChatSession `json:"session"`
	Counterpart string             `json:"counterpart"`
	UnreadCount int                `json:"unread_count"`
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	sessions, err := s.DB.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		unread, err := s.DB.CountUnreadInSession(ctx, session.SessionID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread: %w", err)
		}
		summaries = append(summaries, SessionSummary{
			Session:     session,
			Counterpart: session.Counterpart(userID),
			UnreadCount: unread,
		})
	}
	return summaries, nil
}

// MarkRead flips every unread message addressed to the caller in the
// session. Safe to repeat; a second call is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	room := models.RoomID(userID, counterpartID)
	session, err := s.DB.GetSession(ctx, room)
	if err != nil {
		return 0, apperr.Wrap(apperr.NotFound, "no conversation with this user", err)
	}
	if !session.HasParticipant(userID) {
		return 0, apperr.New(apperr.Authorization, "not a participant of this session")
	}

	flipped, err := s.DB.MarkRead(ctx, room, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	if flipped > 0 {
		s.logger.LogChat("READ", room, fmt.Sprintf("%d messages marked read by %s", flipped, userID))
	}
	return flipped, nil
}

// UnreadCount is the caller's total unread messages, counted fresh.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.DB.CountUnreadForUser(ctx, userID)
}

// Typing relays a transient typing indicator to the counterpart's room
// viewers. Nothing is persisted.
func (s *Service) Typing(ctx context.Context, senderID string, req models.TypingRequest) error {
	if err := s.canChat(ctx, senderID, req.ReceiverID); err != nil {
		return err
	}
	if s.Push == nil {
		return nil
	}
	room := models.RoomID(senderID, req.ReceiverID)
	s.Push.EmitToRoom(room, senderID, models.PushEvent{
		Type:      "typing",
		Room:      room,
		Data:      map[string]string{"user_id": senderID},
		Timestamp: time.Now(),
	})
	return nil
}
