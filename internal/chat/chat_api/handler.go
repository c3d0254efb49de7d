package chat_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/chat"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/sse"
	"shaadibiyah/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ChatService *chat.Service
	Relay       *sse.Relay
	Logger      *logger.Logger
}

func NewHandler(chatService *chat.Service, relay *sse.Relay, log *logger.Logger) *Handler {
	return &Handler{
		ChatService: chatService,
		Relay:       relay,
		Logger:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/messages", h.SendMessage)
	r.Get("/chat/sessions", h.ListSessions)
	r.Get("/chat/conversations/{counterpartId}", h.GetConversation)
	r.Post("/chat/conversations/{counterpartId}/read", h.MarkRead)
	r.Get("/chat/unread", h.UnreadCount)
	r.Post("/chat/typing", h.Typing)
	r.Get("/chat/stream", h.Stream)
	r.Post("/chat/rooms/{counterpartId}/join", h.JoinRoom)
	r.Post("/chat/rooms/{counterpartId}/leave", h.LeaveRoom)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := auth.UserID(r.Context())

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	message, err := h.ChatService.SendMessage(r.Context(), senderID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SendMessage: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Message sent", message))
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	sessions, err := h.ChatService.ListSessions(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSessions: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Sessions retrieved", sessions))
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	counterpartID := chi.URLParam(r, "counterpartId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.ChatService.GetConversation(r.Context(), userID, counterpartID, limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetConversation: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Conversation retrieved", messages))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	counterpartID := chi.URLParam(r, "counterpartId")

	flipped, err := h.ChatService.MarkRead(r.Context(), userID, counterpartID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MarkRead: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Messages marked read",
		map[string]int64{"marked_read": flipped}))
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	count, err := h.ChatService.UnreadCount(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UnreadCount: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Unread count",
		map[string]int{"unread": count}))
}

func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	senderID := auth.UserID(r.Context())

	var req models.TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.ChatService.Typing(r.Context(), senderID, req); err != nil {
		utils.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stream is the per-user SSE connection carrying message_notification,
// typing and booking_status events.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.Relay.Subscribe(ctx, userID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected: user=%s", userID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for user: %s", userID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize push event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected: user=%s", userID))
			return
		}
	}
}

// JoinRoom marks the caller as viewing the conversation, which suppresses
// message_notification pushes for it.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	counterpartID := chi.URLParam(r, "counterpartId")

	// Same gate as sending: no shared booking, no room
	if err := h.ChatService.CanChat(r.Context(), userID, counterpartID); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("JoinRoom: %v", err))
		utils.WriteError(w, err)
		return
	}

	room := models.RoomID(userID, counterpartID)
	h.Relay.JoinRoom(userID, room)

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Joined room",
		map[string]string{"room": room}))
}

func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	counterpartID := chi.URLParam(r, "counterpartId")

	if err := h.ChatService.CanChat(r.Context(), userID, counterpartID); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("LeaveRoom: %v", err))
		utils.WriteError(w, err)
		return
	}

	room := models.RoomID(userID, counterpartID)
	h.Relay.LeaveRoom(userID, room)

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Left room",
		map[string]string{"room": room}))
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
