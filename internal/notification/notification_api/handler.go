package notification_api

import (
	"fmt"
	"net/http"

	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/notification/db"
	"shaadibiyah/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	DB     *db.DB
	Logger *logger.Logger
}

func NewHandler(notificationDB *db.DB, log *logger.Logger) *Handler {
	return &Handler{
		DB:     notificationDB,
		Logger: log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/{notificationId}/read", h.MarkRead)
	r.Get("/notifications/unread", h.UnreadCount)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	notifications, err := h.DB.ListByUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListNotifications: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list notifications", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Notifications retrieved", notifications))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	notificationID := chi.URLParam(r, "notificationId")

	if err := h.DB.MarkRead(r.Context(), notificationID, userID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("MarkNotificationRead: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to mark notification read", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Notification marked read", nil))
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	count, err := h.DB.CountUnread(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UnreadNotifications: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to count notifications", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Unread count", map[string]int{"unread": count}))
}
