package analytics_api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shaadibiyah/internal/analytics"
	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/vendor", h.VendorAnalytics)
		r.Get("/vendor/upcoming", h.UpcomingBookings)
		r.Get("/platform", h.PlatformAnalytics)
	})
}

// VendorAnalytics returns booking and revenue metrics for the caller's own
// vendor profile.
func (h *Handler) VendorAnalytics(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("VendorAnalytics: owner=%s", ownerID))

	vendor, err := h.Service.ResolveVendorByOwner(r.Context(), ownerID)
	if err != nil {
		utils.WriteError(w, apperr.Newf(apperr.NotFound, "no vendor profile for this account"))
		return
	}

	result, err := h.Service.GetVendorAnalytics(r.Context(), vendor.VendorID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VendorAnalytics: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Vendor analytics", result))
}

// UpcomingBookings lists the caller's vendor bookings with event dates in
// the next N days (default 30).
func (h *Handler) UpcomingBookings(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "days must be a positive integer"))
			return
		}
		days = parsed
	}

	vendor, err := h.Service.ResolveVendorByOwner(r.Context(), ownerID)
	if err != nil {
		utils.WriteError(w, apperr.Newf(apperr.NotFound, "no vendor profile for this account"))
		return
	}

	now := time.Now()
	bookings, err := h.Service.BookingsInRange(r.Context(), vendor.VendorID, now, now.AddDate(0, 0, days))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpcomingBookings: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Upcoming bookings", bookings))
}

// PlatformAnalytics returns marketplace-wide metrics. Admin only.
func (h *Handler) PlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		utils.WriteError(w, apperr.Newf(apperr.Authorization, "admin role required"))
		return
	}

	result, err := h.Service.GetPlatformAnalytics(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlatformAnalytics: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Platform analytics", result))
}
