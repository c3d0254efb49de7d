package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/booking"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BookingService *booking.Service
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.Service, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		Logger:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings", h.ListMyBookings)
	r.Get("/bookings/{bookingId}", h.GetBooking)
	r.Patch("/bookings/{bookingId}", h.UpdateBooking)
	r.Post("/bookings/{bookingId}/cancel", h.CancelBooking)
	r.Post("/bookings/{bookingId}/status", h.UpdateStatus)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	customerID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("CreateBooking: customer=%s", customerID))

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	details, err := h.BookingService.CreateBooking(r.Context(), customerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Booking created", details))
	h.Logger.Info("API", fmt.Sprintf("CreateBooking: booking %s created", details.Booking.BookingID))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	requesterID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	details, err := h.BookingService.GetBooking(r.Context(), bookingID, requesterID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking retrieved", details))
}

// ListMyBookings returns the caller's bookings. ?role=vendor lists the
// bookings addressed to the vendor the caller owns.
func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	asVendor := r.URL.Query().Get("role") == "vendor"
	h.Logger.Info("API", fmt.Sprintf("ListMyBookings: user=%s vendor=%t", userID, asVendor))

	bookings, err := h.BookingService.ListMyBookings(r.Context(), userID, asVendor)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyBookings: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	customerID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("UpdateBooking: bookingId=%s", bookingID))

	var patch models.BookingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBooking: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	updated, err := h.BookingService.UpdateBooking(r.Context(), bookingID, customerID, patch)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBooking: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking updated", updated))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	customerID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s", bookingID))

	if err := h.BookingService.CancelBooking(r.Context(), bookingID, customerID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking cancelled", nil))
}

// UpdateStatus is the vendor-side lifecycle endpoint: approve, reject,
// confirm or complete.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	vendorUserID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: bookingId=%s", bookingID))

	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	updated, err := h.BookingService.VendorTransition(r.Context(), bookingID, vendorUserID, req.Status)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking status updated", updated))
}
