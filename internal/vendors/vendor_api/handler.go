package vendor_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/utils"
	"shaadibiyah/internal/vendors"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	VendorService *vendor.Service
	Logger        *logger.Logger
}

func NewHandler(vendorService *vendor.Service, log *logger.Logger) *Handler {
	return &Handler{
		VendorService: vendorService,
		Logger:        log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/vendors", h.Register)
	r.Get("/vendors", h.ListVendors)
	r.Get("/vendors/{vendorId}", h.GetVendor)
	r.Patch("/vendors/{vendorId}", h.UpdateProfile)
	r.Post("/vendors/services", h.CreateService)
	r.Get("/vendors/{vendorId}/services", h.ListServices)
	r.Patch("/services/{serviceId}", h.UpdateService)
	r.Post("/reviews", h.AddReview)
	r.Get("/vendors/{vendorId}/reviews", h.ListReviews)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("RegisterVendor: owner=%s", ownerID))

	var req vendor.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	created, err := h.VendorService.Register(r.Context(), ownerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterVendor: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Vendor registered", created))
}

func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	v, err := h.VendorService.GetVendor(r.Context(), vendorID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetVendor: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Vendor retrieved", v))
}

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	category := models.VendorCategory(r.URL.Query().Get("category"))

	vendors, err := h.VendorService.ListVendors(r.Context(), category)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListVendors: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Vendors retrieved", vendors))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	callerID := auth.UserID(r.Context())

	var patch vendor.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	updated, err := h.VendorService.UpdateProfile(r.Context(), vendorID, callerID, patch)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProfile: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Vendor updated", updated))
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserID(r.Context())

	var req vendor.ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	created, err := h.VendorService.CreateService(r.Context(), callerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateService: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Service created", created))
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	services, err := h.VendorService.ListServices(r.Context(), vendorID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListServices: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Services retrieved", services))
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")
	callerID := auth.UserID(r.Context())

	var patch vendor.ServicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	updated, err := h.VendorService.UpdateServiceListing(r.Context(), serviceID, callerID, patch)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateService: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Service updated", updated))
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	customerID := auth.UserID(r.Context())

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	review, err := h.VendorService.AddReview(r.Context(), customerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddReview: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Review recorded", review))
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	reviews, err := h.VendorService.ListReviews(r.Context(), vendorID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListReviews: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Reviews retrieved", reviews))
}
