package verification_api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/utils"
	"shaadibiyah/internal/verification"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	VerificationService *verification.Service
	Logger              *logger.Logger
}

func NewHandler(verificationService *verification.Service, log *logger.Logger) *Handler {
	return &Handler{
		VerificationService: verificationService,
		Logger:              log,
	}
}

// RegisterRoutes mounts the authenticated verification endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/verification/{vendorId}/generate", h.GenerateDocument)
	r.Post("/verification/{vendorId}/restart", h.RestartVerification)
	r.Get("/verification/{vendorId}/status", h.Status)
	r.Get("/verification/{vendorId}/document", h.DownloadAgreement)
	r.Post("/verification/{vendorId}/review", h.AdminReview)
}

// RegisterPublicRoutes mounts the token-addressed signing endpoints. The
// signing token is the only credential; no auth middleware here.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/verification/sign/{token}", h.FetchForSigning)
	r.Post("/verification/sign/{token}", h.Sign)
}

func (h *Handler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	requesterID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("GenerateDocument: vendorId=%s", vendorID))

	doc, err := h.VerificationService.GenerateDocument(r.Context(), vendorID, requesterID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GenerateDocument: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Verification document generated", doc))
}

func (h *Handler) FetchForSigning(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	view, err := h.VerificationService.FetchForSigning(r.Context(), token)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("FetchForSigning: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Document retrieved", view))
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req models.SignDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	ip := clientIP(r)
	doc, err := h.VerificationService.Sign(r.Context(), token, req, ip, r.UserAgent())
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Sign: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Document signed", doc))
}

// DownloadAgreement serves the latest agreement as a PDF attachment.
func (h *Handler) DownloadAgreement(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	requesterID := auth.UserID(r.Context())

	pdf, filename, err := h.VerificationService.AgreementPDF(r.Context(), vendorID, requesterID, auth.IsAdmin(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DownloadAgreement: %v", err))
		utils.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("DownloadAgreement: write interrupted: %v", err))
	}
}

func (h *Handler) AdminReview(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	if !auth.IsAdmin(r.Context()) {
		utils.WriteError(w, apperr.New(apperr.Authorization, "admin role required"))
		return
	}

	var req models.AdminReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	vendor, err := h.VerificationService.AdminReview(r.Context(), vendorID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AdminReview: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Review recorded", vendor))
}

func (h *Handler) RestartVerification(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	requesterID := auth.UserID(r.Context())

	if err := h.VerificationService.RestartVerification(r.Context(), vendorID, requesterID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RestartVerification: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Verification restarted", nil))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")
	requesterID := auth.UserID(r.Context())

	view, err := h.VerificationService.Status(r.Context(), vendorID, requesterID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Status: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Verification status", view))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
