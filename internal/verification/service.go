package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/email"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/utils"
	"shaadibiyah/internal/verification/agreement"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetVendorByID(ctx context.Context, vendorID string) (*models.Vendor, error)
	GetDocumentByToken(ctx context.Context, token string) (*models.VerificationDocument, error)
	GetLatestDocumentByVendor(ctx context.Context, vendorID string) (*models.VerificationDocument, error)
	CreateDocumentTx(ctx context.Context, doc models.VerificationDocument, sideEffect func() error) error
	MarkExpired(ctx context.Context, doc *models.VerificationDocument) error
	RecordSignature(ctx context.Context, doc *models.VerificationDocument, signedAt time.Time) error
	SetReviewOutcome(ctx context.Context, vendorID string, status models.VerificationStatus, verified bool, notes string) (bool, error)
	ResetToPending(ctx context.Context, vendorID string) (bool, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, n models.Notification) error
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type AgreementRenderer interface {
	Generate(doc models.VerificationDocument, businessName string, qrCode []byte) ([]byte, error)
}

type Service struct {
	DB        DBLayer
	Notifier  Notifier
	Email     email.Sender
	Kafka     KafkaPublisher
	PDF       AgreementRenderer
	Topic     string
	PublicURL string
	TokenTTL  time.Duration
	logger    *logger.Logger
}

func NewService(db DBLayer, notifier Notifier, sender email.Sender, kafka KafkaPublisher, topic, publicURL string, tokenTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		DB:        db,
		Notifier:  notifier,
		Email:     sender,
		Kafka:     kafka,
		PDF:       agreement.NewPDFGenerator(""),
		Topic:     topic,
		PublicURL: publicURL,
		TokenTTL:  tokenTTL,
		logger:    log,
	}
}

func (s *Service) signingURL(token string) string {
	return fmt.Sprintf("%s/api/verification/sign/%s", s.PublicURL, token)
}

// GenerateDocument creates the vendor agreement, issues a signing token and
// emails the signing link. Document insert, vendor status flip and email
// delivery succeed or fail as a unit: an undeliverable signing link rolls the
// whole operation back.
func (s *Service) GenerateDocument(ctx context.Context, vendorID, requesterID string) (*models.VerificationDocument, error) {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	if vendor.OwnerID != requesterID {
		return nil, apperr.New(apperr.Authorization, "only the vendor owner may start verification")
	}

	switch vendor.VerificationStatus {
	case models.VerificationDocumentSent:
		return nil, apperr.New(apperr.Conflict, "a signing link is already outstanding for this vendor")
	case models.VerificationDocumentSigned:
		return nil, apperr.New(apperr.Conflict, "document already signed and awaiting admin review")
	case models.VerificationVerified:
		return nil, apperr.New(apperr.Conflict, "vendor is already verified")
	case models.VerificationExpired:
		return nil, apperr.New(apperr.Conflict, "previous signing link expired; restart verification first")
	}

	now := time.Now()
	docID := uuid.NewString()
	title, content, err := agreement.Render(vendor, docID, now)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateSigningToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing token: %w", err)
	}

	doc := models.VerificationDocument{
		DocumentID:     docID,
		VendorID:       vendorID,
		DocumentType:   agreement.DocumentType,
		Title:          title,
		Content:        content,
		ContentHash:    agreement.Hash(content),
		SigningToken:   token,
		TokenExpiresAt: now.Add(s.TokenTTL),
		Status:         models.DocumentPending,
		CreatedAt:      now,
	}

	err = s.DB.CreateDocumentTx(ctx, doc, func() error {
		url := s.signingURL(token)
		qr, qrErr := agreement.SigningQRDataURI(url)
		if qrErr != nil {
			s.logger.Warn("VERIFICATION", fmt.Sprintf("QR generation failed for %s: %v", docID, qrErr))
			qr = ""
		}
		outcome := s.Email.Send(ctx, vendor.ContactEmail, "Your ShaadiBiyah vendor agreement",
			email.SigningLinkBody(title, vendor.BusinessName, url, qr, doc.TokenExpiresAt))
		return outcome.Err()
	})
	if err != nil {
		s.logger.Error("VERIFICATION", fmt.Sprintf("document generation for vendor %s rolled back: %v", vendorID, err))
		return nil, apperr.Wrap(apperr.Dependency, "could not deliver signing link", err)
	}

	s.logger.LogVerification("GENERATE", vendorID, fmt.Sprintf("document %s issued, expires %s", docID, doc.TokenExpiresAt.Format(time.RFC3339)))
	return &doc, nil
}

// FetchForSigning resolves a signing token for the public signing page.
// Expiry is enforced lazily here: an outdated token flips the document and
// the vendor to EXPIRED before the error is returned.
func (s *Service) FetchForSigning(ctx context.Context, token string) (*models.DocumentView, error) {
	doc, err := s.DB.GetDocumentByToken(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "signing link not recognized", err)
	}

	if doc.Status == models.DocumentSigned {
		return nil, apperr.New(apperr.Conflict, "document already signed")
	}
	if doc.Status == models.DocumentExpired {
		return nil, apperr.New(apperr.Expired, "signing link has expired")
	}
	if time.Now().After(doc.TokenExpiresAt) {
		if err := s.DB.MarkExpired(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to expire document: %w", err)
		}
		s.logger.LogVerification("EXPIRE", doc.VendorID, fmt.Sprintf("document %s expired lazily", doc.DocumentID))
		return nil, apperr.New(apperr.Expired, "signing link has expired")
	}

	vendor, err := s.DB.GetVendorByID(ctx, doc.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	return &models.DocumentView{
		DocumentID:     doc.DocumentID,
		Title:          doc.Title,
		Content:        doc.Content,
		ContentHash:    doc.ContentHash,
		BusinessName:   vendor.BusinessName,
		TokenExpiresAt: doc.TokenExpiresAt,
		Status:         doc.Status,
	}, nil
}

// Sign records the electronic signature against the token. The confirmation
// email is best-effort; the signature itself is already durable.
func (s *Service) Sign(ctx context.Context, token string, req models.SignDocumentRequest, signerIP, signerUserAgent string) (*models.VerificationDocument, error) {
	if req.Signature == "" {
		return nil, apperr.New(apperr.Validation, "signature is required")
	}

	doc, err := s.DB.GetDocumentByToken(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "signing link not recognized", err)
	}
	if doc.Status == models.DocumentSigned {
		return nil, apperr.New(apperr.Conflict, "document already signed")
	}
	if doc.Status == models.DocumentExpired {
		return nil, apperr.New(apperr.Expired, "signing link has expired")
	}
	if time.Now().After(doc.TokenExpiresAt) {
		if err := s.DB.MarkExpired(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to expire document: %w", err)
		}
		return nil, apperr.New(apperr.Expired, "signing link has expired")
	}

	now := time.Now()
	doc.SignaturePayload = req.Signature
	doc.SignerIP = signerIP
	doc.SignerUserAgent = signerUserAgent
	if err := s.DB.RecordSignature(ctx, doc, now); err != nil {
		return nil, fmt.Errorf("failed to record signature: %w", err)
	}
	doc.Status = models.DocumentSigned
	doc.SignedAt = &now
	s.logger.LogVerification("SIGN", doc.VendorID, fmt.Sprintf("document %s signed from %s", doc.DocumentID, signerIP))

	vendor, err := s.DB.GetVendorByID(ctx, doc.VendorID)
	if err == nil {
		if outcome := s.Email.Send(ctx, vendor.ContactEmail, "Agreement signed",
			email.DocumentSignedBody(now, doc.ContentHash)); !outcome.Delivered {
			s.logger.Warn("VERIFICATION", fmt.Sprintf("signed-confirmation email failed: %s", outcome.Reason))
		}
		s.notify(ctx, vendor.OwnerID, "Agreement signed",
			"Your vendor agreement was signed and is now awaiting admin review.")
	}

	return doc, nil
}

// AdminReview records the admin's verdict on a signed agreement. Role
// enforcement happens at the route; this only guards the state machine.
func (s *Service) AdminReview(ctx context.Context, vendorID string, req models.AdminReviewRequest) (*models.Vendor, error) {
	if req.Action != models.ReviewApprove && req.Action != models.ReviewReject {
		return nil, apperr.Newf(apperr.Validation, "unknown review action %s", req.Action)
	}

	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}

	newStatus := models.VerificationRejected
	verified := false
	if req.Action == models.ReviewApprove {
		newStatus = models.VerificationVerified
		verified = true
	}

	ok, err := s.DB.SetReviewOutcome(ctx, vendorID, newStatus, verified, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to record review outcome: %w", err)
	}
	if !ok {
		return nil, apperr.Newf(apperr.Conflict, "vendor is %s; only signed documents can be reviewed", vendor.VerificationStatus)
	}
	vendor.VerificationStatus = newStatus
	vendor.IsVerified = verified
	vendor.VerificationNotes = req.Notes
	s.logger.LogVerification("REVIEW", vendorID, fmt.Sprintf("admin decision: %s", newStatus))

	s.notify(ctx, vendor.OwnerID, "Verification "+string(newStatus),
		fmt.Sprintf("Your vendor verification outcome: %s", newStatus))
	if outcome := s.Email.Send(ctx, vendor.ContactEmail, "Verification outcome",
		email.ReviewOutcomeBody(vendor.BusinessName, verified, req.Notes)); !outcome.Delivered {
		s.logger.Warn("VERIFICATION", fmt.Sprintf("review outcome email failed: %s", outcome.Reason))
	}

	if s.Kafka != nil && s.Topic != "" {
		event := models.VendorEvent{
			Type:      "vendor_verification_decided",
			VendorID:  vendorID,
			Status:    newStatus,
			Timestamp: time.Now(),
		}
		if value, err := json.Marshal(event); err == nil {
			if err := s.Kafka.Publish(s.Topic, vendorID, value); err != nil {
				s.logger.Error("KAFKA", fmt.Sprintf("failed to publish vendor event: %v", err))
			}
		}
	}

	return vendor, nil
}

// RestartVerification is the explicit owner action that takes an EXPIRED
// vendor back to PENDING so a fresh document can be generated.
func (s *Service) RestartVerification(ctx context.Context, vendorID, requesterID string) error {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	if vendor.OwnerID != requesterID {
		return apperr.New(apperr.Authorization, "only the vendor owner may restart verification")
	}

	ok, err := s.DB.ResetToPending(ctx, vendorID)
	if err != nil {
		return fmt.Errorf("failed to restart verification: %w", err)
	}
	if !ok {
		return apperr.Newf(apperr.Conflict, "vendor is %s; only expired flows can be restarted", vendor.VerificationStatus)
	}
	s.logger.LogVerification("RESTART", vendorID, "expired flow reset to pending")
	return nil
}

// Status returns the owner's view of the verification flow: current vendor
// state plus the latest document, if any.
type StatusView struct {
	VerificationStatus models.VerificationStatus   `json:"verification_status"`
	IsVerified         bool                        `json:"is_verified"`
	Notes              string                      `json:"notes,omitempty"`
	Document           *models.VerificationDocument `json:"document,omitempty"`
}

func (s *Service) Status(ctx context.Context, vendorID, requesterID string) (*StatusView, error) {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	if vendor.OwnerID != requesterID {
		return nil, apperr.New(apperr.Authorization, "only the vendor owner may view verification status")
	}

	view := &StatusView{
		VerificationStatus: vendor.VerificationStatus,
		IsVerified:         vendor.IsVerified,
		Notes:              vendor.VerificationNotes,
	}
	if doc, err := s.DB.GetLatestDocumentByVendor(ctx, vendorID); err == nil {
		view.Document = doc
	}
	return view, nil
}

// AgreementPDF renders a printable copy of the vendor's latest agreement.
// While the signing link is still live the PDF carries its QR code so the
// owner can hand the document to whoever signs on the business's behalf.
func (s *Service) AgreementPDF(ctx context.Context, vendorID, requesterID string, isAdmin bool) ([]byte, string, error) {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	if vendor.OwnerID != requesterID && !isAdmin {
		return nil, "", apperr.New(apperr.Authorization, "only the vendor owner may download the agreement")
	}

	doc, err := s.DB.GetLatestDocumentByVendor(ctx, vendorID)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.NotFound, "no agreement document for this vendor", err)
	}

	var qr []byte
	if doc.Status == models.DocumentPending && time.Now().Before(doc.TokenExpiresAt) {
		png, qrErr := agreement.SigningQR(s.signingURL(doc.SigningToken))
		if qrErr != nil {
			s.logger.Warn("VERIFICATION", fmt.Sprintf("QR generation failed for %s: %v", doc.DocumentID, qrErr))
		} else {
			qr = png
		}
	}

	pdf, err := s.PDF.Generate(*doc, vendor.BusinessName, qr)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Dependency, "could not render agreement", err)
	}
	return pdf, fmt.Sprintf("agreement-%s.pdf", doc.DocumentID), nil
}

func (s *Service) notify(ctx context.Context, userID, title, message string) {
	n := models.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Title:          title,
		Message:        message,
		Type:           models.NotifyVerification,
		CreatedAt:      time.Now(),
	}
	if err := s.Notifier.CreateNotification(ctx, n); err != nil {
		s.logger.Error("VERIFICATION", fmt.Sprintf("failed to persist notification for %s: %v", userID, err))
	}
}
