package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/email"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"
	"shaadibiyah/internal/verification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetVendorByID(ctx context.Context, vendorID string) (*models.Vendor, error) {
	args := m.Called(vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockDBLayer) GetDocumentByToken(ctx context.Context, token string) (*models.VerificationDocument, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationDocument), args.Error(1)
}

func (m *MockDBLayer) GetLatestDocumentByVendor(ctx context.Context, vendorID string) (*models.VerificationDocument, error) {
	args := m.Called(vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationDocument), args.Error(1)
}

// CreateDocumentTx mimics the transactional contract: the insert only
// sticks when the side effect succeeds.
func (m *MockDBLayer) CreateDocumentTx(ctx context.Context, doc models.VerificationDocument, sideEffect func() error) error {
	args := m.Called(doc)
	if err := args.Error(0); err != nil {
		return err
	}
	return sideEffect()
}

func (m *MockDBLayer) MarkExpired(ctx context.Context, doc *models.VerificationDocument) error {
	args := m.Called(doc)
	return args.Error(0)
}

func (m *MockDBLayer) RecordSignature(ctx context.Context, doc *models.VerificationDocument, signedAt time.Time) error {
	args := m.Called(doc)
	return args.Error(0)
}

func (m *MockDBLayer) SetReviewOutcome(ctx context.Context, vendorID string, status models.VerificationStatus, verified bool, notes string) (bool, error) {
	args := m.Called(vendorID, status, verified, notes)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) ResetToPending(ctx context.Context, vendorID string) (bool, error) {
	args := m.Called(vendorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) CreateNotification(ctx context.Context, n models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

type MockEmailSender struct {
	Sent []string
	Fail bool
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, htmlBody string) email.Outcome {
	if m.Fail {
		return email.Failed(errors.New("smtp unreachable"))
	}
	m.Sent = append(m.Sent, to)
	return email.Delivered()
}

func newTestService(db *MockDBLayer, notifier *MockNotifier, sender *MockEmailSender) *verification.Service {
	return verification.NewService(db, notifier, sender, nil, "",
		"http://localhost:8085", 7*24*time.Hour, logger.NewLogger())
}

func pendingVendor(ownerID string) *models.Vendor {
	return &models.Vendor{
		VendorID:           uuid.NewString(),
		OwnerID:            ownerID,
		BusinessName:       "Gulmohar Banquets",
		Category:           models.CategoryVenue,
		ContactEmail:       "gulmohar@example.com",
		VerificationStatus: models.VerificationPending,
		IsActive:           true,
	}
}

// Tests start here
func TestGenerateDocument(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	sender := &MockEmailSender{}
	svc := newTestService(mockDB, mockNotify, sender)

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("CreateDocumentTx", mock.MatchedBy(func(d models.VerificationDocument) bool {
		return d.VendorID == vendor.VendorID &&
			d.Status == models.DocumentPending &&
			len(d.SigningToken) == 64 && // 32 bytes hex
			len(d.ContentHash) == 64 &&
			d.TokenExpiresAt.After(time.Now().Add(6*24*time.Hour))
	})).Return(nil)

	doc, err := svc.GenerateDocument(context.Background(), vendor.VendorID, "owner-1")

	assert.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Contains(t, doc.Content, vendor.BusinessName)
	assert.Contains(t, sender.Sent, vendor.ContactEmail)
	mockDB.AssertExpectations(t)
}

func TestGenerateDocumentEmailFailureIsFatal(t *testing.T) {
	mockDB := new(MockDBLayer)
	sender := &MockEmailSender{Fail: true}
	svc := newTestService(mockDB, new(MockNotifier), sender)

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("CreateDocumentTx", mock.Anything).Return(nil)

	doc, err := svc.GenerateDocument(context.Background(), vendor.VendorID, "owner-1")

	// The side effect failed inside the transaction, so the whole
	// operation fails and nothing is persisted.
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, apperr.Is(err, apperr.Dependency))
}

func TestGenerateDocumentNotOwner(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)

	_, err := svc.GenerateDocument(context.Background(), vendor.VendorID, "intruder")

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authorization))
	mockDB.AssertNotCalled(t, "CreateDocumentTx", mock.Anything)
}

func TestGenerateDocumentOutstandingLink(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	vendor := pendingVendor("owner-1")
	vendor.VerificationStatus = models.VerificationDocumentSent
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)

	_, err := svc.GenerateDocument(context.Background(), vendor.VendorID, "owner-1")

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestFetchForSigningLazyExpiry(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	doc := &models.VerificationDocument{
		DocumentID:     uuid.NewString(),
		VendorID:       "vendor-1",
		SigningToken:   "tok",
		Status:         models.DocumentPending,
		TokenExpiresAt: time.Now().Add(-time.Hour),
	}
	mockDB.On("GetDocumentByToken", "tok").Return(doc, nil)
	mockDB.On("MarkExpired", doc).Return(nil)

	view, err := svc.FetchForSigning(context.Background(), "tok")

	assert.Error(t, err)
	assert.Nil(t, view)
	assert.True(t, apperr.Is(err, apperr.Expired))
	mockDB.AssertCalled(t, "MarkExpired", doc)
}

func TestFetchForSigningAlreadySigned(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	doc := &models.VerificationDocument{
		DocumentID:     uuid.NewString(),
		SigningToken:   "tok",
		Status:         models.DocumentSigned,
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	mockDB.On("GetDocumentByToken", "tok").Return(doc, nil)

	_, err := svc.FetchForSigning(context.Background(), "tok")

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSign(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	sender := &MockEmailSender{}
	svc := newTestService(mockDB, mockNotify, sender)

	vendor := pendingVendor("owner-1")
	doc := &models.VerificationDocument{
		DocumentID:     uuid.NewString(),
		VendorID:       vendor.VendorID,
		SigningToken:   "tok",
		ContentHash:    "abc123",
		Status:         models.DocumentPending,
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	mockDB.On("GetDocumentByToken", "tok").Return(doc, nil)
	mockDB.On("RecordSignature", doc).Return(nil)
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockNotify.On("CreateNotification", mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == vendor.OwnerID && n.Type == models.NotifyVerification
	})).Return(nil)

	signed, err := svc.Sign(context.Background(), "tok",
		models.SignDocumentRequest{Signature: "Ahmed Raza"}, "203.0.113.4", "Mozilla/5.0")

	assert.NoError(t, err)
	assert.Equal(t, models.DocumentSigned, signed.Status)
	assert.NotNil(t, signed.SignedAt)
	assert.Equal(t, "203.0.113.4", signed.SignerIP)
	assert.Contains(t, sender.Sent, vendor.ContactEmail)
	mockDB.AssertExpectations(t)
}

func TestSignIdempotenceRefused(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	doc := &models.VerificationDocument{
		SigningToken:   "tok",
		Status:         models.DocumentSigned,
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	mockDB.On("GetDocumentByToken", "tok").Return(doc, nil)

	_, err := svc.Sign(context.Background(), "tok",
		models.SignDocumentRequest{Signature: "again"}, "", "")

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	mockDB.AssertNotCalled(t, "RecordSignature", mock.Anything)
}

func TestAdminReviewApprove(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockNotify := new(MockNotifier)
	sender := &MockEmailSender{}
	svc := newTestService(mockDB, mockNotify, sender)

	vendor := pendingVendor("owner-1")
	vendor.VerificationStatus = models.VerificationDocumentSigned
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("SetReviewOutcome", vendor.VendorID, models.VerificationVerified, true, "all clear").Return(true, nil)
	mockNotify.On("CreateNotification", mock.Anything).Return(nil)

	reviewed, err := svc.AdminReview(context.Background(), vendor.VendorID, models.AdminReviewRequest{
		Action: models.ReviewApprove,
		Notes:  "all clear",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, reviewed.VerificationStatus)
	assert.True(t, reviewed.IsVerified)
	mockDB.AssertExpectations(t)
}

func TestAdminReviewWrongState(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	// Vendor is PENDING: the guarded update matches nothing.
	mockDB.On("SetReviewOutcome", vendor.VendorID, models.VerificationVerified, true, "").Return(false, nil)

	_, err := svc.AdminReview(context.Background(), vendor.VendorID, models.AdminReviewRequest{
		Action: models.ReviewApprove,
	})

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestRestartVerification(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})

	vendor := pendingVendor("owner-1")
	vendor.VerificationStatus = models.VerificationExpired
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("ResetToPending", vendor.VendorID).Return(true, nil)

	err := svc.RestartVerification(context.Background(), vendor.VendorID, "owner-1")
	assert.NoError(t, err)

	// Not expired: refused
	fresh := pendingVendor("owner-2")
	mockDB.On("GetVendorByID", fresh.VendorID).Return(fresh, nil)
	mockDB.On("ResetToPending", fresh.VendorID).Return(false, nil)

	err = svc.RestartVerification(context.Background(), fresh.VendorID, "owner-2")
	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Generate(doc models.VerificationDocument, businessName string, qrCode []byte) ([]byte, error) {
	args := m.Called(doc, businessName, qrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestAgreementPDFNotOwner(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})
	renderer := new(MockRenderer)
	svc.PDF = renderer

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)

	_, _, err := svc.AgreementPDF(context.Background(), vendor.VendorID, "intruder", false)

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authorization))
	renderer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgreementPDFAdminBypassesOwnership(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})
	renderer := new(MockRenderer)
	svc.PDF = renderer

	vendor := pendingVendor("owner-1")
	doc := &models.VerificationDocument{
		DocumentID:     uuid.NewString(),
		VendorID:       vendor.VendorID,
		Title:          "Vendor Service Agreement",
		Status:         models.DocumentSigned,
		TokenExpiresAt: time.Now().Add(-time.Hour),
	}
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetLatestDocumentByVendor", vendor.VendorID).Return(doc, nil)
	renderer.On("Generate", *doc, vendor.BusinessName, []byte(nil)).Return([]byte("%PDF"), nil)

	pdf, filename, err := svc.AgreementPDF(context.Background(), vendor.VendorID, "admin-1", true)

	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	assert.Equal(t, "agreement-"+doc.DocumentID+".pdf", filename)
}

func TestAgreementPDFIncludesQRWhileLinkLive(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})
	renderer := new(MockRenderer)
	svc.PDF = renderer

	vendor := pendingVendor("owner-1")
	doc := &models.VerificationDocument{
		DocumentID:     uuid.NewString(),
		VendorID:       vendor.VendorID,
		SigningToken:   "tok",
		Status:         models.DocumentPending,
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetLatestDocumentByVendor", vendor.VendorID).Return(doc, nil)
	renderer.On("Generate", *doc, vendor.BusinessName, mock.MatchedBy(func(qr []byte) bool {
		return len(qr) > 0
	})).Return([]byte("%PDF"), nil)

	_, _, err := svc.AgreementPDF(context.Background(), vendor.VendorID, "owner-1", false)

	assert.NoError(t, err)
	renderer.AssertExpectations(t)
}

func TestAgreementPDFNoDocument(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockNotifier), &MockEmailSender{})
	renderer := new(MockRenderer)
	svc.PDF = renderer

	vendor := pendingVendor("owner-1")
	mockDB.On("GetVendorByID", vendor.VendorID).Return(vendor, nil)
	mockDB.On("GetLatestDocumentByVendor", vendor.VendorID).Return(nil, errors.New("sql: no rows in result set"))

	_, _, err := svc.AgreementPDF(context.Background(), vendor.VendorID, "owner-1", false)

	assert.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	renderer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}
