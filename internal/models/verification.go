package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DocumentStatus string

const (
	DocumentPending DocumentStatus = "PENDING"
	DocumentSigned  DocumentStatus = "SIGNED"
	DocumentExpired DocumentStatus = "EXPIRED"
)

// VerificationDocument is the generated legal agreement a vendor must sign
// before being admitted to the marketplace. The signing token is the sole
// access control on the public signing endpoints.
type VerificationDocument struct {
	bun.BaseModel `bun:"table:verification_documents"`

	DocumentID       string         `bun:"document_id,pk" json:"document_id"`
	VendorID         string         `bun:"vendor_id" json:"vendor_id"`
	DocumentType     string         `bun:"document_type" json:"document_type"`
	Title            string         `bun:"title" json:"title"`
	Content          string         `bun:"content" json:"content"`
	ContentHash      string         `bun:"content_hash" json:"content_hash"`
	SigningToken     string         `bun:"signing_token,unique" json:"-"`
	TokenExpiresAt   time.Time      `bun:"token_expires_at" json:"token_expires_at"`
	Status           DocumentStatus `bun:"status" json:"status"`
	SignedAt         *time.Time     `bun:"signed_at,nullzero" json:"signed_at,omitempty"`
	SignaturePayload string         `bun:"signature_payload,nullzero" json:"-"`
	SignerIP         string         `bun:"signer_ip,nullzero" json:"-"`
	SignerUserAgent  string         `bun:"signer_user_agent,nullzero" json:"-"`
	CreatedAt        time.Time      `bun:"created_at" json:"created_at"`
}

type SignDocumentRequest struct {
	Signature string `json:"signature"`
}

// DocumentView is what the public signing page fetches by token. Content is
// included so the signer sees exactly the text that was hashed.
type DocumentView struct {
	DocumentID     string         `json:"document_id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	ContentHash    string         `json:"content_hash"`
	BusinessName   string         `json:"business_name"`
	TokenExpiresAt time.Time      `json:"token_expires_at"`
	Status         DocumentStatus `json:"status"`
}

type AdminReviewAction string

const (
	ReviewApprove AdminReviewAction = "APPROVE"
	ReviewReject  AdminReviewAction = "REJECT"
)

type AdminReviewRequest struct {
	Action AdminReviewAction `json:"action"`
	Notes  string            `json:"notes,omitempty"`
}
