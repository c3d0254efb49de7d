package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetVendorByID(ctx context.Context, vendorID string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := d.Bun.NewSelect().
		Model(&vendor).
		Where("vendor_id = ?", vendorID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (d *DB) GetDocumentByToken(ctx context.Context, token string) (*models.VerificationDocument, error) {
	var doc models.VerificationDocument
	err := d.Bun.NewSelect().
		Model(&doc).
		Where("signing_token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *DB) GetLatestDocumentByVendor(ctx context.Context, vendorID string) (*models.VerificationDocument, error) {
	var doc models.VerificationDocument
	err := d.Bun.NewSelect().
		Model(&doc).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocumentTx inserts the document and flips the vendor's verification
// status in one transaction, then runs sideEffect before committing. If the
// side effect fails the document and the status flip are both rolled back;
// a vendor is never left DOCUMENT_SENT without a delivered signing link.
func (d *DB) CreateDocumentTx(ctx context.Context, doc models.VerificationDocument, sideEffect func() error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&doc).Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewUpdate().
			Model((*models.Vendor)(nil)).
			Set("verification_status = ?", models.VerificationDocumentSent).
			Where("vendor_id = ?", doc.VendorID).
			Exec(ctx)
		if err != nil {
			return err
		}

		return sideEffect()
	})
}

// MarkExpired flips both the document and its vendor to EXPIRED. Called
// lazily when an outdated token is presented.
func (d *DB) MarkExpired(ctx context.Context, doc *models.VerificationDocument) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.VerificationDocument)(nil)).
			Set("status = ?", models.DocumentExpired).
			Where("document_id = ?", doc.DocumentID).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Vendor)(nil)).
			Set("verification_status = ?", models.VerificationExpired).
			Where("vendor_id = ?", doc.VendorID).
			Exec(ctx)
		return err
	})
}

// RecordSignature persists the signature evidence and advances the document
// and vendor states together.
func (d *DB) RecordSignature(ctx context.Context, doc *models.VerificationDocument, signedAt time.Time) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.VerificationDocument)(nil)).
			Set("status = ?", models.DocumentSigned).
			Set("signed_at = ?", signedAt).
			Set("signature_payload = ?", doc.SignaturePayload).
			Set("signer_ip = ?", doc.SignerIP).
			Set("signer_user_agent = ?", doc.SignerUserAgent).
			Where("document_id = ?", doc.DocumentID).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Vendor)(nil)).
			Set("verification_status = ?", models.VerificationDocumentSigned).
			Set("document_signed_at = ?", signedAt).
			Where("vendor_id = ?", doc.VendorID).
			Exec(ctx)
		return err
	})
}

// SetReviewOutcome records the admin decision. Only a DOCUMENT_SIGNED vendor
// row is updated; zero rows affected means the vendor moved meanwhile.
func (d *DB) SetReviewOutcome(ctx context.Context, vendorID string, status models.VerificationStatus, verified bool, notes string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Vendor)(nil)).
		Set("verification_status = ?", status).
		Set("is_verified = ?", verified).
		Set("verification_notes = ?", notes).
		Where("vendor_id = ?", vendorID).
		Where("verification_status = ?", models.VerificationDocumentSigned).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ResetToPending restarts an EXPIRED verification flow.
func (d *DB) ResetToPending(ctx context.Context, vendorID string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Vendor)(nil)).
		Set("verification_status = ?", models.VerificationPending).
		Where("vendor_id = ?", vendorID).
		Where("verification_status = ?", models.VerificationExpired).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
