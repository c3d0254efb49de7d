package agreement

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"text/template"
	"time"

	"shaadibiyah/internal/models"

	"github.com/skip2/go-qrcode"
)

const DocumentType = "VENDOR_AGREEMENT"

// agreementTpl is the canonical agreement text. The signer sees and signs
// exactly this rendering; its SHA-256 is the content hash stored with the
// document.
var agreementTpl = template.Must(template.New("agreement").Parse(`VENDOR SERVICE AGREEMENT

This agreement is entered into on {{.GeneratedAt}} between ShaadiBiyah
("the Platform") and {{.BusinessName}} ("the Vendor"), a {{.Category}}
service provider.

1. The Vendor confirms that all business details submitted to the Platform
   are accurate and that the Vendor is legally entitled to provide the
   listed services.

2. The Vendor agrees to honour every booking confirmed through the
   Platform at the agreed price, and to notify customers promptly of any
   change affecting a booked event.

3. The Vendor agrees to the Platform's commission and payout schedule as
   published at the time each booking is confirmed.

4. The Platform may suspend or remove the Vendor for misrepresentation,
   repeated cancellations, or conduct harmful to customers.

5. This agreement takes effect when signed electronically via the signing
   link issued to the Vendor, and remains in force while the Vendor is
   listed on the Platform.

Vendor: {{.BusinessName}}
Document ID: {{.DocumentID}}`))

type renderData struct {
	BusinessName string
	Category     models.VendorCategory
	DocumentID   string
	GeneratedAt  string
}

// Render produces the agreement title and body for a vendor.
func Render(vendor *models.Vendor, documentID string, generatedAt time.Time) (title, content string, err error) {
	var buf bytes.Buffer
	err = agreementTpl.Execute(&buf, renderData{
		BusinessName: vendor.BusinessName,
		Category:     vendor.Category,
		DocumentID:   documentID,
		GeneratedAt:  generatedAt.Format("2 January 2006"),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render agreement: %w", err)
	}
	title = fmt.Sprintf("Vendor Service Agreement - %s", vendor.BusinessName)
	return title, buf.String(), nil
}

// Hash returns the hex SHA-256 of the rendered agreement body.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SigningQR encodes the signing URL as a 256px PNG.
func SigningQR(signingURL string) ([]byte, error) {
	return qrcode.Encode(signingURL, qrcode.Medium, 256)
}

// SigningQRDataURI returns the QR PNG as an inline data URI for embedding in
// the signing email.
func SigningQRDataURI(signingURL string) (string, error) {
	png, err := SigningQR(signingURL)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
