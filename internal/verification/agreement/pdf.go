package agreement

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"shaadibiyah/internal/models"

	"github.com/signintech/gopdf"
)

// PDFGenerator renders a printable copy of a signed or pending agreement.
type PDFGenerator struct {
	FontPath string
}

func NewPDFGenerator(fontPath string) *PDFGenerator {
	if fontPath == "" {
		fontPath = "./fonts/DejaVuSans.ttf"
	}
	return &PDFGenerator{FontPath: fontPath}
}

func (g *PDFGenerator) Generate(doc models.VerificationDocument, businessName string, qrCode []byte) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	err := pdf.AddTTFFont("dejavu", g.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	err = pdf.SetFont("dejavu", "", 12)
	if err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	pdf.SetX(40)
	pdf.SetY(30)
	pdf.Cell(nil, doc.Title)

	pdf.SetY(60)
	for _, line := range strings.Split(doc.Content, "\n") {
		pdf.SetX(40)
		pdf.Cell(nil, line)
		pdf.Br(16)
	}

	pdf.Br(16)
	addSignatureBlock(pdf, doc, businessName)

	if len(qrCode) > 0 {
		pdf.Br(16)
		addQRCode(pdf, qrCode)
	}

	var buf bytes.Buffer
	err = pdf.Write(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func addSignatureBlock(pdf *gopdf.GoPdf, doc models.VerificationDocument, businessName string) {
	info := []struct {
		Label string
		Value string
	}{
		{"Vendor", businessName},
		{"Document ID", doc.DocumentID},
		{"Content hash (SHA-256)", doc.ContentHash},
		{"Status", string(doc.Status)},
	}
	if doc.SignedAt != nil {
		info = append(info, struct {
			Label string
			Value string
		}{"Signed at", doc.SignedAt.Format("2006-01-02 15:04")})
	}

	for _, item := range info {
		pdf.SetX(40)
		pdf.Cell(nil, item.Label+": "+item.Value)
		pdf.Br(16)
	}
}

func addQRCode(pdf *gopdf.GoPdf, qrCode []byte) {
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		pdf.Cell(nil, "Failed to load QR code")
		return
	}

	rect := &gopdf.Rect{W: 100, H: 100}
	err = pdf.ImageFrom(img, 100, pdf.GetY(), rect)
	if err != nil {
		pdf.Cell(nil, "Failed to draw QR code")
	}
}
