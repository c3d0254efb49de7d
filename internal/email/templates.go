package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"shaadibiyah/internal/models"
)

var bookingCreatedTpl = template.Must(template.New("booking_created").Parse(`
<h2>New booking request</h2>
<p>{{.CustomerName}} has requested <strong>{{.ServiceName}}</strong> for {{.EventDate}}.</p>
<p>Guests: {{.GuestCount}} &middot; Location: {{.Location}}</p>
<p>Total amount: {{printf "%.2f" .TotalAmount}}</p>
<p>Log in to ShaadiBiyah to approve or reject this request.</p>
`))

var bookingStatusTpl = template.Must(template.New("booking_status").Parse(`
<h2>Booking update</h2>
<p>Your booking for <strong>{{.ServiceName}}</strong> on {{.EventDate}} is now <strong>{{.Status}}</strong>.</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}
`))

var signingLinkTpl = template.Must(template.New("signing_link").Parse(`
<h2>{{.Title}}</h2>
<p>Dear {{.BusinessName}},</p>
<p>To complete your vendor verification, please review and sign the vendor agreement.
The link below is valid until {{.ExpiresAt}}.</p>
<p><a href="{{.SigningURL}}">Review and sign the agreement</a></p>
{{if .QRCode}}<p>Or scan this code:</p><img src="{{.QRCode}}" alt="signing link" width="160" height="160"/>{{end}}
<p>If you did not request verification, ignore this email.</p>
`))

var documentSignedTpl = template.Must(template.New("document_signed").Parse(`
<h2>Agreement signed</h2>
<p>Your vendor agreement was signed on {{.SignedAt}}.</p>
<p>Document fingerprint: <code>{{.ContentHash}}</code></p>
<p>Our team will review your application shortly.</p>
`))

var reviewOutcomeTpl = template.Must(template.New("review_outcome").Parse(`
<h2>Verification {{if .Approved}}approved{{else}}rejected{{end}}</h2>
{{if .Approved}}
<p>Congratulations! {{.BusinessName}} is now a verified ShaadiBiyah vendor and can accept bookings.</p>
{{else}}
<p>We could not verify {{.BusinessName}} at this time.</p>
{{end}}
{{if .Notes}}<p>Reviewer notes: {{.Notes}}</p>{{end}}
`))

func render(tpl *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		// Templates are static; an execute failure is a programming error.
		return fmt.Sprintf("<p>template error: %v</p>", err)
	}
	return buf.String()
}

func BookingCreatedBody(customerName string, booking models.Booking, serviceName string) string {
	return render(bookingCreatedTpl, map[string]interface{}{
		"CustomerName": customerName,
		"ServiceName":  serviceName,
		"EventDate":    booking.EventDate.Format("Monday, 2 January 2006"),
		"GuestCount":   booking.GuestCount,
		"Location":     booking.Location,
		"TotalAmount":  booking.TotalAmount,
	})
}

func BookingStatusBody(booking models.Booking, serviceName, note string) string {
	return render(bookingStatusTpl, map[string]interface{}{
		"ServiceName": serviceName,
		"EventDate":   booking.EventDate.Format("Monday, 2 January 2006"),
		"Status":      string(booking.Status),
		"Note":        note,
	})
}

// SigningLinkBody renders the verification email. qrCodeDataURI may be empty
// when QR generation failed; the link alone is still usable.
func SigningLinkBody(title, businessName, signingURL, qrCodeDataURI string, expiresAt time.Time) string {
	return render(signingLinkTpl, map[string]interface{}{
		"Title":        title,
		"BusinessName": businessName,
		"SigningURL":   signingURL,
		"QRCode":       template.URL(qrCodeDataURI),
		"ExpiresAt":    expiresAt.Format("2 January 2006 15:04 MST"),
	})
}

func DocumentSignedBody(signedAt time.Time, contentHash string) string {
	return render(documentSignedTpl, map[string]interface{}{
		"SignedAt":    signedAt.Format("2 January 2006 15:04 MST"),
		"ContentHash": contentHash,
	})
}

func ReviewOutcomeBody(businessName string, approved bool, notes string) string {
	return render(reviewOutcomeTpl, map[string]interface{}{
		"BusinessName": businessName,
		"Approved":     approved,
		"Notes":        notes,
	})
}
