package agreement_test

import (
	"strings"
	"testing"
	"time"

	"shaadibiyah/internal/models"
	"shaadibiyah/internal/verification/agreement"

	"github.com/stretchr/testify/assert"
)

func TestRenderAndHash(t *testing.T) {
	vendor := &models.Vendor{
		BusinessName: "Noor Photography",
		Category:     models.CategoryPhotographer,
	}
	generatedAt := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	title, content, err := agreement.Render(vendor, "doc-1", generatedAt)
	assert.NoError(t, err)
	assert.Contains(t, title, "Noor Photography")
	assert.Contains(t, content, "Noor Photography")
	assert.Contains(t, content, "14 March 2026")
	assert.Contains(t, content, "doc-1")

	// Hashing is deterministic over the rendered body
	h1 := agreement.Hash(content)
	h2 := agreement.Hash(content)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// A different vendor yields a different body and hash
	other := &models.Vendor{BusinessName: "Raza Decor", Category: models.CategoryDecorator}
	_, otherContent, err := agreement.Render(other, "doc-2", generatedAt)
	assert.NoError(t, err)
	assert.NotEqual(t, h1, agreement.Hash(otherContent))
}

func TestSigningQR(t *testing.T) {
	png, err := agreement.SigningQR("http://localhost:8085/api/verification/sign/abc")
	assert.NoError(t, err)
	assert.NotEmpty(t, png)

	uri, err := agreement.SigningQRDataURI("http://localhost:8085/api/verification/sign/abc")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
