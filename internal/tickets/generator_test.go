package tickets

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	g := NewQRGenerator(128)

	ticket, err := g.Generate("TKT-20260830-ABC234", "A-1-5")

	assert.NoError(t, err)
	assert.Equal(t, "TKT-20260830-ABC234/A-1-5", ticket.Payload)
	assert.Equal(t, "image/png", ticket.MimeType)
	assert.True(t, strings.HasPrefix(ticket.QRCode, "data:image/png;base64,"))

	// The encoded image decodes to a PNG
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ticket.QRCode, "data:image/png;base64,"))
	assert.NoError(t, err)
	assert.True(t, len(raw) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestGenerate_DefaultSize(t *testing.T) {
	g := NewQRGenerator(0)

	ticket, err := g.Generate("TKT-20260830-ABC234", "GA-000042")

	assert.NoError(t, err)
	assert.NotEmpty(t, ticket.QRCode)
}

func TestGenerate_DistinctPerUnit(t *testing.T) {
	g := NewQRGenerator(64)

	first, err := g.Generate("TKT-20260830-ABC234", "A-1-1")
	assert.NoError(t, err)
	second, err := g.Generate("TKT-20260830-ABC234", "A-1-2")
	assert.NoError(t, err)

	assert.NotEqual(t, first.Payload, second.Payload)
	assert.NotEqual(t, first.QRCode, second.QRCode)
}
