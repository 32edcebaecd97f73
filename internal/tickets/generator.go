package tickets

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Ticket is a rendered entry artifact for one booked unit.
type Ticket struct {
	Payload  string `json:"payload"`
	QRCode   string `json:"qr_code"`
	MimeType string `json:"mime_type"`
}

// Generator renders tickets for confirmed bookings.
type Generator interface {
	Generate(bookingRef, unitLabel string) (*Ticket, error)
}

type qrGenerator struct {
	size int
}

// NewQRGenerator returns a generator producing base64 PNG QR codes at the
// given pixel size.
func NewQRGenerator(size int) Generator {
	if size <= 0 {
		size = 256
	}
	return &qrGenerator{size: size}
}

func (g *qrGenerator) Generate(bookingRef, unitLabel string) (*Ticket, error) {
	// The payload is what gate scanners verify. Ref plus label identifies a
	// single admission.
	payload := fmt.Sprintf("%s/%s", bookingRef, unitLabel)

	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	png, err := qr.PNG(g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	return &Ticket{
		Payload:  payload,
		QRCode:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		MimeType: "image/png",
	}, nil
}
