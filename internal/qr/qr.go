// Package qr generates the pickup confirmation codes printed on
// donation listings. Each code encodes the public confirmation URL for
// one donation; scanning it completes the handover.
package qr

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const pngSize = 256

// ConfirmURL builds the public pickup-confirmation URL for a donation.
func ConfirmURL(baseURL string, donationID uuid.UUID) string {
	return fmt.Sprintf("%s/api/donations/%s/confirm-pickup", baseURL, donationID)
}

// Generate encodes the confirmation URL as a PNG QR code and returns it
// as a base64 data URI suitable for direct embedding in an <img> tag.
func Generate(baseURL string, donationID uuid.UUID) (string, error) {
	png, err := qrcode.Encode(ConfirmURL(baseURL, donationID), qrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
