// Package service defines interfaces for domain services implemented by the infrastructure layer.
package service

// QRCodeService defines the interface for rendering and reading redemption QR codes
type QRCodeService interface {
	// GenerateRedemptionQR renders a PNG QR code carrying a redemption code
	GenerateRedemptionQR(redemptionCode string) ([]byte, error)

	// ParseRedemptionQR extracts the redemption code from scanned QR payload data
	ParseRedemptionQR(qrData string) (string, error)
}
