package qrcode

import (
	"encoding/json"
	"strings"

	"loyalty/internal/domain/service"
	"loyalty/internal/errors"

	"github.com/skip2/go-qrcode"
)

const redemptionPayloadType = "redemption"

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// QRCodeData represents the QR code payload shown to staff at the counter
type QRCodeData struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateRedemptionQR generates a PNG QR code for a redemption code
func (s *qrcodeService) GenerateRedemptionQR(redemptionCode string) ([]byte, error) {
	if strings.TrimSpace(redemptionCode) == "" {
		return nil, errors.New("redemption code is empty")
	}

	jsonData, err := json.Marshal(QRCodeData{
		Code: redemptionCode,
		Type: redemptionPayloadType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal QR code data")
	}

	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}

// ParseRedemptionQR parses scanned QR data and returns the redemption code.
// A bare code typed by hand is accepted as-is.
func (s *qrcodeService) ParseRedemptionQR(qrData string) (string, error) {
	trimmed := strings.TrimSpace(qrData)
	if trimmed == "" {
		return "", errors.New("QR code data is empty")
	}

	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	var data QRCodeData
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal QR code data")
	}

	if data.Type != redemptionPayloadType {
		return "", errors.Errorf("invalid QR code type: %s", data.Type)
	}

	if strings.TrimSpace(data.Code) == "" {
		return "", errors.New("QR code carries no redemption code")
	}

	return data.Code, nil
}
