package qrcode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQRCodeService(t *testing.T) {
	tests := []struct {
		name                 string
		errorCorrectionLevel string
	}{
		{"Low error correction", "L"},
		{"Medium error correction", "M"},
		{"High error correction", "Q"},
		{"Highest error correction", "H"},
		{"Default error correction", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, NewQRCodeService(256, tt.errorCorrectionLevel))
		})
	}
}

func TestQRCodeService_GenerateRedemptionQR(t *testing.T) {
	service := NewQRCodeService(256, "M")

	qrBytes, err := service.GenerateRedemptionQR("K7Q2M9XA")
	require.NoError(t, err)
	require.Greater(t, len(qrBytes), 4)

	// PNG magic number
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, qrBytes[:4])

	_, err = service.GenerateRedemptionQR("  ")
	assert.Error(t, err)
}

func TestQRCodeService_ParseRedemptionQR(t *testing.T) {
	service := NewQRCodeService(256, "M")

	payload, err := json.Marshal(QRCodeData{Code: "K7Q2M9XA", Type: "redemption"})
	require.NoError(t, err)
	wrongType, err := json.Marshal(QRCodeData{Code: "K7Q2M9XA", Type: "subscription"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "json payload", data: string(payload), want: "K7Q2M9XA"},
		{name: "bare code", data: " K7Q2M9XA ", want: "K7Q2M9XA"},
		{name: "wrong type", data: string(wrongType), wantErr: true},
		{name: "malformed json", data: "{not json", wantErr: true},
		{name: "empty code", data: `{"type":"redemption"}`, wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ParseRedemptionQR(tt.data)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
