package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}

	return sums
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(nil, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPointsEarned(ctx, 40, "bronze")
	m.RecordPointsEarned(ctx, 60, "silver")
	m.RecordEarnRejected(ctx, "cooldown")
	m.RecordRedemption(ctx, 100)
	m.RecordRedeemRejected(ctx, "insufficient_points")
	m.RecordVerification(ctx, "verified")
	m.RecordVerification(ctx, "expired")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(100), sums["loyalty_points_earned_total"])
	assert.Equal(t, int64(1), sums["loyalty_earn_rejected_total"])
	assert.Equal(t, int64(1), sums["loyalty_redemptions_total"])
	assert.Equal(t, int64(100), sums["loyalty_points_redeemed_total"])
	assert.Equal(t, int64(1), sums["loyalty_redeem_rejected_total"])
	assert.Equal(t, int64(2), sums["loyalty_verifications_total"])
}

func TestNewNoop(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		m.RecordPointsEarned(context.Background(), 1, "bronze")
	})
}
