package service

import "context"

// LoyaltyMetrics records engine outcomes. A noop implementation is provided when metrics are disabled,
// so callers never check for nil.
type LoyaltyMetrics interface {
	RecordPointsEarned(ctx context.Context, points int64, tier string)
	RecordEarnRejected(ctx context.Context, reason string)
	RecordRedemption(ctx context.Context, points int64)
	RecordRedeemRejected(ctx context.Context, reason string)
	RecordVerification(ctx context.Context, outcome string)
}
