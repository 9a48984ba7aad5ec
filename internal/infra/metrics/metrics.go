// Package metrics exports loyalty engine counters through OpenTelemetry.
package metrics

import (
	"context"
	"log/slog"
	"strings"

	"loyalty/config"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
)

const defaultMeterName = "loyalty"

// ProviderParams holds dependencies for the meter provider, injected by Fx
type ProviderParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewProvider configures and registers the global meter provider. Disabled metrics get a noop provider.
func NewProvider(params ProviderParams) (metric.MeterProvider, error) {
	cfg := params.Config.Metrics
	if cfg == nil || !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)

		return provider, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.ExporterEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OTLP metric exporter")
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Shutting down meter provider")

			return provider.Shutdown(ctx)
		},
	})

	params.Logger.Info("Metrics initialized",
		slog.String("endpoint", cfg.ExporterEndpoint),
		slog.Duration("interval", cfg.Interval),
	)

	return provider, nil
}

// Metrics holds the loyalty instruments.
type Metrics struct {
	pointsEarned  metric.Int64Counter
	earnRejected  metric.Int64Counter
	pointsSpent   metric.Int64Counter
	redemptions   metric.Int64Counter
	redeemDenied  metric.Int64Counter
	verifications metric.Int64Counter
}

// New creates the loyalty instruments on provider.
func New(cfg *config.Config, provider metric.MeterProvider) (service.LoyaltyMetrics, error) {
	name := defaultMeterName
	if cfg != nil && strings.TrimSpace(cfg.Env.ServiceName) != "" {
		name = strings.TrimSpace(cfg.Env.ServiceName)
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	var err error

	if m.pointsEarned, err = meter.Int64Counter("loyalty_points_earned_total",
		metric.WithDescription("Points credited to profiles")); err != nil {
		return nil, errors.WithStack(err)
	}
	if m.earnRejected, err = meter.Int64Counter("loyalty_earn_rejected_total",
		metric.WithDescription("Accrual requests rejected by business rules")); err != nil {
		return nil, errors.WithStack(err)
	}
	if m.pointsSpent, err = meter.Int64Counter("loyalty_points_redeemed_total",
		metric.WithDescription("Points debited by redemptions")); err != nil {
		return nil, errors.WithStack(err)
	}
	if m.redemptions, err = meter.Int64Counter("loyalty_redemptions_total",
		metric.WithDescription("Redemption codes issued")); err != nil {
		return nil, errors.WithStack(err)
	}
	if m.redeemDenied, err = meter.Int64Counter("loyalty_redeem_rejected_total",
		metric.WithDescription("Redemption requests rejected by business rules")); err != nil {
		return nil, errors.WithStack(err)
	}
	if m.verifications, err = meter.Int64Counter("loyalty_verifications_total",
		metric.WithDescription("Redemption code verification attempts by outcome")); err != nil {
		return nil, errors.WithStack(err)
	}

	return m, nil
}

// NewNoop returns instruments bound to a noop provider.
func NewNoop() service.LoyaltyMetrics {
	m, _ := New(nil, noop.NewMeterProvider())

	return m
}

// RecordPointsEarned adds credited points, attributed to the resulting tier.
func (m *Metrics) RecordPointsEarned(ctx context.Context, points int64, tier string) {
	m.pointsEarned.Add(ctx, points, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordEarnRejected counts a rejected accrual.
func (m *Metrics) RecordEarnRejected(ctx context.Context, reason string) {
	m.earnRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRedemption counts an issued code and the points it cost.
func (m *Metrics) RecordRedemption(ctx context.Context, points int64) {
	m.redemptions.Add(ctx, 1)
	m.pointsSpent.Add(ctx, points)
}

// RecordRedeemRejected counts a rejected redemption.
func (m *Metrics) RecordRedeemRejected(ctx context.Context, reason string) {
	m.redeemDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordVerification counts a verification attempt by outcome.
func (m *Metrics) RecordVerification(ctx context.Context, outcome string) {
	m.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Module provides the metrics FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewProvider, New),
)
