package main

import (
	"context"
	"log/slog"
	"os"

	"loyalty/config"
	"loyalty/internal/delivery"
	"loyalty/internal/delivery/api"
	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/router/handler"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/auth"
	"loyalty/internal/infra/codegen"
	"loyalty/internal/infra/lock"
	logs "loyalty/internal/infra/log"
	"loyalty/internal/infra/metrics"
	"loyalty/internal/infra/persistence/postgres"
	"loyalty/internal/infra/pubsub"
	"loyalty/internal/infra/qrcode"
	"loyalty/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
		),
		lock.Module,
		metrics.Module,
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTransactionManager,
			postgres.NewRepositoryFactory,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
			codegen.NewCodeGenerator,
			newQRCodeService,
		),
	)
}

// newQRCodeService creates a QR code service from the defaulted configuration
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewLoyaltyService,
			impl.NewAdminService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewLoyaltyHandler,
			handler.NewBusinessHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, logger *slog.Logger, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				logger.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
