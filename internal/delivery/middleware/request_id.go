package middleware

import (
	"log/slog"

	deliverycontext "loyalty/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDMiddleware tags each request with an ID and a logger carrying it.
type RequestIDMiddleware struct {
	logger *slog.Logger
}

// NewRequestIDMiddleware creates a new Request ID middleware
func NewRequestIDMiddleware(logger *slog.Logger) *RequestIDMiddleware {
	return &RequestIDMiddleware{
		logger: logger,
	}
}

// Process echoes the ID in the response header and stores the ID and the request logger
// on both the echo context and the request context, where services pick them up.
func (m *RequestIDMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFor(c.Request().Header.Get(deliverycontext.HeaderXRequestID))

		deliverycontext.SetRequestID(c, requestID)
		c.Response().Header().Set(deliverycontext.HeaderXRequestID, requestID)

		reqLogger := m.logger.With(
			slog.String("request_id", requestID),
			slog.String("route", c.Path()),
		)

		ctx := deliverycontext.WithLogger(deliverycontext.WithRequestID(c.Request().Context(), requestID), reqLogger)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// requestIDFor keeps a well-formed client ID for end-to-end tracing and otherwise mints one.
func requestIDFor(header string) string {
	if id := deliverycontext.SanitizeRequestID(header); id != "" {
		return id
	}

	return uuid.New().String()
}
