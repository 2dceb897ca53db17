package bootstrap

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/eleven-am/dicom-viewer/internal/gateway"
	"github.com/eleven-am/dicom-viewer/internal/health"
	"github.com/eleven-am/dicom-viewer/internal/session"
	"github.com/eleven-am/dicom-viewer/internal/shared"
)

const version = "1.0.0"

type HandlerParams struct {
	fx.In

	SessionHandler *session.Handler
	StreamHandler  *gateway.Handler
	HealthHandler  *health.Handler
	Config         *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	e.Use(metricsMiddleware(params.HealthHandler))
	params.HealthHandler.RegisterRoutes(e)

	api := e.Group("/api")

	rateLimit := session.UploadRateLimit(session.RateLimiterConfig{
		RequestsPerSecond: params.Config.UploadRatePerSecond,
		Burst:             params.Config.UploadBurst,
		CleanupInterval:   session.DefaultRateLimiterConfig().CleanupInterval,
	})
	params.SessionHandler.RegisterRoutes(api, rateLimit)
	params.StreamHandler.RegisterRoutes(api)

	// The 3D volume view is a declared stub: the endpoint exists so the
	// frontend can probe for it, but no renderer is implemented.
	if params.Config.StubVolumeRendering {
		api.GET("/volume/:session_id/:series_uid", func(c echo.Context) error {
			return shared.NewAPIError("not_implemented", "volume rendering is not implemented").
				ToHTTP(http.StatusNotImplemented)
		})
	}
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideSessionHandler(store *session.Store, archive *session.ArchiveStore, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, archive, logger.With("handler", "session"))
}

func ProvideStreamHandler(store *session.Store, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(store, logger.With("handler", "stream"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideSessionHandler,
		ProvideStreamHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
