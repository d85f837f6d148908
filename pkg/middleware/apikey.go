package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/financebro/api/pkg/context"
	"github.com/financebro/api/pkg/tracing"
)

// HeaderAPIKey is the shared-secret header presented by the scraping workflow engine.
const HeaderAPIKey = "x-api-key"

// APIKey rejects requests whose x-api-key header does not exactly match the
// configured secret. Runs before any ingestion logic.
func APIKey(logger ectologger.Logger, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx, span := tracing.StartSpan(ctx, "middleware.APIKey")
			defer span.End()

			if secret == "" {
				logger.WithContext(ctx).Error("scraper api key is not configured")
				return echo.NewHTTPError(http.StatusInternalServerError, "api key auth is not configured")
			}

			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				logger.WithContext(ctx).Warn("request is missing api key")
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required: include the x-api-key header")
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				logger.WithContext(ctx).Warn("request presented an invalid api key")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			ctx = appctx.SetCaller(ctx, "n8n")
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
