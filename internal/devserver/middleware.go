package devserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Logging logs one line per request with the request id.
func Logging(base *zap.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger := base.With(
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("remote", c.RealIP()),
			)
			if len(c.ParamNames()) > 0 {
				logger = logger.With(
					zap.Strings("params", c.ParamNames()),
					zap.Strings("values", c.ParamValues()),
				)
			}
			code := c.Response().Status
			if code >= http.StatusInternalServerError {
				logger.Warn(http.StatusText(code), zap.Int("status", code), zap.Error(err))
			} else {
				logger.Info(http.StatusText(code), zap.Int("status", code))
			}
			return nil
		}
	}
}
