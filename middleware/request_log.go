package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with the acting user
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields["request_id"] = id
			}
			if user := GetCurrentUser(c); user != nil {
				fields["user_id"] = user.ID
				fields["user_role"] = user.Role
			}

			entry := log.WithFields(fields)
			switch status := c.Response().Status; {
			case status >= 500:
				entry.Error("Request completed")
			case status >= 400:
				entry.Warn("Request completed")
			default:
				entry.Info("Request completed")
			}
			return nil
		}
	}
}
