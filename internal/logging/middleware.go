package logging

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Middleware attaches a logger tagged with the request id to the request
// context and logs one line per request. It must run after echo's RequestID
// middleware.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			correlationID := c.Response().Header().Get(echo.HeaderXRequestID)
			if correlationID == "" {
				correlationID = req.Header.Get(echo.HeaderXRequestID)
			}

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         req.Method,
				"path":           c.Path(),
			})
			c.SetRequest(req.WithContext(ToContext(req.Context(), entry)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			}
			if c.Response().Status >= 500 {
				entry.WithFields(fields).Error("request failed")
			} else {
				entry.WithFields(fields).Info("request handled")
			}
			return nil
		}
	}
}
