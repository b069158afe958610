package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// LoggerMiddleware logs one line per request:
// GET /api/nodes?cluster=devnet -> 200 OK (234ms) from 127.0.0.1
func LoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			path := req.URL.Path
			if req.URL.RawQuery != "" {
				path += "?" + req.URL.RawQuery
			}
			status := res.Status
			latency := time.Since(start)

			entry := log.WithFields(log.Fields{
				"method":     req.Method,
				"path":       path,
				"status":     status,
				"latency_ms": latency.Milliseconds(),
				"ip":         c.RealIP(),
			})
			if source := res.Header().Get("X-Data-Source"); source != "" {
				entry = entry.WithField("source", source)
			}

			msg := req.Method + " " + path + " -> " + http.StatusText(status)
			switch {
			case status >= 500:
				entry.Error(msg)
			case status >= 400:
				entry.Warn(msg)
			default:
				entry.Info(msg)
			}

			return nil
		}
	}
}
