package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the per-request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the echo context key holding the request ID.
const RequestIDKey = "request_id"

// RequestLog logs one line per request. Besides the usual HTTP fields it
// records the client GUID and session number the SDK sends as "i" and "s".
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(RequestIDHeader, id)

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", id,
			}
			q := req.URL.Query()
			if v := q.Get("i"); v != "" {
				attrs = append(attrs, "client_id", v)
			}
			if v := q.Get("s"); v != "" {
				attrs = append(attrs, "session", v)
			}
			log.Log(req.Context(), logLevel(c.Path(), status), "request", attrs...)
			return err
		}
	}
}

// logLevel keeps probe traffic out of the info log and raises server
// errors to warn.
func logLevel(route string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelWarn
	case route == "/healthz":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
