// Package middleware holds the Echo middleware stack of the mock API server.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// clients cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records mock_http_request_duration_seconds and
// mock_http_requests_total labelled by route template rather than raw path.
// Scrapes, probes and /_mock inspection calls are not recorded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if skipMetrics(route) {
				return next(c)
			}
			if route == "" || route == "/*" {
				route = unmatchedRoute
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			labels := []string{c.Request().Method, route, strconv.Itoa(status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}

func skipMetrics(route string) bool {
	switch route {
	case "/metrics", "/healthz":
		return true
	}
	return strings.HasPrefix(route, "/_mock/")
}
