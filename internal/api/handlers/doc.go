// Package handlers implements the routes of the mock API server: content
// endpoints answered from a fixture catalog, tracking endpoints that record
// beacons, and a few inspection routes.
package handlers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body Echo renders for a returned *echo.HTTPError.
type ErrorResponse struct {
	Message string `json:"message"`
}

// checkKey enforces the key query parameter. want, when set, is the only
// accepted value.
func checkKey(c echo.Context, want string) *echo.HTTPError {
	got := c.QueryParam("key")
	switch {
	case got == "":
		return echo.NewHTTPError(http.StatusBadRequest, "key is a required parameter")
	case want != "" && got != want:
		return echo.NewHTTPError(http.StatusUnauthorized, "You have supplied an invalid key")
	}
	return nil
}

// pathParam returns a decoded path parameter. Echo routes on the raw path
// when the request carries one, so values can still be escaped.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
