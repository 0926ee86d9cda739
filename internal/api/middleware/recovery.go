package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Recovery turns a handler panic into a 500 and logs it with its stack.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error("panic recovered",
				"error", err,
				"method", c.Request().Method,
				"route", c.Path(),
				"stack", string(stack),
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		},
	})
}
