// Package api assembles the mock API server: an Echo instance that serves
// the same REST surface the SDK calls, answered from a fixture catalog.
package api

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/constructorio-go/internal/api/handlers"
	mw "github.com/donaldgifford/constructorio-go/internal/api/middleware"
	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

// Options configures NewServer.
type Options struct {
	Catalog  *handlers.Catalog
	Recorder *handlers.Recorder
	// APIKey, when set, is the only key accepted.
	APIKey string
	Logger *slog.Logger
}

// NewServer returns an Echo instance with every SDK endpoint registered,
// plus /healthz, /metrics and the /_mock/events inspection routes.
func NewServer(opts Options) *echo.Echo {
	log := logger.OrDiscard(opts.Logger)
	recorder := opts.Recorder
	if recorder == nil {
		recorder = handlers.NewRecorder(0)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(mw.Recovery(log), mw.RequestLog(log), mw.Metrics())

	content := handlers.NewContentHandler(opts.Catalog, opts.APIKey)
	tracking := handlers.NewTrackingHandler(recorder, opts.APIKey)
	contentRoutes := map[string]echo.HandlerFunc{
		remote.Autocomplete.Name:    content.Autocomplete,
		remote.Search.Name:          content.Search,
		remote.Browse.Name:          content.Browse,
		remote.Recommendations.Name: content.Recommendations,
	}
	for _, ep := range remote.Endpoints {
		h, ok := contentRoutes[ep.Name]
		if !ok {
			h = tracking.Accept(ep)
		}
		e.Add(ep.Method, RoutePath(ep), h)
	}

	e.GET("/healthz", handlers.NewHealthHandler(opts.Catalog).Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/_mock/events", tracking.List)
	e.DELETE("/_mock/events", tracking.Reset)

	return e
}

// RoutePath turns an endpoint template such as "search/{term}" into the
// Echo route "/search/:term".
func RoutePath(ep remote.Endpoint) string {
	segments := strings.Split(ep.Template, "/")
	for i, seg := range segments {
		if name, ok := strings.CutPrefix(seg, "{"); ok {
			segments[i] = ":" + strings.TrimSuffix(name, "}")
		}
	}
	return "/" + strings.Join(segments, "/")
}
