package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Products int    `json:"products"`
	Pods     int    `json:"pods"`
}

// HealthHandler reports liveness along with the size of the loaded catalog.
type HealthHandler struct {
	catalog *Catalog
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(catalog *Catalog) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

// Healthz returns 200 while the process is serving.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Products: len(h.catalog.Products),
		Pods:     len(h.catalog.Pods),
	})
}
