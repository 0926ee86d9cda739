package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
	"github.com/donaldgifford/constructorio-go/internal/remote"
)

// RecordedBeacon is one tracking request accepted by the mock.
type RecordedBeacon struct {
	Endpoint   string         `json:"endpoint"`
	Action     string         `json:"action,omitempty"`
	Term       string         `json:"term,omitempty"`
	Method     string         `json:"method"`
	Params     url.Values     `json:"params"`
	Body       map[string]any `json:"body,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Recorder keeps the most recent beacons in arrival order.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	beacons []RecordedBeacon
}

// NewRecorder returns a Recorder that keeps at most limit beacons. A limit
// of zero or less keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Record appends b, evicting the oldest beacon when full.
func (r *Recorder) Record(b RecordedBeacon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beacons = append(r.beacons, b)
	if r.limit > 0 && len(r.beacons) > r.limit {
		r.beacons = r.beacons[len(r.beacons)-r.limit:]
	}
}

// Beacons returns the recorded beacons, optionally restricted to one
// endpoint name.
func (r *Recorder) Beacons(endpoint string) []RecordedBeacon {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedBeacon, 0, len(r.beacons))
	for _, b := range r.beacons {
		if endpoint == "" || b.Endpoint == endpoint {
			out = append(out, b)
		}
	}
	return out
}

// Reset forgets every recorded beacon.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.beacons = nil
	r.mu.Unlock()
}

// TrackingHandler accepts the behavioral endpoints and records what it
// receives.
type TrackingHandler struct {
	recorder *Recorder
	apiKey   string
	now      func() time.Time
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(recorder *Recorder, apiKey string) *TrackingHandler {
	return &TrackingHandler{recorder: recorder, apiKey: apiKey, now: time.Now}
}

// Accept returns the handler for one tracking endpoint. Every beacon must
// carry key, i and s; POST bodies must be JSON objects. Accepted beacons
// get 204 No Content.
func (h *TrackingHandler) Accept(ep remote.Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := checkKey(c, h.apiKey); err != nil {
			return err
		}
		q := c.QueryParams()
		for _, name := range []string{"i", "s"} {
			if q.Get(name) == "" {
				return echo.NewHTTPError(http.StatusBadRequest, name+" is a required parameter")
			}
		}

		b := RecordedBeacon{
			Endpoint:   ep.Name,
			Method:     ep.Method,
			Term:       pathParam(c, "term"),
			Params:     q,
			ReceivedAt: h.now(),
		}
		switch ep.Method {
		case http.MethodPost:
			body, err := decodeBody(c.Request().Body)
			if err != nil {
				return err
			}
			b.Body = body
			b.Action = ep.Name
		default:
			b.Action = q.Get("action")
		}

		h.recorder.Record(b)
		metrics.MockBeaconsTotal.WithLabelValues(ep.Name).Inc()
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeBody(r io.Reader) (map[string]any, *echo.HTTPError) {
	var body map[string]any
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object")
	}
	if body["key"] == nil || body["i"] == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must carry key and i")
	}
	return body, nil
}

// List serves GET /_mock/events, optionally filtered by ?endpoint=.
func (h *TrackingHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.recorder.Beacons(c.QueryParam("endpoint")))
}

// Reset serves DELETE /_mock/events.
func (h *TrackingHandler) Reset(c echo.Context) error {
	h.recorder.Reset()
	return c.NoContent(http.StatusNoContent)
}
