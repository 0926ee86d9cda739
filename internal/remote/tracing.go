package remote

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

type doerTransport struct {
	doer Doer
}

func (t doerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.doer.Do(r)
}

// traced wraps doer so every request produces a client span and carries
// trace context headers. An *http.Client keeps its timeout and redirect
// policy; its transport is wrapped in place on a copy.
func traced(doer Doer) Doer {
	opts := []otelhttp.Option{
		otelhttp.WithTracerProvider(otel.GetTracerProvider()),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "cio " + r.Method + " " + r.URL.Path
		}),
	}

	if hc, ok := doer.(*http.Client); ok {
		clone := *hc
		base := clone.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		clone.Transport = otelhttp.NewTransport(base, opts...)
		return &clone
	}

	return &http.Client{Transport: otelhttp.NewTransport(doerTransport{doer: doer}, opts...)}
}
