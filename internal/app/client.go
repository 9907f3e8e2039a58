package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"routegen.busfleet.org/internal/metrics"
)

// latencyTrackingRoundTripper records the duration of every outgoing request
// in metrics.OutgoingLatency.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// Paths carry coordinates for OSRM, so only the host is used as a label.
	metrics.OutgoingLatency.WithLabelValues(
		req.URL.Scheme+"://"+req.URL.Host,
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns the HTTP client shared by the config loader, the
// stop sources and the path service. Keep-alive connections are reused across
// the concurrent path requests of a run. The overall timeout stays above the
// time a GTFS bundle download normally takes.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   60 * time.Second,
	}
}
