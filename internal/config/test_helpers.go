package config

import (
	"io"
	"net/http"
	"strings"
)

// mockRoundTripper answers every request with handler and counts the attempts.
type mockRoundTripper struct {
	calls   int
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls++
	return m.handler(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) (*http.Client, *mockRoundTripper) {
	mock := &mockRoundTripper{handler: handler}
	return &http.Client{Transport: mock}, mock
}

func stringResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}
