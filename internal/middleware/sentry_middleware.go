package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

// SentryMiddleware attaches a Sentry hub to each request, recovering and
// reporting panics before re-panicking. Requests carrying an X-Request-ID are tagged with it.
func SentryMiddleware(next http.Handler) http.Handler {
	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: true,
		Timeout:         2 * time.Second,
	})

	tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			if id := r.Header.Get(RequestIDHeader); id != "" {
				hub.Scope().SetTag("request_id", id)
			}
		}
		next.ServeHTTP(w, r)
	})

	return sentryHandler.Handle(tagged)
}
