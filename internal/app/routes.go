package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"routegen.busfleet.org/internal/middleware"
)

// Routes registers the API and returns the handler wrapped in the request ID,
// Sentry and security header middlewares. ctx stops the metrics cache.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodPost, "/v1/cities/:city/routes/generate", app.generateRoutesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/cities/:city/routes", app.listRoutesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/cities/:city/stops", app.listStopsHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second, app.Logger))

	handler := middleware.SentryMiddleware(router)
	handler = middleware.RequestID(handler)
	return middleware.SecurityHeaders(handler)
}
