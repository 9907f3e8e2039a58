package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/metrics"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/store"
)

// HealthStatus is the body of GET /v1/healthcheck. Ready is true once at
// least one city is configured; otherwise the endpoint answers 500.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Cities      int    `json:"cities"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	numCities := len(app.ConfigService.Config.GetCities())
	ready := numCities > 0

	status := HealthStatus{
		Status:      "available",
		Environment: app.ConfigService.Config.Env,
		Version:     app.Version,
		Cities:      numCities,
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

// cityFromRequest resolves the :city parameter, answering 404 itself when the city is unknown.
func (app *Application) cityFromRequest(w http.ResponseWriter, r *http.Request) (models.CityConfig, bool) {
	name := httprouter.ParamsFromContext(r.Context()).ByName("city")
	city, ok := app.ConfigService.Config.City(name)
	if !ok {
		app.errorResponse(w, http.StatusNotFound, fmt.Sprintf("%s: %s", store.ErrUnknownCity, name))
		return models.CityConfig{}, false
	}
	return city, true
}

// generateRoutesHandler runs a generation for the city and, when route
// storage is configured, replaces the city's persisted routes with the result.
// An optional max_clusters query parameter overrides the city's limit.
func (app *Application) generateRoutesHandler(w http.ResponseWriter, r *http.Request) {
	city, ok := app.cityFromRequest(w, r)
	if !ok {
		return
	}

	maxClusters := city.MaxClusters
	if raw := r.URL.Query().Get("max_clusters"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			app.errorResponse(w, http.StatusBadRequest, "max_clusters must be a positive integer")
			return
		}
		maxClusters = n
	}

	timeout := app.GenerateTimeout
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	result, err := app.Generator.GenerateRoutes(ctx, city.Name, routing.WithMaxClusters(maxClusters))
	metrics.RecordRun(city.Name, result, err, time.Since(start))
	if err != nil {
		app.failedResponse(w, r, city.Name, err)
		return
	}

	if app.RouteStore != nil {
		if err := app.RouteStore.ReplaceRoutes(ctx, city.Name, result.RunID, result.Routes); err != nil {
			app.failedResponse(w, r, city.Name, fmt.Errorf("failed to store routes of run %s: %w", result.RunID, err))
			return
		}
	}

	app.writeJSON(w, http.StatusOK, result)
}

func (app *Application) listRoutesHandler(w http.ResponseWriter, r *http.Request) {
	city, ok := app.cityFromRequest(w, r)
	if !ok {
		return
	}
	if app.RouteStore == nil {
		app.errorResponse(w, http.StatusServiceUnavailable, "route storage is not configured")
		return
	}

	stored, err := app.RouteStore.ListRoutes(r.Context(), city.Name)
	if err != nil {
		app.failedResponse(w, r, city.Name, err)
		return
	}
	stored.City = city.Name
	app.writeJSON(w, http.StatusOK, stored)
}

type stopsResponse struct {
	City        string           `json:"city"`
	Stops       []models.Stop    `json:"stops"`
	BoundingBox *geo.BoundingBox `json:"bounding_box,omitempty"`
}

func (app *Application) listStopsHandler(w http.ResponseWriter, r *http.Request) {
	city, ok := app.cityFromRequest(w, r)
	if !ok {
		return
	}

	stops, err := app.Stops.GetStops(r.Context(), city.Name)
	if err != nil {
		app.failedResponse(w, r, city.Name, err)
		return
	}

	resp := stopsResponse{City: city.Name, Stops: stops}
	if bbox, err := geo.ComputeBoundingBox(stops); err == nil {
		resp.BoundingBox = &bbox
	}
	app.writeJSON(w, http.StatusOK, resp)
}
