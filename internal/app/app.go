package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"routegen.busfleet.org/internal/config"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/store"
)

// DefaultGenerateTimeout bounds one generation request, path service calls included.
const DefaultGenerateTimeout = 2 * time.Minute

// RouteRepository persists the generated route set of a city.
type RouteRepository interface {
	ReplaceRoutes(ctx context.Context, city, runID string, routes []models.GeneratedRoute) error
	ListRoutes(ctx context.Context, city string) (*store.StoredRoutes, error)
}

// Application wires the generator, stop sources and route storage behind the HTTP API.
type Application struct {
	ConfigService   *config.ConfigService
	Generator       *routing.Generator
	Stops           routing.StopStore
	RouteStore      RouteRepository
	Logger          *slog.Logger
	Version         string
	GenerateTimeout time.Duration
}

// Options carries the collaborators that main builds before the Application.
type Options struct {
	// SQLite serves the sqlite stop source and stores generated routes. May be nil.
	SQLite *store.SQLiteStore
	// Paths produces road paths. Nil means straight lines.
	Paths    routing.PathService
	Policy   routing.Policy
	CacheDir string
	Version  string
}

// New creates and wires all dependencies for the Application.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, opts Options) *Application {
	sources := map[models.StopSource]store.CitySource{
		models.StopSourceGTFS: store.NewGTFSStopStore(client, logger, opts.CacheDir),
		models.StopSourceOBA:  store.NewOBAStopStore(client, logger),
	}
	app := &Application{
		ConfigService:   config.NewConfigService(logger, client, cfg),
		Logger:          logger,
		Version:         opts.Version,
		GenerateTimeout: DefaultGenerateTimeout,
	}
	if opts.SQLite != nil {
		sources[models.StopSourceSQLite] = opts.SQLite
		app.RouteStore = opts.SQLite
	}

	app.Stops = store.NewCityStopStore(cfg, sources)
	app.Generator = routing.NewGenerator(app.Stops, opts.Paths, opts.Policy, logger)
	return app
}
