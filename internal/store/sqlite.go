package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/utils"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps stops and generated routes in a SQLite database.
// Cities are keyed by utils.CitySlug so lookups ignore case.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
	logger  *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at dbPath and ensures the schema.
func OpenSQLite(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection keeps transactions from colliding.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to SQLite database", "path", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates tables if they don't exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetStops returns the stops of city ordered by stop_id. An unknown city has no stops.
func (s *SQLiteStore) GetStops(ctx context.Context, city string) ([]models.Stop, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stop_id, stop_name, lat, lng FROM stops WHERE city = ? ORDER BY stop_id`,
		utils.CitySlug(city))
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	stops := []models.Stop{}
	for rows.Next() {
		var stop models.Stop
		if err := rows.Scan(&stop.StopID, &stop.StopName, &stop.Lat, &stop.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stops: %w", err)
	}
	return stops, nil
}

// CityStops lets the store serve as the sqlite stop source.
func (s *SQLiteStore) CityStops(ctx context.Context, city models.CityConfig) ([]models.Stop, error) {
	return s.GetStops(ctx, city.Name)
}

// UpsertStops inserts stops for city, replacing name and location of existing stop IDs.
func (s *SQLiteStore) UpsertStops(ctx context.Context, city string, stops []models.Stop) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stops (city, stop_id, stop_name, lat, lng)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (city, stop_id) DO UPDATE SET
			stop_name = excluded.stop_name,
			lat = excluded.lat,
			lng = excluded.lng`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare stop upsert: %w", err)
	}
	defer stmt.Close()

	slug := utils.CitySlug(city)
	for _, stop := range stops {
		if _, err := stmt.ExecContext(ctx, slug, stop.StopID, stop.StopName, stop.Lat, stop.Lng); err != nil {
			return 0, fmt.Errorf("failed to upsert stop %s: %w", stop.StopID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit stops: %w", err)
	}
	return len(stops), nil
}

// ReplaceRoutes swaps the persisted route set of city for routes in one
// transaction. On error the previous set is left untouched.
func (s *SQLiteStore) ReplaceRoutes(ctx context.Context, city, runID string, routes []models.GeneratedRoute) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slug := utils.CitySlug(city)
	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE city = ?`, slug); err != nil {
		return fmt.Errorf("failed to delete routes of %s: %w", city, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (
			city, route_id, run_id, route_name, bus_type, stop_names, stop_ids, path,
			total_distance, total_time, path_fallback, centroid_cell, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare route insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, route := range routes {
		names, err := json.Marshal(route.Stops)
		if err != nil {
			return fmt.Errorf("failed to encode stops of %s: %w", route.RouteID, err)
		}
		ids, err := json.Marshal(route.StopIDs)
		if err != nil {
			return fmt.Errorf("failed to encode stop ids of %s: %w", route.RouteID, err)
		}
		path, err := json.Marshal(route.Path)
		if err != nil {
			return fmt.Errorf("failed to encode path of %s: %w", route.RouteID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			slug, route.RouteID, runID, route.RouteName, string(route.BusType),
			string(names), string(ids), string(path),
			route.TotalDistance, route.TotalTime, route.PathFallback, route.CentroidCell, createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert route %s: %w", route.RouteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit routes: %w", err)
	}
	s.logger.Info("Stored generated routes", "city", city, "run_id", runID, "routes", len(routes))
	return nil
}

// StoredRoutes is the persisted route set of a city.
type StoredRoutes struct {
	City   string                  `json:"city"`
	RunID  string                  `json:"run_id"`
	Routes []models.GeneratedRoute `json:"routes"`
}

// ListRoutes returns the persisted routes of city in the order they were generated.
func (s *SQLiteStore) ListRoutes(ctx context.Context, city string) (*StoredRoutes, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT route_id, run_id, route_name, bus_type, stop_names, stop_ids, path,
			total_distance, total_time, path_fallback, centroid_cell
		FROM routes WHERE city = ? ORDER BY rowid`, utils.CitySlug(city))
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	result := &StoredRoutes{City: city, Routes: []models.GeneratedRoute{}}
	for rows.Next() {
		var (
			route                models.GeneratedRoute
			runID, busType       string
			names, ids, pathJSON string
		)
		if err := rows.Scan(
			&route.RouteID, &runID, &route.RouteName, &busType, &names, &ids, &pathJSON,
			&route.TotalDistance, &route.TotalTime, &route.PathFallback, &route.CentroidCell,
		); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		route.BusType = models.BusType(busType)
		if err := json.Unmarshal([]byte(names), &route.Stops); err != nil {
			return nil, fmt.Errorf("failed to decode stops of %s: %w", route.RouteID, err)
		}
		if err := json.Unmarshal([]byte(ids), &route.StopIDs); err != nil {
			return nil, fmt.Errorf("failed to decode stop ids of %s: %w", route.RouteID, err)
		}
		if err := json.Unmarshal([]byte(pathJSON), &route.Path); err != nil {
			return nil, fmt.Errorf("failed to decode path of %s: %w", route.RouteID, err)
		}
		result.RunID = runID
		result.Routes = append(result.Routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routes: %w", err)
	}
	return result, nil
}
