package store

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"routegen.busfleet.org/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "routegen.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var gtfsFiles = map[string]string{
	"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
		"A1,Sample Transit,https://transit.example.com,Asia/Kolkata\n",
	"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
		"r1,A1,1,Depot - College,3\n",
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station\n" +
		"st1,Central Station,10.0200,77.0200,1,\n" +
		"s2,Market,10.0100,77.0100,0,st1\n" +
		"s1,Depot,10.0200,77.0200,0,\n" +
		"s3,College,10.0000,77.0000,,\n" +
		"e1,Central Entrance,10.0201,77.0201,2,st1\n" +
		"zero,Null Island,0,0,0,\n",
	"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
		"wk,1,1,1,1,1,0,0,20240101,20251231\n",
	"trips.txt": "route_id,service_id,trip_id\n" +
		"r1,wk,t1\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"t1,08:00:00,08:00:00,s1,1\n" +
		"t1,08:05:00,08:05:00,s2,2\n" +
		"t1,08:10:00,08:10:00,s3,3\n",
}

// buildGTFSZip packs files into an in-memory GTFS bundle.
func buildGTFSZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func stopIDs(stops []models.Stop) []string {
	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.StopID
	}
	return ids
}
