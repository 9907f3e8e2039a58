package models

// BusType is the service label attached to a generated route.
type BusType string

const (
	BusTypeExpress  BusType = "Express"
	BusTypeDeluxe   BusType = "Deluxe"
	BusTypeStandard BusType = "Standard"
)

// DefaultBusTypes is the round-robin order used when no other order is configured.
var DefaultBusTypes = []BusType{BusTypeExpress, BusTypeDeluxe, BusTypeStandard}

// GeneratedRoute is one route produced by a generation run.
//
// Stops holds stop names in travel order. Path is the road-following polyline,
// or the straight-line stop coordinates when no road path could be fetched.
// TotalDistance is in kilometres and TotalTime in minutes.
type GeneratedRoute struct {
	RouteID       string   `json:"route_id"`
	RouteName     string   `json:"routeName"`
	BusType       BusType  `json:"busType"`
	Stops         []string `json:"stops"`
	StopIDs       []string `json:"stop_ids"`
	Path          []Point  `json:"path"`
	TotalDistance float64  `json:"totalDistance"`
	TotalTime     int      `json:"totalTime"`
	PathFallback  bool     `json:"path_fallback"`
	CentroidCell  string   `json:"centroid_cell,omitempty"`
}

// GenerationStats summarises what happened during one generation run.
type GenerationStats struct {
	Stops              int `json:"stops"`
	Clusters           int `json:"clusters"`
	OutliersReassigned int `json:"outliers_reassigned"`
	DroppedClusters    int `json:"dropped_clusters"`
	PathFallbacks      int `json:"path_fallbacks"`
}

// GenerationResult is handed back to the caller, which owns persistence.
type GenerationResult struct {
	RunID  string           `json:"run_id"`
	City   string           `json:"city"`
	Routes []GeneratedRoute `json:"routes"`
	Stats  GenerationStats  `json:"stats"`
}
