package models

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stop is a bus boarding location. StopID is unique within a city.
type Stop struct {
	StopID   string  `json:"stop_id"`
	StopName string  `json:"stop_name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Point returns the stop's coordinate.
func (s Stop) Point() Point {
	return Point{Lat: s.Lat, Lng: s.Lng}
}

// NewStop creates a new Stop instance.
func NewStop(id, name string, lat, lng float64) *Stop {
	return &Stop{
		StopID:   id,
		StopName: name,
		Lat:      lat,
		Lng:      lng,
	}
}

// StopPoints returns the coordinates of stops in the same order.
func StopPoints(stops []Stop) []Point {
	points := make([]Point, len(stops))
	for i, s := range stops {
		points[i] = s.Point()
	}
	return points
}
