package ride

// Coordinate is a single WGS 84 route point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Summary is the immutable record produced when a ride stops. The JSON shape
// is the persisted wire contract of the ride log; Timestamp doubles as the
// record id.
type Summary struct {
	Route         []Coordinate `json:"route"`
	MaxSpeed      float64      `json:"maxSpeed"`
	AvgSpeed      float64      `json:"avgSpeed"`
	TotalDistance float64      `json:"totalDistance"`
	TimeTaken     float64      `json:"timeTaken"`
	Timestamp     string       `json:"timestamp"`
}

func (s Summary) ID() string {
	return s.Timestamp
}
