package service

import (
	"encoding/json"
	"time"
)

// Waypoint is a point the vessel is predicted to pass next.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TrackResult is the backend's answer to POST /track.
// Timestamps are kept as the backend sends them and parsed only for display.
type TrackResult struct {
	ContainerID  string   `json:"container_id"`
	VesselName   string   `json:"vessel_name"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	SpeedKnots   float64  `json:"speed_knots"`
	Heading      float64  `json:"heading"`
	NextWaypoint Waypoint `json:"next_waypoint"`
	ETA          string   `json:"eta"`
	Risk         string   `json:"risk"`
	LastUpdate   string   `json:"last_update"`
}

// WeatherResult is the backend's answer to GET /weather. Every field is optional.
type WeatherResult struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	WindSpeed     *float64 `json:"windspeed,omitempty"`
	WindDirection *float64 `json:"winddirection,omitempty"`
	WeatherCode   *float64 `json:"weathercode,omitempty"`
	Time          string   `json:"time,omitempty"`
	Source        string   `json:"source,omitempty"`

	// Raw is the document as received; the summary request forwards it untouched.
	Raw json.RawMessage `json:"-"`
}

// Payload returns the weather document to forward to the summary endpoint.
func (w WeatherResult) Payload() json.RawMessage {
	if len(w.Raw) > 0 {
		return w.Raw
	}
	data, err := json.Marshal(w)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	ContainerID string          `json:"container_id"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	ETA         string          `json:"eta"`
	Weather     json.RawMessage `json:"weather"`
}

type summaryResponse struct {
	Summary  string `json:"summary"`
	Provider string `json:"provider,omitempty"`
}

// KPISet holds the fleet-wide indicators.
type KPISet struct {
	TotalContainers int      `json:"total_containers"`
	OnTimePct       float64  `json:"on_time_pct"`
	HighRisk        int      `json:"high_risk"`
	AvgHoursToETA   *float64 `json:"avg_hours_to_eta"`
}

// ShipmentRow is one entry of GET /shipments.
type ShipmentRow struct {
	ContainerID string  `json:"container_id"`
	VesselName  string  `json:"vessel_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ETA         string  `json:"eta"`
	Risk        string  `json:"risk"`
	LastUpdate  string  `json:"last_update"`
}

// TrackPoint is a single GPS measurement from the telemetry topic.
type TrackPoint struct {
	ContainerID string    `json:"container_id"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Timestamp   time.Time `json:"timestamp"`
	Speed       float64   `json:"speed"`
}

// Cycle is the outcome of one tracking cycle, handed to every CycleListener.
type Cycle struct {
	ContainerID string         `json:"container_id"`
	Track       *TrackResult   `json:"track,omitempty"`
	Weather     *WeatherResult `json:"weather,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration_ns"`
}

// Failed reports whether any stage of the cycle failed.
func (c Cycle) Failed() bool {
	return c.Error != ""
}
