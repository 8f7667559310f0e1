package web

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/lai/logistics/dashboard/service"
)

// PageView is everything the dashboard page renders. The KPI cards, map and
// shipments table are complete components; a nil Map means there is no track.
type PageView struct {
	ContainerID string
	Loading     bool
	Error       string
	KPIs        templ.Component
	Map         templ.Component
	Track       *TrackView
	Weather     *WeatherView
	Summary     string
	Shipments   templ.Component
	Lookups     []LookupView
}

// KPIView holds the four KPI card values in display order.
type KPIView struct {
	Containers    string
	OnTimePct     string
	HighRisk      string
	AvgHoursToETA string
}

// MapData positions the map: centre/marker at Lat/Lon, line to the next waypoint.
type MapData struct {
	ContainerID string
	Lat         string
	Lon         string
	NextLat     string
	NextLon     string
	Zoom        int
	Live        bool
}

// TrackView feeds the "Current Location" and "Predictive ETA" cards.
type TrackView struct {
	VesselName    string
	Coords        string
	Speed         string
	Heading       string
	LastUpdate    string
	LastUpdateISO string
	ETAUTC        string
	ETARelative   string
	Risk          string
	NextWaypoint  string
}

// WeatherView feeds the "Weather Now" card.
type WeatherView struct {
	Temperature   string
	WindSpeed     string
	WindDirection string
	Conditions    string
	Source        string
	Time          string
}

// ShipmentView is one formatted shipments table row.
type ShipmentView struct {
	ContainerID   string
	VesselName    string
	ETAUTC        string
	Risk          string
	LastUpdate    string
	LastUpdateISO string
}

// LookupView is one row of the recent lookups card.
type LookupView struct {
	ContainerID string
	VesselName  string
	Risk        string
	Error       string
	Ago         string
}

const mapZoom = 5

// NewKPIView formats a KPI set; nil stays nil.
func NewKPIView(k *service.KPISet) *KPIView {
	if k == nil {
		return nil
	}
	return &KPIView{
		Containers:    strconv.Itoa(k.TotalContainers),
		OnTimePct:     FormatNumber(k.OnTimePct) + "%",
		HighRisk:      strconv.Itoa(k.HighRisk),
		AvgHoursToETA: FormatAvgHours(k.AvgHoursToETA),
	}
}

// NewMapData positions the map on the current location.
func NewMapData(containerID string, lat, lon, nextLat, nextLon float64) *MapData {
	return &MapData{
		ContainerID: containerID,
		Lat:         FormatNumber(lat),
		Lon:         FormatNumber(lon),
		NextLat:     FormatNumber(nextLat),
		NextLon:     FormatNumber(nextLon),
		Zoom:        mapZoom,
	}
}

// NewTrackView formats the track detail cards.
func NewTrackView(t *service.TrackResult, loc *time.Location, now time.Time) *TrackView {
	if t == nil {
		return nil
	}
	return &TrackView{
		VesselName:    t.VesselName,
		Coords:        FormatFixed(t.Lat, 4) + ", " + FormatFixed(t.Lon, 4),
		Speed:         FormatNumber(t.SpeedKnots),
		Heading:       FormatNumber(t.Heading),
		LastUpdate:    FormatLocal(t.LastUpdate, loc),
		LastUpdateISO: ISOTimestamp(t.LastUpdate),
		ETAUTC:        FormatUTC(t.ETA),
		ETARelative:   RelativeTime(t.ETA, now),
		Risk:          t.Risk,
		NextWaypoint:  FormatFixed(t.NextWaypoint.Lat, 2) + ", " + FormatFixed(t.NextWaypoint.Lon, 2),
	}
}

// NewWeatherView formats the weather card; absent fields print empty.
func NewWeatherView(w *service.WeatherResult) *WeatherView {
	if w == nil {
		return nil
	}
	return &WeatherView{
		Temperature:   FormatOptional(w.Temperature),
		WindSpeed:     FormatOptional(w.WindSpeed),
		WindDirection: FormatOptional(w.WindDirection),
		Conditions:    WeatherCodeLabel(w.WeatherCode),
		Source:        w.Source,
		Time:          w.Time,
	}
}

// NewShipmentViews formats rows in list order.
func NewShipmentViews(rows []service.ShipmentRow, loc *time.Location) []ShipmentView {
	if len(rows) == 0 {
		return nil
	}
	out := make([]ShipmentView, len(rows))
	for i, r := range rows {
		out[i] = ShipmentView{
			ContainerID:   r.ContainerID,
			VesselName:    r.VesselName,
			ETAUTC:        FormatUTC(r.ETA),
			Risk:          r.Risk,
			LastUpdate:    FormatLocal(r.LastUpdate, loc),
			LastUpdateISO: ISOTimestamp(r.LastUpdate),
		}
	}
	return out
}

// NewLookupViews formats the recent lookups.
func NewLookupViews(lookups []service.Lookup, now time.Time) []LookupView {
	if len(lookups) == 0 {
		return nil
	}
	out := make([]LookupView, len(lookups))
	for i, l := range lookups {
		out[i] = LookupView{
			ContainerID: l.ContainerID,
			VesselName:  l.VesselName,
			Risk:        l.Risk,
			Error:       l.Error,
			Ago:         humanizeSince(l.At, now),
		}
	}
	return out
}

// NewPageView turns a controller snapshot into the page model. live switches
// the map to the position socket.
func NewPageView(s service.State, loc *time.Location, now time.Time, live bool) PageView {
	v := PageView{
		ContainerID: s.ContainerID,
		Loading:     s.Loading,
		Error:       s.Error,
		KPIs:        KPICards(s.KPIs),
		Track:       NewTrackView(s.Track, loc, now),
		Weather:     NewWeatherView(s.Weather),
		Summary:     s.Summary,
		Shipments:   ShipmentsTable(s.Shipments, loc),
	}
	if t := s.Track; t != nil {
		id := t.ContainerID
		if id == "" {
			id = s.ContainerID
		}
		v.Map = MapView(id, t.Lat, t.Lon, t.NextWaypoint.Lat, t.NextWaypoint.Lon, WithLiveUpdates(live))
	}
	return v
}
