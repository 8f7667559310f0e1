package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *BackendClient {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	return NewBackendClient(s.URL+"/", 5*time.Second)
}

func TestBackendClient_Track(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/track" {
			t.Errorf("got %s %s, want POST /track", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"container_id": "MSCU1234567",
			"vessel_name": "MV-MSCU",
			"lat": 25.033, "lon": 121.5654,
			"speed_knots": 18, "heading": 270,
			"next_waypoint": {"lat": 27.533, "lon": 124.5654},
			"eta": "2025-01-01T12:00:00",
			"risk": "LOW",
			"last_update": "2025-01-01T06:00:00"
		}`))
	})

	tr, err := c.Track(context.Background(), "MSCU1234567")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if gotBody["container_id"] != "MSCU1234567" {
		t.Errorf("request body=%v", gotBody)
	}
	if tr.VesselName != "MV-MSCU" || tr.Lat != 25.033 || tr.NextWaypoint.Lon != 124.5654 {
		t.Errorf("unexpected track: %+v", tr)
	}
	if tr.Heading != 270 || tr.SpeedKnots != 18 || tr.Risk != "LOW" {
		t.Errorf("unexpected track: %+v", tr)
	}
}

func TestBackendClient_WeatherAcceptsFloatCode(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temperature":21.5,"weathercode":3.0}`))
	})

	wr, err := c.Weather(context.Background(), 25.033, 121.5654)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if wr.WeatherCode == nil || *wr.WeatherCode != 3 {
		t.Errorf("weathercode=%v", wr.WeatherCode)
	}
}

func TestBackendClient_WeatherKeepsRawDocument(t *testing.T) {
	t.Parallel()

	const doc = `{"temperature":21.5,"windspeed":12,"weathercode":3,"source":"open-meteo","extra":"kept"}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "25.033" {
			t.Errorf("lat=%q", got)
		}
		if got := r.URL.Query().Get("lon"); got != "-121.5" {
			t.Errorf("lon=%q", got)
		}
		w.Write([]byte(doc))
	})

	wr, err := c.Weather(context.Background(), 25.033, -121.5)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if wr.Temperature == nil || *wr.Temperature != 21.5 {
		t.Errorf("temperature=%v", wr.Temperature)
	}
	if wr.WindDirection != nil {
		t.Errorf("winddirection should be absent, got %v", *wr.WindDirection)
	}
	if wr.WeatherCode == nil || *wr.WeatherCode != 3 {
		t.Errorf("weathercode=%v", wr.WeatherCode)
	}
	if string(wr.Payload()) != doc {
		t.Errorf("payload=%s, want raw document", wr.Payload())
	}
}

func TestBackendClient_Summary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "with summary", response: `{"summary":"All good.","provider":"template"}`, want: "All good."},
		{name: "summary omitted", response: `{"provider":"openai"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got map[string]json.RawMessage
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(tt.response))
			})

			summary, err := c.Summary(context.Background(), SummaryRequest{
				ContainerID: "MSCU1234567",
				Lat:         1.5,
				Lon:         2.5,
				ETA:         "2025-01-01T12:00:00",
				Weather:     json.RawMessage(`{"temperature":20}`),
			})
			if err != nil {
				t.Fatalf("Summary: %v", err)
			}
			if summary != tt.want {
				t.Errorf("summary=%q, want %q", summary, tt.want)
			}
			for _, key := range []string{"container_id", "lat", "lon", "eta", "weather"} {
				if _, ok := got[key]; !ok {
					t.Errorf("request missing %q: %v", key, got)
				}
			}
			if string(got["weather"]) != `{"temperature":20}` {
				t.Errorf("weather=%s", got["weather"])
			}
		})
	}
}

func TestBackendClient_KPIsAndShipments(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/kpis":
			w.Write([]byte(`{"total_containers":120,"on_time_pct":92.5,"high_risk":3,"avg_hours_to_eta":null}`))
		case "/shipments":
			w.Write([]byte(`[
				{"container_id":"B","vessel_name":"MV-B","lat":1,"lon":2,"eta":"2025-01-02T00:00:00","risk":"LOW","last_update":"2025-01-01T00:00:00"},
				{"container_id":"A","vessel_name":"MV-A","lat":3,"lon":4,"eta":"2025-01-03T00:00:00","risk":"HIGH","last_update":"2025-01-01T00:00:00"}
			]`))
		default:
			http.NotFound(w, r)
		}
	})

	kpis, err := c.KPIs(context.Background())
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	if kpis.TotalContainers != 120 || kpis.OnTimePct != 92.5 || kpis.HighRisk != 3 {
		t.Errorf("unexpected kpis: %+v", kpis)
	}
	if kpis.AvgHoursToETA != nil {
		t.Errorf("avg_hours_to_eta should be absent, got %v", *kpis.AvgHoursToETA)
	}

	rows, err := c.Shipments(context.Background())
	if err != nil {
		t.Fatalf("Shipments: %v", err)
	}
	if len(rows) != 2 || rows[0].ContainerID != "B" || rows[1].ContainerID != "A" {
		t.Errorf("rows not in response order: %+v", rows)
	}
}

func TestBackendClient_StatusError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"detail":"Weather fetch failed"}`+"\n")
	})

	_, err := c.Weather(context.Background(), 1, 2)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("code=%d", se.Code)
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "Weather fetch failed") {
		t.Errorf("error missing status or body: %q", err.Error())
	}
	if strings.HasSuffix(err.Error(), "\n") {
		t.Errorf("body not trimmed: %q", err.Error())
	}
}

func TestBackendClient_ForwardsRequestID(t *testing.T) {
	t.Parallel()

	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		w.Write([]byte(`[]`))
	})

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := c.Shipments(ctx); err != nil {
		t.Fatalf("Shipments: %v", err)
	}
	if got != "req-42" {
		t.Errorf("X-Request-ID=%q", got)
	}
}

func TestBackendClient_TransportError(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()

	c := NewBackendClient(url, time.Second)
	_, err := c.Track(context.Background(), "X")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Fatalf("transport failure reported as status error: %v", err)
	}
}
