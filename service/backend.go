package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Backend is the external tracking service the dashboard renders.
type Backend interface {
	Track(ctx context.Context, containerID string) (TrackResult, error)
	Weather(ctx context.Context, lat, lon float64) (WeatherResult, error)
	Summary(ctx context.Context, req SummaryRequest) (string, error)
	KPIs(ctx context.Context) (KPISet, error)
	Shipments(ctx context.Context) ([]ShipmentRow, error)
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}

// BackendClient is a thin HTTP client for the tracking backend.
type BackendClient struct {
	baseURL string
	http    *http.Client
}

// NewBackendClient creates a client for the given base URL (e.g. http://host:port).
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Track fetches the live position and prediction for a container.
func (c *BackendClient) Track(ctx context.Context, containerID string) (TrackResult, error) {
	var resp TrackResult
	body := map[string]string{"container_id": containerID}
	if err := c.postJSON(ctx, "/track", body, &resp); err != nil {
		return TrackResult{}, err
	}
	return resp, nil
}

// Weather fetches current conditions at a position.
func (c *BackendClient) Weather(ctx context.Context, lat, lon float64) (WeatherResult, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/weather?"+q.Encode(), &raw); err != nil {
		return WeatherResult{}, err
	}

	var resp WeatherResult
	if err := json.Unmarshal(raw, &resp); err != nil {
		return WeatherResult{}, err
	}
	resp.Raw = raw
	return resp, nil
}

// Summary asks the backend for an operations summary. A response without a
// summary field yields an empty string.
func (c *BackendClient) Summary(ctx context.Context, req SummaryRequest) (string, error) {
	if len(req.Weather) == 0 {
		req.Weather = json.RawMessage("{}")
	}
	var resp summaryResponse
	if err := c.postJSON(ctx, "/summary", req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// KPIs fetches the fleet indicators.
func (c *BackendClient) KPIs(ctx context.Context) (KPISet, error) {
	var resp KPISet
	if err := c.getJSON(ctx, "/kpis", &resp); err != nil {
		return KPISet{}, err
	}
	return resp, nil
}

// Shipments fetches the tracked shipments in backend order.
func (c *BackendClient) Shipments(ctx context.Context) ([]ShipmentRow, error) {
	var resp []ShipmentRow
	if err := c.getJSON(ctx, "/shipments", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *BackendClient) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *BackendClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *BackendClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFrom(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{
			Code:   res.StatusCode,
			Status: res.Status,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return json.NewDecoder(res.Body).Decode(out)
}
