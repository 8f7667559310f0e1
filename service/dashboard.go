package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is a snapshot of a dashboard controller. An empty Error means no error.
type State struct {
	ContainerID string         `json:"container_id"`
	Track       *TrackResult   `json:"track,omitempty"`
	Weather     *WeatherResult `json:"weather,omitempty"`
	Summary     string         `json:"summary"`
	KPIs        *KPISet        `json:"kpis,omitempty"`
	Shipments   []ShipmentRow  `json:"shipments"`
	Loading     bool           `json:"loading"`
	Error       string         `json:"error,omitempty"`
}

// CycleListener is told about every finished tracking cycle.
type CycleListener interface {
	CycleCompleted(ctx context.Context, c Cycle)
}

// CycleListenerFunc adapts a function to CycleListener.
type CycleListenerFunc func(ctx context.Context, c Cycle)

func (f CycleListenerFunc) CycleCompleted(ctx context.Context, c Cycle) {
	f(ctx, c)
}

// Dashboard owns the view state of one operator's dashboard and issues the
// backend requests that change it.
type Dashboard struct {
	backend   Backend
	pipeline  *Pipeline
	listeners []CycleListener
	notifying sync.WaitGroup

	mu    sync.Mutex
	state State
}

// NewDashboard creates a controller with the container-id input preset.
func NewDashboard(b Backend, containerID string, listeners ...CycleListener) *Dashboard {
	return &Dashboard{
		backend:   b,
		pipeline:  NewPipeline(b),
		listeners: listeners,
		state:     State{ContainerID: containerID},
	}
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	s.Shipments = slices.Clone(d.state.Shipments)
	return s
}

// SetContainerID updates the container-id input. The value is sent to the
// backend as typed.
func (d *Dashboard) SetContainerID(id string) {
	d.mu.Lock()
	d.state.ContainerID = id
	d.mu.Unlock()
}

// FetchTrackingCycle runs track -> weather -> summary for the current input.
// Results already stored stay in place when a later stage fails. Concurrent
// cycles are not serialized; the last write wins. Listeners are notified in the
// background and never hold up the caller; see Wait.
func (d *Dashboard) FetchTrackingCycle(ctx context.Context) error {
	d.mu.Lock()
	d.state.Loading = true
	d.state.Error = ""
	d.state.Summary = ""
	containerID := d.state.ContainerID
	d.mu.Unlock()

	cycle := Cycle{ContainerID: containerID, StartedAt: time.Now()}
	sink := &cycleRecorder{dash: d, cycle: &cycle}

	err := d.pipeline.Run(ctx, containerID, sink)

	d.mu.Lock()
	if err != nil {
		d.state.Error = err.Error()
	}
	d.state.Loading = false
	d.mu.Unlock()

	if err != nil {
		cycle.Error = err.Error()
		slog.Warn("tracking cycle failed",
			"container_id", containerID,
			"error", err,
			"request_id", RequestIDFrom(ctx),
		)
	}
	cycle.Duration = time.Since(cycle.StartedAt)

	if len(d.listeners) > 0 {
		d.notifying.Add(1)
		go d.notify(context.WithoutCancel(ctx), cycle)
	}
	return err
}

// notify hands a finished cycle to every listener in registration order.
func (d *Dashboard) notify(ctx context.Context, c Cycle) {
	defer d.notifying.Done()
	for _, l := range d.listeners {
		l.CycleCompleted(ctx, c)
	}
}

// Wait blocks until every listener notification started so far has returned.
func (d *Dashboard) Wait() {
	d.notifying.Wait()
}

// RefreshDashboardData fetches KPIs and shipments concurrently. Each result is
// applied as soon as it succeeds; failures leave the previous value in place
// and are only logged.
func (d *Dashboard) RefreshDashboardData(ctx context.Context) {
	var g errgroup.Group

	g.Go(func() error {
		kpis, err := d.backend.KPIs(ctx)
		if err != nil {
			slog.Warn("kpi refresh failed", "error", err, "request_id", RequestIDFrom(ctx))
			return nil
		}
		d.mu.Lock()
		d.state.KPIs = &kpis
		d.mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rows, err := d.backend.Shipments(ctx)
		if err != nil {
			slog.Warn("shipments refresh failed", "error", err, "request_id", RequestIDFrom(ctx))
			return nil
		}
		d.mu.Lock()
		d.state.Shipments = rows
		d.mu.Unlock()
		return nil
	})

	g.Wait()
}

// cycleRecorder stores stage results on the dashboard and in the cycle record.
type cycleRecorder struct {
	dash  *Dashboard
	cycle *Cycle
}

func (r *cycleRecorder) SetTrack(t TrackResult) {
	r.cycle.Track = &t
	r.dash.mu.Lock()
	r.dash.state.Track = &t
	r.dash.mu.Unlock()
}

func (r *cycleRecorder) SetWeather(w WeatherResult) {
	r.cycle.Weather = &w
	r.dash.mu.Lock()
	r.dash.state.Weather = &w
	r.dash.mu.Unlock()
}

func (r *cycleRecorder) SetSummary(s string) {
	r.cycle.Summary = s
	r.dash.mu.Lock()
	r.dash.state.Summary = s
	r.dash.mu.Unlock()
}
