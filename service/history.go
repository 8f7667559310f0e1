package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lai/logistics/dashboard/db"
)

// Lookup is one remembered tracking cycle.
type Lookup struct {
	At          time.Time
	ContainerID string
	VesselName  string
	Risk        string
	ETA         string
	Error       string
}

type lookupStore interface {
	RecordLookup(ctx context.Context, arg db.RecordLookupParams) error
	RecentLookups(ctx context.Context, limit int32) ([]db.DashboardLookup, error)
}

// History persists finished cycles and lists the latest ones.
type History struct {
	queries lookupStore
}

// NewHistory creates a history backed by the given queries.
func NewHistory(q lookupStore) *History {
	return &History{queries: q}
}

// CycleCompleted records the cycle. Insert failures are logged only.
func (h *History) CycleCompleted(ctx context.Context, c Cycle) {
	arg := db.RecordLookupParams{
		LookedUpAt:  pgtype.Timestamptz{Time: c.StartedAt, Valid: true},
		ContainerID: c.ContainerID,
		Error:       pgtype.Text{String: c.Error, Valid: c.Error != ""},
	}
	if t := c.Track; t != nil {
		arg.VesselName = pgtype.Text{String: t.VesselName, Valid: true}
		arg.Lat = pgtype.Float8{Float64: t.Lat, Valid: true}
		arg.Lon = pgtype.Float8{Float64: t.Lon, Valid: true}
		arg.Eta = pgtype.Text{String: t.ETA, Valid: true}
		arg.Risk = pgtype.Text{String: t.Risk, Valid: true}
	}

	if err := h.queries.RecordLookup(ctx, arg); err != nil {
		slog.Error("record lookup failed", "container_id", c.ContainerID, "error", err)
	}
}

// Recent returns up to limit lookups, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Lookup, error) {
	rows, err := h.queries.RecentLookups(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	out := make([]Lookup, len(rows))
	for i, r := range rows {
		out[i] = Lookup{
			At:          r.LookedUpAt.Time,
			ContainerID: r.ContainerID,
			VesselName:  r.VesselName.String,
			Risk:        r.Risk.String,
			ETA:         r.Eta.String,
			Error:       r.Error.String,
		}
	}
	return out, nil
}
