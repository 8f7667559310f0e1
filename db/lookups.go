package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createLookupsTable = `-- name: CreateLookupsTable :exec
CREATE TABLE IF NOT EXISTS dashboard_lookups (
    id           BIGSERIAL PRIMARY KEY,
    looked_up_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    container_id TEXT NOT NULL,
    vessel_name  TEXT,
    lat          DOUBLE PRECISION,
    lon          DOUBLE PRECISION,
    eta          TEXT,
    risk         TEXT,
    error        TEXT
)
`

// CreateLookupsTable creates the history table when it does not exist yet.
func (q *Queries) CreateLookupsTable(ctx context.Context) error {
	_, err := q.db.Exec(ctx, createLookupsTable)
	return err
}

const recordLookup = `-- name: RecordLookup :exec
INSERT INTO dashboard_lookups (looked_up_at, container_id, vessel_name, lat, lon, eta, risk, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type RecordLookupParams struct {
	LookedUpAt  pgtype.Timestamptz
	ContainerID string
	VesselName  pgtype.Text
	Lat         pgtype.Float8
	Lon         pgtype.Float8
	Eta         pgtype.Text
	Risk        pgtype.Text
	Error       pgtype.Text
}

func (q *Queries) RecordLookup(ctx context.Context, arg RecordLookupParams) error {
	_, err := q.db.Exec(ctx, recordLookup,
		arg.LookedUpAt,
		arg.ContainerID,
		arg.VesselName,
		arg.Lat,
		arg.Lon,
		arg.Eta,
		arg.Risk,
		arg.Error,
	)
	return err
}

const recentLookups = `-- name: RecentLookups :many
SELECT id, looked_up_at, container_id, vessel_name, lat, lon, eta, risk, error
FROM dashboard_lookups
ORDER BY looked_up_at DESC, id DESC
LIMIT $1
`

func (q *Queries) RecentLookups(ctx context.Context, limit int32) ([]DashboardLookup, error) {
	rows, err := q.db.Query(ctx, recentLookups, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DashboardLookup
	for rows.Next() {
		var i DashboardLookup
		if err := rows.Scan(
			&i.ID,
			&i.LookedUpAt,
			&i.ContainerID,
			&i.VesselName,
			&i.Lat,
			&i.Lon,
			&i.Eta,
			&i.Risk,
			&i.Error,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
