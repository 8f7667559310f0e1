package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type DashboardLookup struct {
	ID          int64              `json:"id"`
	LookedUpAt  pgtype.Timestamptz `json:"looked_up_at"`
	ContainerID string             `json:"container_id"`
	VesselName  pgtype.Text        `json:"vessel_name"`
	Lat         pgtype.Float8      `json:"lat"`
	Lon         pgtype.Float8      `json:"lon"`
	Eta         pgtype.Text        `json:"eta"`
	Risk        pgtype.Text        `json:"risk"`
	Error       pgtype.Text        `json:"error"`
}
