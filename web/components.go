package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/lai/logistics/dashboard/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func component(name string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), data)
}

// pageData is the page template's input: the view plus its pre-rendered parts.
type pageData struct {
	PageView
	KPIsHTML      template.HTML
	MapHTML       template.HTML
	ShipmentsHTML template.HTML
}

// Page renders the whole dashboard around the view's KPI, map and shipments
// components.
func Page(v PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := pageData{PageView: v}
		parts := []struct {
			c   templ.Component
			dst *template.HTML
		}{
			{v.KPIs, &data.KPIsHTML},
			{v.Map, &data.MapHTML},
			{v.Shipments, &data.ShipmentsHTML},
		}
		for _, p := range parts {
			if p.c == nil {
				continue
			}
			html, err := templ.ToGoHTML(ctx, p.c)
			if err != nil {
				return err
			}
			*p.dst = html
		}
		return templates.ExecuteTemplate(w, "page", data)
	})
}

// KPICards renders the four KPI cards, or nothing when k is nil.
func KPICards(k *service.KPISet) templ.Component {
	return component("kpis", NewKPIView(k))
}

// MapOption adjusts a MapView.
type MapOption func(*MapData)

// WithLiveUpdates makes the map follow the position socket.
func WithLiveUpdates(on bool) MapOption {
	return func(m *MapData) { m.Live = on }
}

// MapView renders the map centred on lat/lon with a line to the next waypoint.
func MapView(containerID string, lat, lon, nextLat, nextLon float64, opts ...MapOption) templ.Component {
	m := NewMapData(containerID, lat, lon, nextLat, nextLon)
	for _, opt := range opts {
		opt(m)
	}
	return component("map", m)
}

// ShipmentsTable renders one row per shipment in list order, or nothing when
// rows is empty. Last-update times are rendered in loc.
func ShipmentsTable(rows []service.ShipmentRow, loc *time.Location) templ.Component {
	return component("shipments", NewShipmentViews(rows, loc))
}
