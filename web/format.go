package web

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// invalidDate is what a browser prints for a timestamp it cannot parse.
const invalidDate = "Invalid Date"

// localLayout mirrors the en-US Date.toLocaleString() output.
const localLayout = "1/2/2006, 3:04:05 PM"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// The backend emits naive timestamps in UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatUTC renders a timestamp like Date.toUTCString().
func FormatUTC(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return invalidDate
	}
	return t.UTC().Format(http.TimeFormat)
}

// FormatLocal renders a timestamp in loc.
func FormatLocal(s string, loc *time.Location) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return invalidDate
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(localLayout)
}

// ISOTimestamp normalises s to RFC 3339 for <time datetime>, or "" when unparseable.
func ISOTimestamp(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// RelativeTime renders "14 hours from now" style hints.
func RelativeTime(s string, now time.Time) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatNumber prints the shortest decimal form: 120, 92.5, 0.1.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed prints v with a fixed number of decimals.
func FormatFixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// FormatOptional prints an optional value, or nothing when it is absent.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatNumber(*v)
}

// FormatAvgHours prints the average hours to ETA, or "-" when absent.
func FormatAvgHours(v *float64) string {
	if v == nil {
		return "-"
	}
	return FormatNumber(*v)
}

// WMO weather interpretation codes as used by Open-Meteo.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherCodeLabel names a WMO weather code; unknown codes print as "code N".
// Codes may arrive float-encoded, so 3.0 is code 3.
func WeatherCodeLabel(code *float64) string {
	if code == nil {
		return ""
	}
	if n := *code; n == math.Trunc(n) {
		if label, ok := weatherCodes[int(n)]; ok {
			return label
		}
	}
	return "code " + FormatNumber(*code)
}

func humanizeSince(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
