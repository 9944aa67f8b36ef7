// Package mapview turns a profile's stored coordinates into a map marker on
// OpenStreetMap tiles.
package mapview

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// DefaultZoom is the zoom level a profile map opens at.
const DefaultZoom = 13

const (
	tileURL     = "https://tile.openstreetmap.org/%d/%d/%d.png"
	embedURL    = "https://www.openstreetmap.org/export/embed.html?bbox=%s&layer=mapnik&marker=%s"
	maxLatitude = 85.05112878
)

// ErrInvalidCoordinate is returned when a stored coordinate is not a number.
var ErrInvalidCoordinate = errors.New("mapview: coordinate is not a number")

// Marker is a single map pin.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// Parse converts the raw latitude and longitude strings. No range check is
// made.
func Parse(latitude, longitude string) (Marker, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	if err != nil {
		return Marker{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, latitude)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	if err != nil {
		return Marker{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, longitude)
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return Marker{}, fmt.Errorf("%w: %q, %q", ErrInvalidCoordinate, latitude, longitude)
	}
	return Marker{Latitude: lat, Longitude: lon, Zoom: DefaultZoom}, nil
}

// ForProfile builds the marker for p.
func ForProfile(p profile.Profile) (Marker, error) {
	return Parse(p.Latitude, p.Longitude)
}

// Tile returns the slippy-map tile containing the marker at its zoom level.
func (m Marker) Tile() (x, y int) {
	n := math.Exp2(float64(m.Zoom))
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, m.Latitude))
	lon := math.Mod(m.Longitude+180, 360)
	if lon < 0 {
		lon += 360
	}

	latRad := lat * math.Pi / 180
	x = int(lon / 360 * n)
	y = int((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)

	last := int(n) - 1
	return clamp(x, last), clamp(y, last)
}

func clamp(v, last int) int {
	if v < 0 {
		return 0
	}
	if v > last {
		return last
	}
	return v
}

// TileURL is the OpenStreetMap tile image under the marker.
func (m Marker) TileURL() string {
	x, y := m.Tile()
	return fmt.Sprintf(tileURL, m.Zoom, x, y)
}

// EmbedURL is an embeddable OpenStreetMap page centred on the marker.
func (m Marker) EmbedURL() string {
	// Roughly one tile wide at the marker's zoom.
	span := 360 / math.Exp2(float64(m.Zoom)) / 2
	bbox := fmt.Sprintf("%s,%s,%s,%s",
		coord(m.Longitude-span), coord(m.Latitude-span/2),
		coord(m.Longitude+span), coord(m.Latitude+span/2))
	marker := coord(m.Latitude) + "," + coord(m.Longitude)
	return fmt.Sprintf(embedURL, bbox, marker)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Widget is a marker plus the display flag the host screen flips.
type Widget struct {
	Marker   Marker `json:"marker"`
	Visible  bool   `json:"visible"`
	TileURL  string `json:"tileUrl"`
	EmbedURL string `json:"embedUrl"`
}

// NewWidget returns a hidden widget for m.
func NewWidget(m Marker) Widget {
	return Widget{Marker: m, TileURL: m.TileURL(), EmbedURL: m.EmbedURL()}
}

// Show returns the widget with its display flag set.
func (w Widget) Show() Widget {
	w.Visible = true
	return w
}

// Dismiss returns the widget hidden again. Hosts treat this as the close signal.
func (w Widget) Dismiss() Widget {
	w.Visible = false
	return w
}
