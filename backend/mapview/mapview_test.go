package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  string
		want      Marker
		wantError bool
	}{
		{name: "plain", lat: "59.437", lon: "24.7536", want: Marker{Latitude: 59.437, Longitude: 24.7536, Zoom: 13}},
		{name: "whitespace", lat: " -33.8688 ", lon: "151.2093\n", want: Marker{Latitude: -33.8688, Longitude: 151.2093, Zoom: 13}},
		{name: "out of range is accepted", lat: "123", lon: "-400", want: Marker{Latitude: 123, Longitude: -400, Zoom: 13}},
		{name: "empty latitude", lat: "", lon: "1", wantError: true},
		{name: "text longitude", lat: "1", lon: "east", wantError: true},
		{name: "nan", lat: "NaN", lon: "1", wantError: true},
		{name: "inf", lat: "1", lon: "+Inf", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.lat, tt.lon)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForProfile(t *testing.T) {
	m, err := ForProfile(profile.Profile{Latitude: "51.5074", Longitude: "-0.1278"})
	require.NoError(t, err)
	assert.Equal(t, 51.5074, m.Latitude)
	assert.Equal(t, -0.1278, m.Longitude)
}

func TestTile(t *testing.T) {
	tests := []struct {
		name   string
		marker Marker
		wantX  int
		wantY  int
	}{
		{"null island", Marker{Zoom: 13}, 4096, 4096},
		{"london", Marker{Latitude: 51.5074, Longitude: -0.1278, Zoom: 13}, 4093, 2724},
		{"tallinn", Marker{Latitude: 59.437, Longitude: 24.7536, Zoom: 13}, 4659, 2404},
		{"north pole clamps", Marker{Latitude: 90, Longitude: 0, Zoom: 13}, 4096, 0},
		{"south pole clamps", Marker{Latitude: -90, Longitude: 0, Zoom: 13}, 4096, 8191},
		{"zoom zero", Marker{Latitude: 10, Longitude: 10}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.marker.Tile()
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestURLs(t *testing.T) {
	m := Marker{Zoom: DefaultZoom}
	assert.Equal(t, "https://tile.openstreetmap.org/13/4096/4096.png", m.TileURL())
	assert.Equal(t,
		"https://www.openstreetmap.org/export/embed.html?bbox=-0.02197265625,-0.010986328125,0.02197265625,0.010986328125&layer=mapnik&marker=0,0",
		m.EmbedURL())
}

func TestWidget(t *testing.T) {
	m := Marker{Latitude: 1, Longitude: 2, Zoom: DefaultZoom}
	w := NewWidget(m)
	assert.False(t, w.Visible)
	assert.Equal(t, m.TileURL(), w.TileURL)

	shown := w.Show()
	assert.True(t, shown.Visible)
	assert.False(t, w.Visible, "Show returns a copy")
	assert.False(t, shown.Dismiss().Visible)
}
