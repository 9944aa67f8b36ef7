package main

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gitea.kood.tech/petrkubec/staff-directory/backend/directory"
	"gitea.kood.tech/petrkubec/staff-directory/backend/export"
	"gitea.kood.tech/petrkubec/staff-directory/backend/mapview"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

func rowIDs(rows []profile.Profile) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestAdminRows(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(testProfiles()...))

	tests := []struct {
		name  string
		query string
		ids   []string
		label string
	}{
		{"Default order", "", []string{"3", "2", "1"}, "Ascending"},
		{"Descending", "?order=desc", []string{"1", "2", "3"}, "Descending"},
		{"Name search only", "?search=ART", []string{}, "Ascending"},
		{"Name search", "?search=ali", []string{"3", "2"}, "Ascending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, "/api/admin/profiles"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decodeBody[RowsResponse](t, rec)
			assert.Equal(t, tt.ids, rowIDs(resp.Rows))
			assert.Equal(t, len(tt.ids), resp.Total)
			assert.Equal(t, tt.label, resp.SortLabel)
			assert.Equal(t, len(tt.ids) == 0, resp.Empty)
		})
	}

	t.Run("Bad order", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/admin/profiles?order=up", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeInvalidQuery, decodeBody[store.ErrorBody](t, rec).Error)
	})
}

func TestDirectoryRows(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(testProfiles()...))

	tests := []struct {
		name  string
		query string
		ids   []string
		label string
	}{
		{"Default order", "", []string{"3", "2", "1"}, "A-Z"},
		{"Search spans description and interest", "?search=ART", []string{"3", "2", "1"}, "A-Z"},
		{"Interest filter", "?interest=Art&order=desc", []string{"1", "3"}, "Z-A"},
		{"Unknown sort keeps store order", "?sort=age", []string{"1", "2", "3"}, "A-Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decodeBody[RowsResponse](t, rec)
			assert.Equal(t, tt.ids, rowIDs(resp.Rows))
			assert.Equal(t, tt.label, resp.SortLabel)
			assert.False(t, resp.Empty)
			assert.Empty(t, resp.Message)
		})
	}

	t.Run("No matches", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles?search=zzz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[RowsResponse](t, rec)
		assert.Empty(t, resp.Rows)
		assert.True(t, resp.Empty)
		assert.Equal(t, directory.EmptyMessage, resp.Message)
	})
}

func TestInterests(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(testProfiles()...))

	rec := doRequest(t, h, http.MethodGet, "/api/directory/interests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"Art", "Tech"}, decodeBody[[]string](t, rec))
}

func TestProfileMap(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(testProfiles()...))

	t.Run("Marker", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles/1/map", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[MapResponse](t, rec)
		assert.InDelta(t, 59.43, resp.Latitude, 1e-9)
		assert.InDelta(t, 24.75, resp.Longitude, 1e-9)
		assert.Equal(t, mapview.DefaultZoom, resp.Zoom)
		assert.Contains(t, resp.TileURL, "https://tile.openstreetmap.org/13/")
		assert.Contains(t, resp.EmbedURL, "marker=59.43,24.75")
	})

	t.Run("Zoom override", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles/1/map?zoom=0", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[MapResponse](t, rec)
		assert.Equal(t, 0, resp.Zoom)
		assert.Equal(t, "https://tile.openstreetmap.org/0/0/0.png", resp.TileURL)
	})

	t.Run("Unparseable coordinates", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles/3/map", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_coordinates", decodeBody[store.ErrorBody](t, rec).Error)
	})

	t.Run("Unknown profile", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/directory/profiles/nope/map", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestExportHandler(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(testProfiles()...))

	rec := doRequest(t, h, http.MethodGet, "/api/admin/export.xlsx?order=desc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "profiles.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "Bob", rows[1][0])
	assert.Equal(t, "Alice", rows[2][0])
	assert.Equal(t, "alice", rows[3][0])
}
