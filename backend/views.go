package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/admin"
	"gitea.kood.tech/petrkubec/staff-directory/backend/directory"
	"gitea.kood.tech/petrkubec/staff-directory/backend/export"
	"gitea.kood.tech/petrkubec/staff-directory/backend/mapview"
	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// RowsResponse is a pipeline result for one screen variant.
type RowsResponse struct {
	Rows      []profile.Profile `json:"rows"`
	Total     int               `json:"total"` // len(Rows), the admin footer count
	SortLabel string            `json:"sortLabel"`
	Empty     bool              `json:"empty"`
	Message   string            `json:"message,omitempty"`
}

// MapResponse is the marker for one profile.
type MapResponse struct {
	mapview.Marker
	TileURL  string `json:"tileUrl"`
	EmbedURL string `json:"embedUrl"`
}

// GET /api/admin/profiles?search=&order=
func adminRowsHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery)
			return
		}
		list, err := s.ListAll(r.Context())
		if err != nil {
			writeStoreError(w, logger, "list", err)
			return
		}
		rows := pipeline.Apply(list, q, pipeline.Admin)
		writeJSON(w, http.StatusOK, RowsResponse{
			Rows:      rows,
			Total:     len(rows),
			SortLabel: admin.SortLabel(q.SortOrder),
			Empty:     len(rows) == 0,
		})
	}
}

// GET /api/directory/profiles?search=&interest=&sort=&order=
func directoryRowsHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery)
			return
		}
		list, err := s.ListAll(r.Context())
		if err != nil {
			writeStoreError(w, logger, "list", err)
			return
		}
		rows := pipeline.Apply(list, q, pipeline.Directory)
		resp := RowsResponse{
			Rows:      rows,
			Total:     len(rows),
			SortLabel: directory.SortLabel(q.SortOrder),
			Empty:     len(rows) == 0,
		}
		if resp.Empty {
			resp.Message = directory.EmptyMessage
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /api/directory/interests
func interestsHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.ListAll(r.Context())
		if err != nil {
			writeStoreError(w, logger, "list", err)
			return
		}
		writeJSON(w, http.StatusOK, pipeline.UniqueInterests(list))
	}
}

// GET /api/directory/profiles/{id}/map
func profileMapHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := loadProfile(r.Context(), s, mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, logger, "get", err)
			return
		}
		m, err := mapview.ForProfile(p)
		if err != nil {
			logger.Debug("profile has no usable coordinates", zap.String("id", p.ID), zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, "invalid_coordinates")
			return
		}
		if z := r.URL.Query().Get("zoom"); z != "" {
			if n, err := strconv.Atoi(z); err == nil && n >= 0 && n <= 19 {
				m.Zoom = n
			}
		}
		writeJSON(w, http.StatusOK, MapResponse{Marker: m, TileURL: m.TileURL(), EmbedURL: m.EmbedURL()})
	}
}

// GET /api/admin/export.xlsx?search=&order=
func exportHandler(svc *export.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery)
			return
		}
		b, err := svc.AdminXLSX(r.Context(), q)
		if err != nil {
			writeStoreError(w, logger, "export", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="profiles.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
