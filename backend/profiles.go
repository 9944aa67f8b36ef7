package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

const maxBatchIDs = 100

// GET /api/profiles and GET /api/profiles?ids=a,b,c
func listProfilesHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("ids") {
			ids, ok := parseIDs(r.URL.Query().Get("ids"))
			if !ok {
				writeError(w, http.StatusBadRequest, codeInvalidQuery)
				return
			}
			list, err := loadProfiles(r.Context(), s, ids)
			if err != nil {
				writeStoreError(w, logger, "batch get", err)
				return
			}
			writeJSON(w, http.StatusOK, list)
			return
		}

		list, err := s.ListAll(r.Context())
		if err != nil {
			writeStoreError(w, logger, "list", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /api/profiles
func createProfileHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		created, err := s.Insert(r.Context(), fields)
		if err != nil {
			writeStoreError(w, logger, "insert", err)
			return
		}
		logger.Info("profile created", zap.String("id", created.ID))
		writeJSON(w, http.StatusCreated, created)
	}
}

// GET /api/profiles/{id}
func getProfileHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := loadProfile(r.Context(), s, mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, logger, "get", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// PUT /api/profiles/{id} replaces the whole record.
func updateProfileHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		fields, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		if err := s.UpdateByID(r.Context(), id, fields); err != nil {
			writeStoreError(w, logger, "update", err)
			return
		}
		logger.Info("profile updated", zap.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /api/profiles/{id}
func deleteProfileHandler(s store.ProfileStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.DeleteByID(r.Context(), id); err != nil {
			writeStoreError(w, logger, "delete", err)
			return
		}
		logger.Info("profile deleted", zap.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseIDs splits a comma separated id list. Blank entries are dropped.
func parseIDs(raw string) ([]string, bool) {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, len(ids) > 0 && len(ids) <= maxBatchIDs
}
