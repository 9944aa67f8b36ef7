package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/pipeline"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/schema"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// Error codes written in the "error" field of error responses.
const (
	codeInvalidJSON      = "invalid_json"
	codeInvalidPayload   = "invalid_payload"
	codeInvalidQuery     = "invalid_query"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeStoreUnavailable = "store_unavailable"
	codeInternal         = "internal_error"
)

const maxBodyBytes = 1 << 20

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, store.ErrorBody{Error: code})
}

func writeFieldError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, store.ErrorBody{Error: code, Field: field})
}

// writeStoreError maps a store or validation failure to its status code and
// logs it.
func writeStoreError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFieldError(w, http.StatusBadRequest, codeValidationFailed, verr.Field)
	case errors.Is(err, store.ErrNotFound):
		logger.Info("profile not found", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusNotFound, codeNotFound)
	case errors.Is(err, store.ErrUnavailable):
		logger.Error("profile store unavailable", zap.String("op", op), zap.String("collection", store.CollectionName), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable)
	default:
		logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal)
	}
}

// decodeProfile reads and validates a profile body. It writes the error
// response itself and reports whether the caller may continue.
func decodeProfile(w http.ResponseWriter, r *http.Request) (profile.Profile, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON)
		return profile.Profile{}, false
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, codeInvalidJSON)
		return profile.Profile{}, false
	}

	p, err := schema.ValidateProfileJSON(body)
	if err != nil {
		var (
			verr *profile.ValidationError
			serr *schema.Error
		)
		switch {
		case errors.As(err, &verr):
			writeFieldError(w, http.StatusBadRequest, codeValidationFailed, verr.Field)
		case errors.As(err, &serr):
			writeFieldError(w, http.StatusBadRequest, codeInvalidPayload, serr.Field)
		default:
			writeError(w, http.StatusInternalServerError, codeInternal)
		}
		return profile.Profile{}, false
	}
	return p.Fields(), true
}

// parseQuery reads search, interest, sort and order parameters.
func parseQuery(r *http.Request) (pipeline.Query, error) {
	v := r.URL.Query()
	q := pipeline.DefaultQuery()
	q.Search = v.Get("search")
	q.Interest = v.Get("interest")
	if s := v.Get("sort"); s != "" {
		q.SortField = pipeline.SortField(s)
	}
	switch order := pipeline.SortOrder(v.Get("order")); order {
	case "":
	case pipeline.Asc, pipeline.Desc:
		q.SortOrder = order
	default:
		return q, errors.New("order must be asc or desc")
	}
	return q, nil
}
