package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

func TestDataLoaderBatching(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore(testProfiles()...)}
	dl := NewDataLoaders(cs)
	ctx := context.Background()

	// Thunks issued together share one listing
	thunks := make([]func() (profile.Profile, error), 0, 3)
	for _, id := range []string{"1", "2", "3"} {
		thunks = append(thunks, dl.ProfileLoader.Load(ctx, id))
	}
	got := make([]profile.Profile, len(thunks))
	errs := make([]error, len(thunks))
	for i, thunk := range thunks {
		got[i], errs[i] = thunk()
	}

	for i := range errs {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, "Bob", got[0].Name)
	assert.Equal(t, "Alice", got[1].Name)
	assert.Equal(t, "alice", got[2].Name)
	assert.Equal(t, int32(1), cs.lists.Load(), "Expected one ListAll for the whole batch")
}

func TestDataLoaderMissingID(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore(testProfiles()...)}
	dl := NewDataLoaders(cs)

	ps, errs := dl.ProfileLoader.LoadMany(context.Background(), []string{"1", "nope"})()
	require.Len(t, ps, 2)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], store.ErrNotFound)
	assert.Equal(t, int32(1), cs.lists.Load())
}

func TestDataLoaderStoreFailure(t *testing.T) {
	dl := NewDataLoaders(downStore{})

	_, err := dl.ProfileLoader.Load(context.Background(), "1")()
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestLoadProfileWithoutLoader(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore(testProfiles()...)}

	p, err := loadProfile(context.Background(), cs, "2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	_, err = loadProfile(context.Background(), cs, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDataLoaderMiddleware(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore(testProfiles()...)}

	var seen *DataLoaders
	h := DataLoaderMiddleware(cs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetDataLoadersFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	first := seen

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotSame(t, first, seen, "Expected fresh loaders per request")
	assert.Nil(t, GetDataLoadersFromContext(context.Background()))
}

func TestBatchProfileLookup(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore(testProfiles()...)}
	h := newTestRouter(t, cs)

	rec := doRequest(t, h, http.MethodGet, "/api/profiles?ids=3,%201,3,", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decodeBody[[]profile.Profile](t, rec)
	assert.Equal(t, []string{"3", "1", "3"}, rowIDs(list))
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)
	assert.Equal(t, int32(1), cs.lists.Load(), "Expected the ids to share one listing")

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"Unknown id", "?ids=1,nope", http.StatusNotFound, codeNotFound},
		{"Blank list", "?ids=,%20", http.StatusBadRequest, codeInvalidQuery},
		{"Too many ids", "?ids=" + strings.Repeat("1,", maxBatchIDs+1), http.StatusBadRequest, codeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, "/api/profiles"+tt.query, nil)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody[store.ErrorBody](t, rec).Error)
		})
	}

	t.Run("Store down", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(t, downStore{}), http.MethodGet, "/api/profiles?ids=1", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
