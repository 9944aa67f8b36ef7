package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"gitea.kood.tech/petrkubec/staff-directory/backend/config"
	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

var testOrigins = []string{"http://localhost:5173", "http://localhost:3001"}

// Test helper structures and types
func testProfiles() []profile.Profile {
	return []profile.Profile{
		{ID: "1", Name: "Bob", PhotographURL: "http://img/bob.png", Description: "backend", Longitude: "24.75", Latitude: "59.43", ContactInfo: "bob@example.com", Interest: "Art"},
		{ID: "2", Name: "Alice", PhotographURL: "http://img/alice.png", Description: "likes art history", Longitude: "-0.12", Latitude: "51.5", ContactInfo: "alice@example.com", Interest: "Tech"},
		{ID: "3", Name: "alice", PhotographURL: "http://img/a.png", Description: "design", Longitude: "north", Latitude: "", ContactInfo: "a@example.com", Interest: "Art"},
	}
}

func validBody() map[string]string {
	return map[string]string{
		"name":          "Zed",
		"photographUrl": "http://img/zed.png",
		"description":   "new hire",
		"longitude":     "24.7",
		"latitude":      "59.4",
		"contactInfo":   "zed@example.com",
		"interest":      "Chess",
	}
}

// countingStore counts ListAll calls.
type countingStore struct {
	*store.MemoryStore
	lists atomic.Int32
}

func (c *countingStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	c.lists.Add(1)
	return c.MemoryStore.ListAll(ctx)
}

// downStore fails every call the way an unreachable backend does.
type downStore struct{}

func (downStore) ListAll(context.Context) ([]profile.Profile, error) {
	return nil, fmt.Errorf("%w: connection refused", store.ErrUnavailable)
}

func (downStore) Insert(context.Context, profile.Profile) (profile.Profile, error) {
	return profile.Profile{}, fmt.Errorf("%w: connection refused", store.ErrUnavailable)
}

func (downStore) UpdateByID(context.Context, string, profile.Profile) error {
	return fmt.Errorf("%w: connection refused", store.ErrUnavailable)
}

func (downStore) DeleteByID(context.Context, string) error {
	return fmt.Errorf("%w: connection refused", store.ErrUnavailable)
}

func newTestRouter(t *testing.T, s store.ProfileStore) http.Handler {
	t.Helper()
	return newRouter(s, newHub(), testOrigins, zaptest.NewLogger(t))
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNewLogger(t *testing.T) {
	t.Run("Production level from config", func(t *testing.T) {
		l, err := newLogger(config.LogConfig{Level: "warn"}, false)
		if err != nil {
			t.Fatalf("newLogger: %v", err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) {
			t.Error("Expected info to be disabled at warn level")
		}
		if !l.Core().Enabled(zapcore.WarnLevel) {
			t.Error("Expected warn to be enabled")
		}
	})

	t.Run("Verbose forces debug", func(t *testing.T) {
		l, err := newLogger(config.LogConfig{Level: "error", Development: true}, true)
		if err != nil {
			t.Fatalf("newLogger: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Error("Expected debug to be enabled with verbose")
		}
	})

	t.Run("Unknown level", func(t *testing.T) {
		if _, err := newLogger(config.LogConfig{Level: "chatty"}, false); err == nil {
			t.Error("Expected an error for an unknown level")
		}
	})
}
