package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// HTTPStore talks to the backend's /api/profiles endpoints. It is what the
// terminal client uses as its managed collection.
type HTTPStore struct {
	base   string
	client *http.Client
}

// ErrorBody is the JSON error payload the backend writes.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewHTTPStore creates a client for the API rooted at baseURL.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{base: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPStore) endpoint(id string) string {
	if id == "" {
		return s.base + "/api/profiles"
	}
	return s.base + "/api/profiles/" + url.PathEscape(id)
}

func (s *HTTPStore) do(ctx context.Context, op, method, id string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(id), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return unavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb ErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		switch {
		case resp.StatusCode == http.StatusNotFound && id != "":
			return notFound(id)
		case resp.StatusCode == http.StatusBadRequest && eb.Field != "":
			return &profile.ValidationError{Field: eb.Field, Message: "is required"}
		default:
			return unavailable(op, fmt.Errorf("status %d: %s", resp.StatusCode, eb.Error))
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (s *HTTPStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	out := []profile.Profile{}
	if err := s.do(ctx, "list", http.MethodGet, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPStore) Insert(ctx context.Context, fields profile.Profile) (profile.Profile, error) {
	var created profile.Profile
	if err := s.do(ctx, "insert", http.MethodPost, "", fields.Fields(), &created); err != nil {
		return profile.Profile{}, err
	}
	return created, nil
}

func (s *HTTPStore) UpdateByID(ctx context.Context, id string, fields profile.Profile) error {
	return s.do(ctx, "update", http.MethodPut, id, fields.Fields(), nil)
}

func (s *HTTPStore) DeleteByID(ctx context.Context, id string) error {
	return s.do(ctx, "delete", http.MethodDelete, id, nil, nil)
}

// Close is a no-op.
func (s *HTTPStore) Close() error { return nil }
