// Package store is the boundary to the document collection holding profiles.
//
// Every backend speaks the same four operations. Failures are reported with
// the sentinels below so screens and handlers can branch with errors.Is:
//   - ErrNotFound: the id is not in the collection (update/delete only)
//   - ErrUnavailable: anything that went wrong talking to the backend
package store

import (
	"context"
	"errors"
	"fmt"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// CollectionName is the collection every screen reads and writes.
const CollectionName = "profiles"

var (
	ErrNotFound    = errors.New("profile not found")
	ErrUnavailable = errors.New("profile store unavailable")
)

// ProfileStore is the list/insert/update/delete contract of the managed collection.
type ProfileStore interface {
	// ListAll returns every profile with its id, in collection order.
	ListAll(ctx context.Context) ([]profile.Profile, error)
	// Insert stores fields as a new record and returns it with the assigned id.
	Insert(ctx context.Context, fields profile.Profile) (profile.Profile, error)
	// UpdateByID replaces every field of the record with id.
	UpdateByID(ctx context.Context, id string, fields profile.Profile) error
	// DeleteByID removes the record with id.
	DeleteByID(ctx context.Context, id string) error
}

// Backend is a ProfileStore holding resources that must be released.
type Backend interface {
	ProfileStore
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
