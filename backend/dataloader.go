package main

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// DataLoaders holds the per-request loaders
type DataLoaders struct {
	ProfileLoader *dataloader.Loader[string, profile.Profile]
}

// NewDataLoaders creates new dataloaders backed by the profile store
func NewDataLoaders(s store.ProfileStore) *DataLoaders {
	return &DataLoaders{
		ProfileLoader: dataloader.NewBatchedLoader(profileBatchFn(s), dataloader.WithWait[string, profile.Profile](2*time.Millisecond)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

// profileBatchFn resolves a batch of ids with a single ListAll. The store
// contract has no get-by-id, so every lookup in the batch shares one listing.
func profileBatchFn(s store.ProfileStore) dataloader.BatchFunc[string, profile.Profile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[profile.Profile] {
		results := make([]*dataloader.Result[profile.Profile], len(keys))
		if len(keys) == 0 {
			return results
		}

		list, err := s.ListAll(ctx)
		if err != nil {
			// Set error for all results
			for i := range results {
				results[i] = &dataloader.Result[profile.Profile]{Error: err}
			}
			return results
		}

		byID := make(map[string]profile.Profile, len(list))
		for _, p := range list {
			byID[p.ID] = p
		}
		for i, key := range keys {
			p, ok := byID[key]
			if !ok {
				results[i] = &dataloader.Result[profile.Profile]{Error: store.ErrNotFound}
				continue
			}
			results[i] = &dataloader.Result[profile.Profile]{Data: p}
		}
		return results
	}
}

// loadProfile fetches one profile through the request's loader, falling back
// to a direct listing when no loader is installed.
func loadProfile(ctx context.Context, s store.ProfileStore, id string) (profile.Profile, error) {
	if dl := GetDataLoadersFromContext(ctx); dl != nil {
		return dl.ProfileLoader.Load(ctx, id)()
	}
	results := profileBatchFn(s)(ctx, []string{id})
	return results[0].Data, results[0].Error
}

// loadProfiles resolves ids in order. Every thunk is issued before the first
// is awaited, so the ids share one batch and repeated ids resolve once.
func loadProfiles(ctx context.Context, s store.ProfileStore, ids []string) ([]profile.Profile, error) {
	dl := GetDataLoadersFromContext(ctx)
	if dl == nil {
		dl = NewDataLoaders(s)
	}
	thunks := make([]dataloader.Thunk[profile.Profile], len(ids))
	for i, id := range ids {
		thunks[i] = dl.ProfileLoader.Load(ctx, id)
	}

	out := make([]profile.Profile, len(ids))
	for i, thunk := range thunks {
		p, err := thunk()
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", ids[i], err)
		}
		out[i] = p
	}
	return out, nil
}
