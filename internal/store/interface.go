package store

import (
	"context"
	"errors"

	"wishlist/internal/model"
)

var (
	ErrNotFound = errors.New("item not found")

	// ErrNoState is returned by a Backend that has never been saved to.
	ErrNoState = errors.New("no stored state")
)

// Store is the item collection contract shared by the server-side ItemStore
// and the HTTP client the mirror talks to.
type Store interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, d model.Draft) (model.Item, error)
	Update(ctx context.Context, id int64, p model.Patch) (model.Item, error)
	Delete(ctx context.Context, id int64) error
}

// Backend persists the whole State as one record. Save always overwrites
// everything that was there before.
type Backend interface {
	Load(ctx context.Context) (*model.State, error)
	Save(ctx context.Context, st *model.State) error
	Close() error
}
