package store

import (
	"context"
	"sync"

	"wishlist/internal/model"
)

// MemoryBackend keeps a private copy of the state. Nothing survives a restart.
type MemoryBackend struct {
	mu    sync.Mutex
	state *model.State
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(_ context.Context) (*model.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil {
		return nil, ErrNoState
	}
	return b.state.Clone(), nil
}

func (b *MemoryBackend) Save(_ context.Context, st *model.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = st.Clone()
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
