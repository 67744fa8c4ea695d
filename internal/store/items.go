package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wishlist/internal/model"

	"go.uber.org/zap"
)

// ItemStore implements Store on top of any Backend. Every mutation loads the
// full state, changes it in memory and writes the full state back before
// returning. A crash between load and save loses that one change but never
// leaves a half-written record behind.
type ItemStore struct {
	backend Backend
	logger  *zap.Logger

	// serializes read-modify-write inside this process; separate processes
	// sharing a backend still race, last writer wins
	mu sync.Mutex
}

func NewItemStore(b Backend, logger *zap.Logger) *ItemStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemStore{backend: b, logger: logger}
}

// Init seeds the backend the first time it is used. A backend that already
// holds state, even an empty list, is left alone.
func (s *ItemStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.backend.Load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNoState) {
		return fmt.Errorf("load state: %w", err)
	}

	seed := model.SeedState()
	if err := s.backend.Save(ctx, seed); err != nil {
		return fmt.Errorf("seed state: %w", err)
	}
	s.logger.Info("No stored state found, seeded initial items",
		zap.Int("items", len(seed.Items)),
		zap.Int64("next_id", seed.NextID))
	return nil
}

func (s *ItemStore) Close() error {
	return s.backend.Close()
}

func (s *ItemStore) List(ctx context.Context) ([]model.Item, error) {
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Items, nil
}

func (s *ItemStore) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	if err := d.Validate(); err != nil {
		return model.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return model.Item{}, err
	}
	it := st.Add(d)
	if err := s.save(ctx, st); err != nil {
		return model.Item{}, err
	}

	s.logger.Debug("Item created", zap.Int64("id", it.ID), zap.String("name", it.Name))
	return it, nil
}

// Update looks the item up before validating the patch, so an unknown id is
// reported as not found even when the patch is also malformed.
func (s *ItemStore) Update(ctx context.Context, id int64, p model.Patch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return model.Item{}, err
	}
	i := st.Index(id)
	if i < 0 {
		return model.Item{}, ErrNotFound
	}
	if err := p.Validate(); err != nil {
		return model.Item{}, err
	}

	st.Items[i] = st.Items[i].Apply(p)
	if err := s.save(ctx, st); err != nil {
		return model.Item{}, err
	}

	s.logger.Debug("Item updated", zap.Int64("id", id))
	return st.Items[i], nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !st.Remove(id) {
		return ErrNotFound
	}
	if err := s.save(ctx, st); err != nil {
		return err
	}

	s.logger.Debug("Item deleted", zap.Int64("id", id))
	return nil
}

func (s *ItemStore) load(ctx context.Context) (*model.State, error) {
	st, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoState) {
		// Init was skipped; behave as an empty, never-seeded store
		st, err = &model.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	st.Normalize()
	return st, nil
}

func (s *ItemStore) save(ctx context.Context, st *model.State) error {
	if err := s.backend.Save(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
