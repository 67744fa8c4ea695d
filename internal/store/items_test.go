package store

import (
	"context"
	"errors"
	"testing"

	"wishlist/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeededStore(t *testing.T) (*ItemStore, *MemoryBackend) {
	t.Helper()
	b := NewMemoryBackend()
	s := NewItemStore(b, zap.NewNop())
	require.NoError(t, s.Init(context.Background()))
	return s, b
}

func TestItemStore_InitSeedsOnce(t *testing.T) {
	s, b := newSeededStore(t)
	ctx := context.Background()

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)

	// Empty the list, then Init again: it must not re-seed
	require.NoError(t, s.Delete(ctx, 1))
	require.NoError(t, s.Delete(ctx, 2))
	require.NoError(t, s.Init(ctx))

	items, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	st, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.NextID)
}

func TestItemStore_CreateRejectsEmptyName(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, model.Draft{Name: name})
		assert.True(t, model.IsValidation(err), "name %q", name)
	}

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2, "collection must be unchanged")

	// The counter must not have moved either
	it, err := s.Create(ctx, model.Draft{Name: "Book"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), it.ID)
}

func TestItemStore_CreateAssignsIncreasingIDs(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	var last int64 = 2
	for i := 0; i < 10; i++ {
		it, err := s.Create(ctx, model.Draft{Name: "thing", Link: "whatever"})
		require.NoError(t, err)
		assert.Equal(t, last+1, it.ID)
		assert.False(t, seen[it.ID])
		assert.False(t, it.Purchased)
		assert.Equal(t, "whatever", it.Link)
		seen[it.ID] = true
		last = it.ID
	}

	// Deleting the newest item does not recycle its id
	require.NoError(t, s.Delete(ctx, last))
	it, err := s.Create(ctx, model.Draft{Name: "after delete"})
	require.NoError(t, err)
	assert.Equal(t, last+1, it.ID)
}

func TestItemStore_UpdateUnknownID(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	before, err := s.List(ctx)
	require.NoError(t, err)

	_, err = s.Update(ctx, 99, model.SetPurchased(true))
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestItemStore_UpdateUnknownIDWinsOverBadPatch(t *testing.T) {
	s, _ := newSeededStore(t)
	_, err := s.Update(context.Background(), 99, model.SetName(""))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemStore_UpdateIsPartial(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	orig, err := s.Create(ctx, model.Draft{Name: "Lamp", Link: "http://lamp"})
	require.NoError(t, err)

	got, err := s.Update(ctx, orig.ID, model.SetPurchased(true))
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)
	assert.Equal(t, "http://lamp", got.Link)
	assert.True(t, got.Purchased)

	got, err = s.Update(ctx, orig.ID, model.SetName("Desk lamp"))
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", got.Name)
	assert.Equal(t, "http://lamp", got.Link)
	assert.True(t, got.Purchased, "purchased must survive a name edit")

	got, err = s.Update(ctx, orig.ID, model.SetLink("not even a url"))
	require.NoError(t, err)
	assert.Equal(t, "not even a url", got.Link)
}

func TestItemStore_UpdateRejectsBlankName(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, 1, model.SetName("  ").Merge(model.SetPurchased(true)))
	assert.True(t, model.IsValidation(err))

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.False(t, items[0].Purchased, "a rejected patch applies nothing")
	assert.NotEmpty(t, items[0].Name)
}

func TestItemStore_DeleteTwice(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 1))
	assert.ErrorIs(t, s.Delete(ctx, 1), ErrNotFound)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

type failingBackend struct {
	*MemoryBackend
	failSave bool
}

func (f *failingBackend) Save(ctx context.Context, st *model.State) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(ctx, st)
}

func TestItemStore_SaveFailureLeavesStateUntouched(t *testing.T) {
	fb := &failingBackend{MemoryBackend: NewMemoryBackend()}
	s := NewItemStore(fb, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	fb.failSave = true
	_, err := s.Create(ctx, model.Draft{Name: "Book"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	err = s.Delete(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	fb.failSave = false
	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestItemStore_WithoutInitStartsEmpty(t *testing.T) {
	s := NewItemStore(NewMemoryBackend(), nil)
	ctx := context.Background()

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	it, err := s.Create(ctx, model.Draft{Name: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), it.ID)
}
