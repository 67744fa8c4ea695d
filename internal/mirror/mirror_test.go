package mirror

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wishlist/internal/model"
	"wishlist/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("simulated network error")

// fakeRemote wraps a real in-memory ItemStore and lets tests fail or hold
// individual calls.
type fakeRemote struct {
	*store.ItemStore

	mu      sync.Mutex
	failAll error
	failIDs map[int64]error
	gate    chan struct{}
	rename  string // when set, Update answers with this name
}

func newFakeRemote(t *testing.T, items ...model.Item) *fakeRemote {
	t.Helper()
	b := store.NewMemoryBackend()
	st := &model.State{Items: items}
	st.Normalize()
	require.NoError(t, b.Save(context.Background(), st))
	return &fakeRemote{
		ItemStore: store.NewItemStore(b, zap.NewNop()),
		failIDs:   map[int64]error{},
	}
}

func (f *fakeRemote) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeRemote) unhold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = nil
}

func (f *fakeRemote) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = err
}

func (f *fakeRemote) failFor(id int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failIDs[id] = err
}

func (f *fakeRemote) wait(id int64) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	return f.failIDs[id]
}

func (f *fakeRemote) List(ctx context.Context) ([]model.Item, error) {
	if err := f.wait(0); err != nil {
		return nil, err
	}
	return f.ItemStore.List(ctx)
}

func (f *fakeRemote) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	if err := f.wait(0); err != nil {
		return model.Item{}, err
	}
	return f.ItemStore.Create(ctx, d)
}

func (f *fakeRemote) Update(ctx context.Context, id int64, p model.Patch) (model.Item, error) {
	if err := f.wait(id); err != nil {
		return model.Item{}, err
	}
	f.mu.Lock()
	rename := f.rename
	f.mu.Unlock()
	if rename != "" {
		p = p.Merge(model.SetName(rename))
	}
	return f.ItemStore.Update(ctx, id, p)
}

func (f *fakeRemote) Delete(ctx context.Context, id int64) error {
	if err := f.wait(id); err != nil {
		return err
	}
	return f.ItemStore.Delete(ctx, id)
}

func loaded(t *testing.T, r store.Store, opts ...Option) *Mirror {
	t.Helper()
	m := New(r, opts...)
	require.NoError(t, m.Load(context.Background()))
	return m
}

func TestMirror_ToggleRollsBackOnFailure(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book"})
	m := loaded(t, r)
	ctx := context.Background()

	r.setFail(errBoom)
	mu, err := m.BeginToggle(1)
	require.NoError(t, err)

	// 1. Optimistic: the mirror already shows the change
	assert.Equal(t, []model.Item{{ID: 1, Name: "Book", Purchased: true}}, m.Items(model.FilterAll))
	assert.Equal(t, Pending, mu.State())
	assert.Equal(t, Pending, m.StateOf(1))

	// 2. Store refuses: back to the snapshot, banner visible
	_, err = mu.Commit(ctx)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []model.Item{{ID: 1, Name: "Book", Purchased: false}}, m.Items(model.FilterAll))
	assert.Equal(t, RolledBack, mu.State())
	assert.ErrorIs(t, mu.Err(), errBoom)
	assert.Equal(t, MsgToggle, m.Error())
	assert.Equal(t, Idle, m.StateOf(1))
}

func TestMirror_UpdateTakesStoreResponse(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book", Link: "http://b"})
	m := loaded(t, r)
	r.rename = "Book (normalized)"

	got, err := m.Update(context.Background(), 1, model.SetPurchased(true))
	require.NoError(t, err)
	assert.Equal(t, "Book (normalized)", got.Name)

	it, ok := m.Item(1)
	require.True(t, ok)
	assert.Equal(t, model.Item{ID: 1, Name: "Book (normalized)", Link: "http://b", Purchased: true}, it)
	assert.Empty(t, m.Error())
}

func TestMirror_UpdateRejectedByValidation(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book"})
	m := loaded(t, r)

	_, err := m.Update(context.Background(), 1, model.SetName(" "))
	assert.True(t, model.IsValidation(err))

	it, _ := m.Item(1)
	assert.Equal(t, "Book", it.Name)
	assert.Equal(t, MsgEdit, m.Error())
}

func TestMirror_DeleteRollbackRestoresPosition(t *testing.T) {
	r := newFakeRemote(t,
		model.Item{ID: 1, Name: "a"},
		model.Item{ID: 2, Name: "b"},
		model.Item{ID: 3, Name: "c"})
	m := loaded(t, r)

	r.failFor(2, errBoom)
	mu, err := m.BeginDelete(2)
	require.NoError(t, err)
	assert.Len(t, m.Items(model.FilterAll), 2)

	_, err = mu.Commit(context.Background())
	require.ErrorIs(t, err, errBoom)

	items := m.Items(model.FilterAll)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, MsgDelete, m.Error())
}

func TestMirror_DeleteSuccess(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"}, model.Item{ID: 2, Name: "b"})
	m := loaded(t, r)
	ctx := context.Background()

	require.NoError(t, m.Delete(ctx, 1))
	assert.Equal(t, []model.Item{{ID: 2, Name: "b"}}, m.Items(model.FilterAll))

	remote, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, remote, 1)

	assert.ErrorIs(t, m.Delete(ctx, 1), ErrUnknownItem)
}

func TestMirror_CreateWaitsForStore(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"})
	m := loaded(t, r)

	gate := r.hold()
	done := make(chan model.Item)
	go func() {
		it, err := m.Create(context.Background(), model.Draft{Name: "Book"})
		assert.NoError(t, err)
		done <- it
	}()

	// While the store has not answered, nothing is shown
	assert.Eventually(t, m.Submitting, time.Second, 5*time.Millisecond)
	assert.Len(t, m.Items(model.FilterAll), 1)

	close(gate)
	it := <-done
	assert.Equal(t, int64(2), it.ID)
	assert.False(t, m.Submitting())
	items := m.Items(model.FilterAll)
	require.Len(t, items, 2)
	assert.Equal(t, it, items[1])
}

// lateCreate writes the new item to the store at once but holds the reply.
type lateCreate struct {
	store.Store
	stored  chan struct{}
	release chan struct{}
}

func (l *lateCreate) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	it, err := l.Store.Create(ctx, d)
	close(l.stored)
	<-l.release
	return it, err
}

func TestMirror_CreateOverlappingReloadKeepsIdsUnique(t *testing.T) {
	r := &lateCreate{
		Store:   newFakeRemote(t),
		stored:  make(chan struct{}),
		release: make(chan struct{}),
	}
	m := loaded(t, r)
	ctx := context.Background()

	done := make(chan model.Item)
	go func() {
		it, err := m.Create(ctx, model.Draft{Name: "Book"})
		assert.NoError(t, err)
		done <- it
	}()

	<-r.stored
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, []model.Item{{ID: 1, Name: "Book"}}, m.Items(model.FilterAll))

	close(r.release)
	it := <-done
	assert.Equal(t, int64(1), it.ID)
	assert.Equal(t, []model.Item{{ID: 1, Name: "Book"}}, m.Items(model.FilterAll))
}

func TestMirror_ReloadDuringPendingDelete(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book"}, model.Item{ID: 2, Name: "Lamp"})
	m := loaded(t, r)
	ctx := context.Background()

	mu, err := m.BeginDelete(1)
	require.NoError(t, err)
	assert.Equal(t, KindDelete, mu.Kind())

	// the store still has item 1; the pending delete keeps it hidden
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, []model.Item{{ID: 2, Name: "Lamp"}}, m.Items(model.FilterAll))

	_, err = mu.Commit(ctx)
	require.NoError(t, err)

	remote, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote, m.Items(model.FilterAll))
}

func TestMirror_ReloadDuringPendingDeleteThenRollback(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book"}, model.Item{ID: 2, Name: "Lamp"})
	m := loaded(t, r)
	ctx := context.Background()

	mu, err := m.BeginDelete(1)
	require.NoError(t, err)
	require.NoError(t, m.Load(ctx))

	r.failFor(1, errBoom)
	_, err = mu.Commit(ctx)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []model.Item{{ID: 1, Name: "Book"}, {ID: 2, Name: "Lamp"}}, m.Items(model.FilterAll))
}

func TestMirror_ReloadKeepsPendingEdit(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "Book"})
	m := loaded(t, r)
	ctx := context.Background()

	mu, err := m.BeginUpdate(1, model.SetName("Novel"))
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, mu.Kind())
	assert.Equal(t, model.SetName("Novel"), mu.Patch())

	require.NoError(t, m.Load(ctx))
	it, ok := m.Item(1)
	require.True(t, ok)
	assert.Equal(t, "Novel", it.Name)

	_, err = mu.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{ID: 1, Name: "Novel"}}, m.Items(model.FilterAll))
}

func TestMirror_CreateFailure(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"})
	m := loaded(t, r)

	r.setFail(errBoom)
	_, err := m.Create(context.Background(), model.Draft{Name: "Book"})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, m.Items(model.FilterAll), 1)
	assert.Equal(t, MsgAdd, m.Error())
}

func TestMirror_OneChangeInFlightPerItem(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"}, model.Item{ID: 2, Name: "b"})
	m := loaded(t, r)
	ctx := context.Background()

	mu, err := m.BeginToggle(1)
	require.NoError(t, err)

	_, err = m.BeginUpdate(1, model.SetName("again"))
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = m.BeginDelete(1)
	assert.ErrorIs(t, err, ErrInFlight)

	// other items are not blocked
	other, err := m.BeginToggle(2)
	require.NoError(t, err)
	_, err = other.Commit(ctx)
	require.NoError(t, err)

	_, err = mu.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, Committed, mu.State())

	_, err = mu.Commit(ctx)
	assert.ErrorIs(t, err, ErrNotPending)

	// free again
	_, err = m.Toggle(ctx, 1)
	require.NoError(t, err)
	it, _ := m.Item(1)
	assert.False(t, it.Purchased)
}

func TestMirror_RollbackLeavesOtherPendingChanges(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"}, model.Item{ID: 2, Name: "b"})
	m := loaded(t, r)
	r.failFor(1, errBoom)

	failing, err := m.BeginToggle(1)
	require.NoError(t, err)
	pending, err := m.BeginToggle(2)
	require.NoError(t, err)

	_, err = failing.Commit(context.Background())
	require.Error(t, err)

	it2, _ := m.Item(2)
	assert.True(t, it2.Purchased, "item 2 keeps its optimistic change")
	assert.Equal(t, Pending, pending.State())

	_, err = pending.Commit(context.Background())
	require.NoError(t, err)
	it1, _ := m.Item(1)
	it2, _ = m.Item(2)
	assert.False(t, it1.Purchased)
	assert.True(t, it2.Purchased)
}

func TestMirror_UnknownItem(t *testing.T) {
	m := loaded(t, newFakeRemote(t))
	_, err := m.BeginToggle(7)
	assert.ErrorIs(t, err, ErrUnknownItem)
	_, err = m.Update(context.Background(), 7, model.SetName("x"))
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestMirror_LoadStates(t *testing.T) {
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"})
	m := New(r, WithErrorTTL(30*time.Millisecond))
	assert.False(t, m.Loaded())

	gate := r.hold()
	errc := make(chan error)
	go func() { errc <- m.Load(context.Background()) }()

	assert.Eventually(t, m.Loading, time.Second, 5*time.Millisecond)
	close(gate)
	require.NoError(t, <-errc)
	assert.False(t, m.Loading())
	assert.True(t, m.Loaded())
	assert.Len(t, m.Items(model.FilterAll), 1)

	// a failing reload keeps what we had and shows the banner, which expires
	r.unhold()
	r.setFail(errBoom)
	assert.ErrorIs(t, m.Load(context.Background()), errBoom)
	assert.Len(t, m.Items(model.FilterAll), 1)
	assert.Equal(t, MsgLoad, m.Error())
	assert.Eventually(t, func() bool { return m.Error() == "" }, time.Second, 5*time.Millisecond)
}

func TestMirror_FilterNeverTouchesStore(t *testing.T) {
	r := newFakeRemote(t,
		model.Item{ID: 1, Name: "a", Purchased: true},
		model.Item{ID: 2, Name: "b"})
	m := loaded(t, r)
	r.setFail(errBoom) // any store call would now fail

	assert.Len(t, m.Items(model.FilterAll), 2)
	assert.Equal(t, []model.Item{{ID: 1, Name: "a", Purchased: true}}, m.Items(model.FilterPurchased))
	assert.Equal(t, []model.Item{{ID: 2, Name: "b"}}, m.Items(model.FilterUnpurchased))
	assert.Empty(t, m.Error())
}

func TestMirror_OnChangeFires(t *testing.T) {
	var n atomic.Int32
	r := newFakeRemote(t, model.Item{ID: 1, Name: "a"})
	m := loaded(t, r, WithOnChange(func() { n.Add(1) }))

	before := n.Load()
	_, err := m.Toggle(context.Background(), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n.Load()-before, int32(2), "begin and commit both notify")
}
