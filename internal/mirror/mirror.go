// Package mirror keeps a client-side copy of the wishlist in step with the
// store.
//
// Updates, toggles and deletes are optimistic: they show up locally at once
// and are undone if the store refuses them. Creates wait for the store,
// because only the store can hand out ids.
package mirror

import (
	"context"
	"sync"
	"time"

	"wishlist/internal/model"
	"wishlist/internal/store"

	"go.uber.org/zap"
)

// User-facing messages shown in the error banner.
const (
	MsgLoad   = "Could not load the list. Check that the server is running."
	MsgAdd    = "Could not add the item. Try again."
	MsgDelete = "Could not delete the item. Restoring list."
	MsgEdit   = "Could not save changes. Restoring item."
	MsgToggle = "Could not update the item. The change was undone."
)

type Mirror struct {
	remote   store.Store
	logger   *zap.Logger
	banner   *Banner
	onChange func()
	errorTTL time.Duration

	mu         sync.Mutex
	items      []model.Item
	loading    bool
	loaded     bool
	submitting int
	inflight   map[int64]*Mutation
}

type Option func(*Mirror)

func WithLogger(l *zap.Logger) Option {
	return func(m *Mirror) { m.logger = l }
}

func WithErrorTTL(d time.Duration) Option {
	return func(m *Mirror) { m.errorTTL = d }
}

// WithOnChange registers a callback fired after every visible change,
// including the banner expiring. It runs without any mirror lock held.
func WithOnChange(fn func()) Option {
	return func(m *Mirror) { m.onChange = fn }
}

func New(remote store.Store, opts ...Option) *Mirror {
	m := &Mirror{
		remote:   remote,
		logger:   zap.NewNop(),
		onChange: func() {},
		errorTTL: DefaultErrorTTL,
		items:    []model.Item{},
		inflight: make(map[int64]*Mutation),
	}
	for _, o := range opts {
		o(m)
	}
	m.banner = NewBanner(m.errorTTL, m.notify)
	return m
}

// Load replaces the mirror with the store's full collection.
func (m *Mirror) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	m.banner.Dismiss()
	m.notify()

	items, err := m.remote.List(ctx)

	m.mu.Lock()
	m.loading = false
	if err == nil {
		m.items = cloneItems(items)
		m.reapplyPending()
		m.loaded = true
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("Failed to load items", zap.Error(err))
		m.banner.Show(MsgLoad)
	}
	m.notify()
	return err
}

// Create asks the store for a new item and appends it only once confirmed.
func (m *Mirror) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	m.banner.Dismiss()
	m.mu.Lock()
	m.submitting++
	m.mu.Unlock()
	m.notify()

	it, err := m.remote.Create(ctx, d)

	m.mu.Lock()
	m.submitting--
	if err == nil {
		// a reload may already have brought the new item in
		if i := m.index(it.ID); i >= 0 {
			m.items[i] = it
		} else {
			m.items = append(m.items, it)
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("Failed to add item", zap.Error(err))
		m.banner.Show(MsgAdd)
	} else {
		m.logger.Debug("Item added", zap.Int64("id", it.ID))
	}
	m.notify()
	return it, err
}

// BeginUpdate applies p to the local item and returns the pending change.
func (m *Mirror) BeginUpdate(id int64, p model.Patch) (*Mutation, error) {
	return m.begin(KindUpdate, id, MsgEdit, func(model.Item) model.Patch { return p })
}

// BeginToggle flips purchased on the local item.
func (m *Mirror) BeginToggle(id int64) (*Mutation, error) {
	return m.begin(KindUpdate, id, MsgToggle, func(cur model.Item) model.Patch {
		return model.SetPurchased(!cur.Purchased)
	})
}

// BeginDelete removes the local item.
func (m *Mirror) BeginDelete(id int64) (*Mutation, error) {
	return m.begin(KindDelete, id, MsgDelete, nil)
}

func (m *Mirror) Update(ctx context.Context, id int64, p model.Patch) (model.Item, error) {
	mu, err := m.BeginUpdate(id, p)
	if err != nil {
		return model.Item{}, err
	}
	return mu.Commit(ctx)
}

func (m *Mirror) Toggle(ctx context.Context, id int64) (model.Item, error) {
	mu, err := m.BeginToggle(id)
	if err != nil {
		return model.Item{}, err
	}
	return mu.Commit(ctx)
}

func (m *Mirror) Delete(ctx context.Context, id int64) error {
	mu, err := m.BeginDelete(id)
	if err != nil {
		return err
	}
	_, err = mu.Commit(ctx)
	return err
}

func (m *Mirror) begin(kind Kind, id int64, msg string, patchFor func(model.Item) model.Patch) (*Mutation, error) {
	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		return nil, ErrUnknownItem
	}
	if _, busy := m.inflight[id]; busy {
		m.mu.Unlock()
		return nil, ErrInFlight
	}

	mu := &Mutation{
		m:      m,
		kind:   kind,
		id:     id,
		msg:    msg,
		before: m.items[i],
		index:  i,
		state:  Pending,
	}
	switch kind {
	case KindUpdate:
		mu.patch = patchFor(m.items[i])
		m.items[i] = m.items[i].Apply(mu.patch)
	case KindDelete:
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	m.inflight[id] = mu
	m.mu.Unlock()

	m.notify()
	return mu, nil
}

// reapplyPending lays changes still in flight over a freshly loaded list, so
// a reload neither resurrects a pending delete nor hides a pending edit.
// Caller holds m.mu.
func (m *Mirror) reapplyPending() {
	for id, mu := range m.inflight {
		i := m.index(id)
		if i < 0 {
			continue
		}
		switch mu.kind {
		case KindUpdate:
			m.items[i] = m.items[i].Apply(mu.patch)
		case KindDelete:
			m.items = append(m.items[:i], m.items[i+1:]...)
		}
	}
}

// restore puts a mutation's snapshot back. Only that one item is touched, so
// changes still pending on other items survive. Caller holds m.mu.
func (m *Mirror) restore(mu *Mutation) {
	if i := m.index(mu.id); i >= 0 {
		m.items[i] = mu.before
		return
	}
	at := mu.index
	if at > len(m.items) {
		at = len(m.items)
	}
	m.items = append(m.items, model.Item{})
	copy(m.items[at+1:], m.items[at:])
	m.items[at] = mu.before
}

// Items returns a copy of the mirrored items that pass f.
func (m *Mirror) Items(f model.Filter) []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f.Apply(m.items)
}

func (m *Mirror) Item(id int64) (model.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		return m.items[i], true
	}
	return model.Item{}, false
}

// StateOf reports Pending while id has a change in flight, Idle otherwise.
func (m *Mirror) StateOf(id int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inflight[id]; ok {
		return Pending
	}
	return Idle
}

func (m *Mirror) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Mirror) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *Mirror) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitting > 0
}

// Error is the message currently in the banner, or "".
func (m *Mirror) Error() string { return m.banner.Message() }

func (m *Mirror) DismissError() { m.banner.Dismiss() }

func (m *Mirror) index(id int64) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Mirror) notify() {
	m.onChange()
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	return out
}
