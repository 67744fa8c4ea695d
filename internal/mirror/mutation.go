package mirror

import (
	"context"
	"errors"

	"wishlist/internal/model"

	"go.uber.org/zap"
)

var (
	ErrUnknownItem = errors.New("item is not in the list")
	ErrInFlight    = errors.New("item already has a change in flight")
	ErrNotPending  = errors.New("change is no longer pending")
)

// State is where an optimistic change is in its life:
// Idle -> Pending -> Committed | RolledBack.
type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	}
	return "idle"
}

type Kind int

const (
	KindUpdate Kind = iota
	KindDelete
)

// Mutation is one optimistic change. It is created already applied to the
// mirror; Commit sends it to the store and settles it.
type Mutation struct {
	m    *Mirror
	kind Kind
	id   int64
	msg  string

	patch  model.Patch
	before model.Item // snapshot for rollback
	index  int        // position of before when the change began

	// guarded by m.mu
	state   State
	sending bool
	err     error
}

func (mu *Mutation) ID() int64          { return mu.id }
func (mu *Mutation) Kind() Kind         { return mu.kind }
func (mu *Mutation) Patch() model.Patch { return mu.patch }

func (mu *Mutation) State() State {
	mu.m.mu.Lock()
	defer mu.m.mu.Unlock()
	return mu.state
}

// Err is the store error that caused a rollback.
func (mu *Mutation) Err() error {
	mu.m.mu.Lock()
	defer mu.m.mu.Unlock()
	return mu.err
}

// Commit sends the change to the store. On success the store's copy of the
// item replaces the optimistic one; on failure the snapshot is put back and
// the error banner is shown. Either way the item is free for the next change.
func (mu *Mutation) Commit(ctx context.Context) (model.Item, error) {
	m := mu.m

	m.mu.Lock()
	if mu.state != Pending || mu.sending {
		m.mu.Unlock()
		return model.Item{}, ErrNotPending
	}
	mu.sending = true
	m.mu.Unlock()

	var (
		res model.Item
		err error
	)
	switch mu.kind {
	case KindUpdate:
		res, err = m.remote.Update(ctx, mu.id, mu.patch)
	case KindDelete:
		err = m.remote.Delete(ctx, mu.id)
		res = mu.before
	}

	m.mu.Lock()
	delete(m.inflight, mu.id)
	mu.sending = false
	if err == nil {
		mu.state = Committed
		if i := m.index(mu.id); i >= 0 {
			switch mu.kind {
			case KindUpdate:
				m.items[i] = res
			case KindDelete:
				m.items = append(m.items[:i], m.items[i+1:]...)
			}
		}
	} else {
		mu.state = RolledBack
		mu.err = err
		m.restore(mu)
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("Change rejected, rolled back",
			zap.Int64("id", mu.id),
			zap.String("kind", mu.kindName()),
			zap.Error(err))
		m.banner.Show(mu.msg)
	}
	m.notify()
	return res, err
}

func (mu *Mutation) kindName() string {
	if mu.kind == KindDelete {
		return "delete"
	}
	return "update"
}
