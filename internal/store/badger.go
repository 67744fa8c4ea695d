package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wishlist/internal/model"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const stateKey = "wishlist:state"

const badgerGCInterval = 5 * time.Minute

// BadgerBackend stores the snapshot under a single key in an embedded
// BadgerDB. Pass path "" or ":memory:" for an in-memory database.
type BadgerBackend struct {
	db     *badger.DB
	logger *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewBadgerBackend(path string, logger *zap.Logger) (*BadgerBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	inMemory := path == "" || path == ":memory:"
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Silence default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	b := &BadgerBackend{db: db, logger: logger, stop: make(chan struct{})}
	if !inMemory {
		b.wg.Add(1)
		go b.gcLoop(badgerGCInterval)
	}
	return b, nil
}

// gcLoop reclaims value log space until Close is called.
func (b *BadgerBackend) gcLoop(every time.Duration) {
	defer b.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-t.C:
			err := b.db.RunValueLogGC(0.7)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				b.logger.Warn("Badger value log GC failed", zap.Error(err))
			}
		}
	}
}

func (b *BadgerBackend) Load(_ context.Context) (*model.State, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("badger read: %w", err)
	}
	return decodeState(data)
}

func (b *BadgerBackend) Save(_ context.Context, st *model.State) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKey), data)
	})
	if err != nil {
		return fmt.Errorf("badger write: %w", err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	close(b.stop)
	b.wg.Wait()
	return b.db.Close()
}
