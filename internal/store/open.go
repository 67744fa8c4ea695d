package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindMemory = "memory"
	KindBadger = "badger"
	KindRedis  = "redis"
	KindSQLite = "sqlite"
)

var kinds = []string{KindFile, KindMemory, KindBadger, KindRedis, KindSQLite}

func Kinds() []string { return append([]string(nil), kinds...) }

func ValidKind(kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Kind      string
	Path      string // file, badger directory or sqlite database
	RedisAddr string
}

// OpenBackend constructs the backend named by opts.Kind.
func OpenBackend(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	switch opts.Kind {
	case KindFile, "":
		return NewFileBackend(opts.Path), nil
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindBadger:
		return NewBadgerBackend(opts.Path, logger)
	case KindRedis:
		return NewRedisBackend(ctx, opts.RedisAddr)
	case KindSQLite:
		return NewSQLiteBackend(ctx, opts.Path)
	}
	return nil, fmt.Errorf("unknown backend %q", opts.Kind)
}

// Open builds an initialized ItemStore over the configured backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*ItemStore, error) {
	b, err := OpenBackend(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	s := NewItemStore(b, logger)
	if err := s.Init(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return s, nil
}
