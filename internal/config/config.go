package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"wishlist/internal/store"
)

// Config holds every setting the server and the client commands read.
type Config struct {
	Addr           string
	Backend        string
	DataPath       string
	RedisAddr      string
	ServerURL      string
	ErrorTTL       time.Duration
	RequestTimeout time.Duration
	LogJSON        bool
}

func Default() Config {
	return Config{
		Addr:           ":3002",
		Backend:        store.KindFile,
		DataPath:       "db.json",
		RedisAddr:      "localhost:6379",
		ServerURL:      "http://localhost:3002",
		ErrorTTL:       5 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// FromEnv overlays WISHLIST_* environment variables on c. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("WISHLIST_ADDR", &c.Addr)
	str("WISHLIST_BACKEND", &c.Backend)
	str("WISHLIST_DATA", &c.DataPath)
	str("WISHLIST_REDIS", &c.RedisAddr)
	str("WISHLIST_URL", &c.ServerURL)
	if v, ok := lookup("WISHLIST_LOG_JSON"); ok {
		c.LogJSON = v == "1" || strings.EqualFold(v, "true")
	}
	if err := dur("WISHLIST_ERROR_TTL", &c.ErrorTTL); err != nil {
		return err
	}
	return dur("WISHLIST_TIMEOUT", &c.RequestTimeout)
}

func (c Config) Validate() error {
	var errs []error
	if !store.ValidKind(c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q: want one of %s", c.Backend, strings.Join(store.Kinds(), ", ")))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server url is empty"))
	}
	if c.ErrorTTL <= 0 {
		errs = append(errs, errors.New("error ttl must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}

// StoreOptions maps the config onto store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Kind:      c.Backend,
		Path:      c.DataPath,
		RedisAddr: c.RedisAddr,
	}
}
