package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/params"
)

const (
	BackendValkey = "valkey"
	BackendBadger = "badger"
)

// Store is a key-value store holding secret values.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// does not exist.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Lister is implemented by stores able to enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// New opens the store selected by cfg.Backend.
func New(cfg config.Lookup, metrics *metrics.Metrics) (Store, error) {
	switch cfg.Backend {
	case BackendValkey:
		return NewValkey(cfg, metrics)
	case BackendBadger:
		return NewBadger(cfg.Path, metrics)
	case "":
		return nil, fmt.Errorf("no lookup backend configured")
	}
	return nil, fmt.Errorf("unsupported lookup backend: %s (supported: %s, %s)", cfg.Backend, BackendValkey, BackendBadger)
}

// Lookup fetches keys in order. Missing keys yield an empty string; any store
// error aborts the lookup.
func Lookup(ctx context.Context, store Store, keys ...string) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		value, found, err := store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}
		if !found {
			slog.Debug("Lookup key not found", "key", key)
		}
		out = append(out, value)
	}
	return out, nil
}

// Resolver fills secret parameters of connections from a store.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve sets every parameter listed in conn.Secrets to the value of its
// store key. An empty or missing value is an error.
func (r *Resolver) Resolve(ctx context.Context, conn *params.Connection) error {
	paths := make([]string, 0, len(conn.Secrets))
	for path := range conn.Secrets {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	keys := make([]string, len(paths))
	for i, path := range paths {
		keys[i] = conn.Secrets[path]
	}
	values, err := Lookup(ctx, r.store, keys...)
	if err != nil {
		return err
	}

	for i, path := range paths {
		if values[i] == "" {
			return fmt.Errorf("connection %q: no value for %s under key %q", conn.Name, path, keys[i])
		}
		if err := conn.SetParam(path, values[i]); err != nil {
			return fmt.Errorf("connection %q: %w", conn.Name, err)
		}
	}
	return nil
}
