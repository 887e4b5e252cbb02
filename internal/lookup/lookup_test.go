package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/params"
)

type mockStore struct {
	values map[string]string
	err    error
}

func (m *mockStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStore) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return m.err
}

func (m *mockStore) Close() error { return nil }

func newBadger(t *testing.T) Store {
	t.Helper()
	store, err := NewBadger(t.TempDir(), metrics.New(false))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()
	store := newBadger(t)

	_, found, err := store.Get(ctx, "wifi/home")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "wifi/home", "VERY_SECURE_PASSWORD"))
	require.NoError(t, store.Set(ctx, "wg/private", "cGFzc3dvcmQ="))

	value, found, err := store.Get(ctx, "wifi/home")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "VERY_SECURE_PASSWORD", value)

	keys, err := store.(Lister).Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wg/private", "wifi/home"}, keys)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{values: map[string]string{"key1": "one", "key3": "three"}}

	values, err := Lookup(ctx, store, "key1", "key2", "key3")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "", "three"}, values)

	store.err = errors.New("connection refused")
	_, err = Lookup(ctx, store, "key1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch key1")
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{values: map[string]string{"wifi/home": "VERY_SECURE_PASSWORD", "tunnel/in": "42"}}
	resolver := NewResolver(store)

	conn := params.Connection{
		Name: "home",
		Type: "wifi",
		Secrets: map[string]string{
			"wifi_sec.psk":        "wifi/home",
			"ip_tunnel_input_key": "tunnel/in",
		},
	}
	require.NoError(t, resolver.Resolve(ctx, &conn))
	assert.Equal(t, "VERY_SECURE_PASSWORD", conn.WifiSec["psk"])
	assert.Equal(t, "42", conn.IPTunnelInputKey)

	missing := params.Connection{Name: "home", Secrets: map[string]string{"wifi_sec.psk": "wifi/other"}}
	assert.Error(t, resolver.Resolve(ctx, &missing))

	badPath := params.Connection{Name: "home", Secrets: map[string]string{"conn_name": "wifi/home"}}
	assert.Error(t, resolver.Resolve(ctx, &badPath))
}

func TestNewBackends(t *testing.T) {
	m := metrics.New(false)

	_, err := New(config.Lookup{}, m)
	assert.Error(t, err)

	_, err = New(config.Lookup{Backend: "memcached"}, m)
	assert.Error(t, err)

	store, err := New(config.Lookup{Backend: BackendBadger, Path: t.TempDir()}, m)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// nothing listens on port 1
	_, err = New(config.Lookup{Backend: BackendValkey, Host: "127.0.0.1", Port: 1}, m)
	assert.Error(t, err)
}
