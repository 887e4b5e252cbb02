package lookup

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"github.com/valkey-io/valkey-go"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
)

type valkeyStore struct {
	client  valkey.Client
	metrics *metrics.Metrics
}

// NewValkey connects to a valkey or redis server. A configured socket takes
// precedence over host and port.
func NewValkey(cfg config.Lookup, metrics *metrics.Metrics) (Store, error) {
	opt := valkey.ClientOption{
		InitAddress:  []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		DisableCache: true,
	}
	if cfg.Socket != "" {
		socket := cfg.Socket
		opt.InitAddress = []string{socket}
		opt.DialFn = func(_ string, dialer *net.Dialer, _ *tls.Config) (net.Conn, error) {
			return dialer.Dial("unix", socket)
		}
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", opt.InitAddress[0], err)
	}
	return &valkeyStore{client: client, metrics: metrics}, nil
}

func (s *valkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		s.metrics.IncLookupRequest(BackendValkey, "read", true)
		return "", false, nil
	}
	s.metrics.IncLookupRequest(BackendValkey, "read", err == nil)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *valkeyStore) Set(ctx context.Context, key, value string) error {
	err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(value).Build()).Error()
	s.metrics.IncLookupRequest(BackendValkey, "update", err == nil)
	return err
}

func (s *valkeyStore) Close() error {
	s.client.Close()
	return nil
}
