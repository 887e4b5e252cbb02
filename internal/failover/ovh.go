package failover

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/ovh/go-ovh/ovh"
)

// API is the subset of the OVH client used to move failover IPs.
// *ovh.Client satisfies it.
type API interface {
	GetWithContext(ctx context.Context, url string, resType interface{}) error
	PostWithContext(ctx context.Context, url string, reqBody, resType interface{}) error
}

type OVHProvider struct {
	client  API
	metrics *metrics.Metrics
}

func NewOVH(cfg config.Failover, metrics *metrics.Metrics) (*OVHProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ovh endpoint required")
	}
	if cfg.ApplicationKey == "" || cfg.ApplicationSecret == "" || cfg.ConsumerKey == "" {
		return nil, fmt.Errorf("ovh application key, application secret and consumer key required")
	}

	client, err := ovh.NewClient(cfg.Endpoint, cfg.ApplicationKey, cfg.ApplicationSecret, cfg.ConsumerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OVH client: %w", err)
	}
	return Instrument(client, metrics), nil
}

// Instrument wraps api so that every request is counted.
func Instrument(api API, metrics *metrics.Metrics) *OVHProvider {
	return &OVHProvider{client: api, metrics: metrics}
}

func (p *OVHProvider) GetWithContext(ctx context.Context, url string, resType interface{}) error {
	slog.Debug("OVH api request", "method", "GET", "url", url)
	err := p.client.GetWithContext(ctx, url, resType)
	p.record("read", err)
	return err
}

func (p *OVHProvider) PostWithContext(ctx context.Context, url string, reqBody, resType interface{}) error {
	slog.Debug("OVH api request", "method", "POST", "url", url)
	err := p.client.PostWithContext(ctx, url, reqBody, resType)
	p.record("update", err)
	return err
}

func (p *OVHProvider) record(operation string, err error) {
	if p.metrics != nil {
		p.metrics.IncFailoverRequest(operation, err == nil)
	}
}
