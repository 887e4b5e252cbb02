package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/lookup"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/nmcli"
	"github.com/evanofslack/nmcli-sync/internal/reconcile"
	"github.com/evanofslack/nmcli-sync/internal/settings"
	"github.com/evanofslack/nmcli-sync/internal/source"
)

// newClient is replaced in tests.
var newClient = func(cfg *config.Config, schema *settings.Schema, metrics *metrics.Metrics) nmcli.Client {
	return nmcli.New(cfg.Nmcli.Path, !cfg.Nmcli.HideSecrets, schema, metrics)
}

type syncer struct {
	source  source.Source
	engine  reconcile.Engine
	metrics *metrics.Metrics
	store   lookup.Store
}

// newSyncer wires the connection source, the secret store and the engine.
// paths override cfg.Connections when given.
func newSyncer(cfg *config.Config, metrics *metrics.Metrics, paths []string) (*syncer, error) {
	if len(paths) == 0 {
		paths = cfg.Connections
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no connection files given")
	}

	schema := settings.Default()
	s := &syncer{
		source:  source.NewFiles(paths...),
		metrics: metrics,
	}

	var resolver reconcile.SecretResolver
	if cfg.Lookup.Backend != "" {
		store, err := lookup.New(cfg.Lookup, metrics)
		if err != nil {
			return nil, fmt.Errorf("open lookup store: %w", err)
		}
		s.store = store
		resolver = lookup.NewResolver(store)
	}

	s.engine = reconcile.NewEngine(newClient(cfg, schema, metrics), resolver, schema, cfg, metrics)
	return s, nil
}

func (s *syncer) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close lookup store", "error", err)
	}
}

func (s *syncer) sync(ctx context.Context) (reconcile.Results, error) {
	slog.Info("Starting sync operation")
	start := time.Now()
	defer func() {
		s.metrics.SetSyncDuration(time.Since(start))
	}()

	conns, err := s.source.Connections(ctx)
	if err != nil {
		s.metrics.IncSyncRun(false)
		return reconcile.Results{}, err
	}

	slog.Info("Reconciling connections", "count", len(conns))
	results, err := s.engine.Reconcile(ctx, conns)
	if err != nil {
		s.metrics.IncSyncRun(false)
		return results, err
	}

	slog.Info("Sync completed",
		"created", len(results.Created),
		"modified", len(results.Modified),
		"deleted", len(results.Deleted),
		"unchanged", len(results.Unchanged),
		"failed", len(results.Failures))
	s.metrics.IncSyncRun(len(results.Failures) == 0)
	return results, nil
}

func failuresError(results reconcile.Results) error {
	if len(results.Failures) == 0 {
		return nil
	}
	first := results.Failures[0]
	return fmt.Errorf("%d connection(s) failed, first %s %s: %s", len(results.Failures), first.Op, first.Name, first.Error)
}
