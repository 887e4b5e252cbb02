package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/nmcli"
	"github.com/evanofslack/nmcli-sync/internal/params"
	"github.com/evanofslack/nmcli-sync/internal/settings"
)

type Engine interface {
	Reconcile(ctx context.Context, conns []params.Connection) (Results, error)
}

// SecretResolver fills secret parameters of a connection from an external
// store before the connection is built.
type SecretResolver interface {
	Resolve(ctx context.Context, conn *params.Connection) error
}

type engine struct {
	client     nmcli.Client
	resolver   SecretResolver
	reconciler *Reconciler
	schema     *settings.Schema
	dryRun     bool
	protected  map[string]bool
	metrics    *metrics.Metrics
}

// NewEngine builds an engine. resolver may be nil when no secret lookups are
// configured.
func NewEngine(client nmcli.Client, resolver SecretResolver, schema *settings.Schema, cfg *config.Config, metrics *metrics.Metrics) *engine {
	protected := make(map[string]bool)
	for _, name := range cfg.Reconcile.ProtectedConnections {
		protected[name] = true
	}
	return &engine{
		client:     client,
		resolver:   resolver,
		reconciler: New(schema),
		schema:     schema,
		dryRun:     cfg.Reconcile.DryRun,
		protected:  protected,
		metrics:    metrics,
	}
}

func (e *engine) Reconcile(ctx context.Context, conns []params.Connection) (Results, error) {
	e.metrics.SetManagedConnections(len(conns))

	plan, results, err := e.generatePlan(ctx, conns)
	if err != nil {
		return results, fmt.Errorf("generate plan: %w", err)
	}
	slog.Debug("Generated plan", "create", len(plan.Create), "update", len(plan.Update), "delete", len(plan.Delete))
	if plan.IsEmpty() {
		slog.Info("No connection changes, ending reconciliation", "unchanged", len(results.Unchanged))
		return results, nil
	}

	return e.executePlan(ctx, plan, results), nil
}

func (e *engine) generatePlan(ctx context.Context, conns []params.Connection) (Plan, Results, error) {
	plan := Plan{}
	results := Results{Diffs: make(map[string]Diff)}

	for _, conn := range conns {
		if err := ctx.Err(); err != nil {
			return plan, results, err
		}

		if e.isProtected(conn.Name) {
			slog.Warn("Skipping protected connection", "name", conn.Name)
			e.metrics.IncConnectionOperation("skip", conn.Type)
			continue
		}

		current, found, err := e.client.Show(ctx, conn.Name)
		if err != nil {
			slog.Error("Failed to read connection", "name", conn.Name, "error", err)
			results.Failures = append(results.Failures, OperationResult{Name: conn.Name, Op: "read", Error: err.Error()})
			continue
		}

		if conn.IsAbsent() {
			if found {
				plan.Delete = append(plan.Delete, Operation{Name: conn.Name, ConnType: conn.Type})
				e.metrics.IncConnectionOperation("delete", conn.Type)
			} else {
				results.Unchanged = append(results.Unchanged, conn.Name)
				e.metrics.IncConnectionOperation("unchanged", conn.Type)
			}
			continue
		}

		op, err := e.planConnection(ctx, conn, current, found)
		if err != nil {
			slog.Error("Failed to plan connection", "name", conn.Name, "error", err)
			results.Failures = append(results.Failures, OperationResult{Name: conn.Name, Op: "plan", Error: err.Error()})
			continue
		}

		switch {
		case !found:
			plan.Create = append(plan.Create, op)
			results.Diffs[conn.Name] = op.Diff
			e.metrics.IncConnectionOperation("create", conn.Type)
		case !op.Diff.Empty():
			plan.Update = append(plan.Update, op)
			results.Diffs[conn.Name] = op.Diff
			e.metrics.IncConnectionOperation("update", conn.Type)
		default:
			results.Unchanged = append(results.Unchanged, conn.Name)
			e.metrics.IncConnectionOperation("unchanged", conn.Type)
		}
		e.countSettingChanges(op.Diff)
	}
	return plan, results, nil
}

func (e *engine) planConnection(ctx context.Context, conn params.Connection, current settings.Current, found bool) (Operation, error) {
	if e.resolver != nil && len(conn.Secrets) > 0 {
		if err := e.resolver.Resolve(ctx, &conn); err != nil {
			return Operation{}, fmt.Errorf("resolve secrets: %w", err)
		}
	}

	desired, err := params.Build(conn)
	if err != nil {
		return Operation{}, err
	}
	nmType, _ := params.NMType(desired.Type)

	if !found {
		// compare against an empty profile to describe the full create
		_, diff, err := e.reconciler.Reconcile(desired, settings.Current{SecretsRevealed: true})
		if err != nil {
			return Operation{}, err
		}
		return Operation{Name: conn.Name, Type: nmType, ConnType: conn.Type, Values: desired.Values, Diff: diff}, nil
	}

	changed, diff, err := e.reconciler.Reconcile(desired, current)
	if err != nil {
		return Operation{}, err
	}
	op := Operation{Name: conn.Name, Type: nmType, ConnType: conn.Type, Diff: diff}
	if changed {
		op.Values = e.modifyValues(desired, diff)
	}
	return op, nil
}

// modifyValues selects what to send on modify: the differing settings as
// written in desired, secrets that could not be compared, and the complete
// bond option set since the tool replaces bond.options as a whole.
func (e *engine) modifyValues(desired settings.Desired, diff Diff) settings.Config {
	values := make(settings.Config, len(diff.After))
	bondChanged := false
	for _, k := range diff.Keys() {
		values[k] = desired.Values[k]
		if e.schema.IsBondOption(k) {
			bondChanged = true
		}
	}
	for _, k := range diff.Skipped {
		values[k] = desired.Values[k]
	}
	if bondChanged {
		for k, v := range desired.Values {
			if e.schema.IsBondOption(k) {
				values[k] = v
			}
		}
	}
	return values
}

func (e *engine) executePlan(ctx context.Context, plan Plan, results Results) Results {
	if e.dryRun {
		slog.Info("Dry run mode - would create connections", "count", len(plan.Create))
		slog.Info("Dry run mode - would modify connections", "count", len(plan.Update))
		slog.Info("Dry run mode - would delete connections", "count", len(plan.Delete))
		for _, op := range plan.Create {
			results.Created = append(results.Created, op.Name)
		}
		for _, op := range plan.Update {
			results.Modified = append(results.Modified, op.Name)
		}
		for _, op := range plan.Delete {
			results.Deleted = append(results.Deleted, op.Name)
		}
		return results
	}

	// Execute creates
	for _, op := range plan.Create {
		slog.Debug("Start execute create from plan", "name", op.Name, "type", op.Type)
		if err := e.client.Add(ctx, op.Type, op.Name, op.Values); err != nil {
			slog.Error("Failed to create connection", "name", op.Name, "error", err)
			results.Failures = append(results.Failures, OperationResult{Name: op.Name, Op: "create", Error: err.Error()})
		} else {
			slog.Info("Created connection", "name", op.Name, "type", op.ConnType)
			results.Created = append(results.Created, op.Name)
		}
	}

	// Execute updates
	for _, op := range plan.Update {
		slog.Debug("Start execute modify from plan", "name", op.Name, "settings", len(op.Values))
		if err := e.client.Modify(ctx, op.Name, op.Values); err != nil {
			slog.Error("Failed to modify connection", "name", op.Name, "error", err)
			results.Failures = append(results.Failures, OperationResult{Name: op.Name, Op: "update", Error: err.Error()})
		} else {
			slog.Info("Modified connection", "name", op.Name, "settings", op.Diff.Keys())
			results.Modified = append(results.Modified, op.Name)
		}
	}

	// Execute deletes
	for _, op := range plan.Delete {
		slog.Debug("Start execute delete from plan", "name", op.Name)
		if err := e.client.Delete(ctx, op.Name); err != nil {
			slog.Error("Failed to delete connection", "name", op.Name, "error", err)
			results.Failures = append(results.Failures, OperationResult{Name: op.Name, Op: "delete", Error: err.Error()})
		} else {
			slog.Info("Deleted connection", "name", op.Name)
			results.Deleted = append(results.Deleted, op.Name)
		}
	}

	if len(results.Failures) > 0 {
		slog.Warn("Reconciliation finished with failures", "failures", len(results.Failures))
	}
	return results
}

func (e *engine) countSettingChanges(diff Diff) {
	counts := make(map[string]int)
	for _, k := range diff.Keys() {
		counts[k.Family()]++
	}
	for family, n := range counts {
		e.metrics.AddSettingChanges(family, n)
	}
}

func (e *engine) isProtected(name string) bool {
	return e.protected[name]
}
