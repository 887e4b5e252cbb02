package nmcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// Client manages NetworkManager connection profiles through nmcli.
type Client interface {
	// Show returns the current settings of the named connection. found is
	// false when no such connection exists.
	Show(ctx context.Context, name string) (current settings.Current, found bool, err error)
	Add(ctx context.Context, connType, name string, values settings.Config) error
	Modify(ctx context.Context, name string, values settings.Config) error
	Delete(ctx context.Context, name string) error
}

type client struct {
	path        string
	showSecrets bool
	schema      *settings.Schema
	metrics     *metrics.Metrics
}

func New(path string, showSecrets bool, schema *settings.Schema, metrics *metrics.Metrics) Client {
	return &client{
		path:        path,
		showSecrets: showSecrets,
		schema:      schema,
		metrics:     metrics,
	}
}

func (c *client) Show(ctx context.Context, name string) (settings.Current, bool, error) {
	out, err := c.run(ctx, "show", ShowArgs(name, c.showSecrets)...)
	if err != nil {
		var cmdErr CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode() == ExitCodeNotFound {
			return settings.Current{}, false, nil
		}
		return settings.Current{}, false, fmt.Errorf("show connection %q: %w", name, err)
	}
	return ParseShow(out, c.schema, c.showSecrets), true, nil
}

func (c *client) Add(ctx context.Context, connType, name string, values settings.Config) error {
	add := values.Clone()
	delete(add, "connection.id")
	args := AddArgs(connType, name, RenderArgs(c.schema, add))
	if _, err := c.run(ctx, "add", args...); err != nil {
		return fmt.Errorf("add connection %q: %w", name, err)
	}
	return nil
}

func (c *client) Modify(ctx context.Context, name string, values settings.Config) error {
	if len(values) == 0 {
		return nil
	}
	args := ModifyArgs(name, RenderArgs(c.schema, values))
	if _, err := c.run(ctx, "modify", args...); err != nil {
		return fmt.Errorf("modify connection %q: %w", name, err)
	}
	return nil
}

func (c *client) Delete(ctx context.Context, name string) error {
	if _, err := c.run(ctx, "delete", DeleteArgs(name)...); err != nil {
		return fmt.Errorf("delete connection %q: %w", name, err)
	}
	return nil
}

func (c *client) run(ctx context.Context, command string, args ...string) ([]byte, error) {
	cmd := ExecCommandContext(ctx, c.path, args...)

	// nmcli output is only parseable in the C locale
	cmd.SetEnv(append(os.Environ(), "LANG=C", "LC_ALL=C", "LC_MESSAGES=C"))

	var stderr bytes.Buffer
	cmd.SetStderr(&stderr)

	slog.Debug("Running nmcli", "args", c.redact(args))
	out, err := cmd.Output()
	c.metrics.IncNmcliCommand(command, err == nil)
	if err != nil {
		return nil, &commandError{
			error:           err,
			commandWithArgs: append([]string{c.path}, c.redact(args)...),
			output:          stderr.String(),
			exitCode:        errToExitCode(err),
		}
	}
	return out, nil
}

// redact hides the values of secret properties so they never reach logs or
// error messages.
func (c *client) redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i++ {
		if c.schema.IsSecret(settings.Key(out[i])) {
			out[i+1] = "<redacted>"
			i++
		}
	}
	return out
}
