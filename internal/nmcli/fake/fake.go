/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

Modified from the drbdadm test fake to drive nmcli.
*/

package fake

import (
	"bytes"
	"context"
	"io"
	"slices"
	"testing"

	"github.com/evanofslack/nmcli-sync/internal/nmcli"
)

type Exec struct {
	cmds []*ExpectedCmd
}

func (b *Exec) ExpectCommands(cmds ...*ExpectedCmd) {
	b.cmds = append(b.cmds, cmds...)
}

func (b *Exec) Setup(t *testing.T) {
	t.Helper()

	tmp := nmcli.ExecCommandContext

	i := 0

	nmcli.ExecCommandContext = func(ctx context.Context, name string, args ...string) nmcli.Cmd {
		if len(b.cmds) <= i {
			t.Fatalf("expected %d command executions, got more: %s %v", len(b.cmds), name, args)
		}
		cmd := b.cmds[i]

		if !cmd.Matches(name, args...) {
			t.Fatalf("ExecCommandContext was called with unexpected arguments (call index %d): %s %v", i, name, args)
		}

		i++
		return cmd
	}

	t.Cleanup(func() {
		nmcli.ExecCommandContext = tmp

		if i != len(b.cmds) {
			t.Errorf("expected %d command executions, got %d", len(b.cmds), i)
		}
	})
}

type ExpectedCmd struct {
	Name string
	Args []string

	ResultOutput []byte
	ResultStderr []byte
	ResultErr    error

	stderr io.Writer
	env    []string
}

var _ nmcli.Cmd = &ExpectedCmd{}

func (c *ExpectedCmd) Matches(name string, args ...string) bool {
	return c.Name == name && slices.Equal(c.Args, args)
}

func (c *ExpectedCmd) Output() ([]byte, error) {
	if c.stderr != nil && len(c.ResultStderr) > 0 {
		io.Copy(c.stderr, bytes.NewBuffer(c.ResultStderr))
	}
	return c.ResultOutput, c.ResultErr
}

func (c *ExpectedCmd) SetStderr(w io.Writer) {
	c.stderr = w
}

func (c *ExpectedCmd) SetEnv(env []string) {
	c.env = env
}

// Env returns the environment the command was started with.
func (c *ExpectedCmd) Env() []string {
	return c.env
}

type ExitErr struct{ Code int }

func (e ExitErr) Error() string { return "ExitErr" }
func (e ExitErr) ExitCode() int { return e.Code }
