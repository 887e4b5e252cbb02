package nmcli_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/evanofslack/nmcli-sync/internal/nmcli"
	"github.com/evanofslack/nmcli-sync/internal/nmcli/fake"
	"github.com/evanofslack/nmcli-sync/internal/settings"
)

const showEthernet = `connection.id:                          eth0-static
connection.uuid:                        2f4b2b1e-3f4e-4b1c-9a53-3c1b7a9f2d10
connection.type:                        802-3-ethernet
connection.interface-name:              eth0
connection.autoconnect:                 yes
ipv4.method:                            manual
ipv4.dns:                               8.8.8.8,1.1.1.1
ipv4.addresses:                         192.168.1.10/24
ipv4.gateway:                           192.168.1.1
ipv4.routes:                            --
ipv4.route-metric:                      -1
GENERAL.STATE:                          activated
`

func newClient(showSecrets bool) nmcli.Client {
	return nmcli.New("nmcli", showSecrets, settings.Default(), metrics.New(false))
}

func TestClientShow(t *testing.T) {
	exec := &fake.Exec{}
	cmd := &fake.ExpectedCmd{
		Name:         "nmcli",
		Args:         []string{"--show-secrets", "con", "show", "eth0-static"},
		ResultOutput: []byte(showEthernet),
	}
	exec.ExpectCommands(cmd)
	exec.Setup(t)

	current, found, err := newClient(true).Show(context.Background(), "eth0-static")
	require.NoError(t, err)
	require.True(t, found)

	assert.True(t, current.SecretsRevealed)
	assert.Equal(t, settings.List("8.8.8.8", "1.1.1.1"), current.Values.Get("ipv4.dns"))
	assert.Equal(t, settings.String("192.168.1.1"), current.Values.Get("ipv4.gateway"))
	assert.Equal(t, settings.Unset(), current.Values.Get("ipv4.routes"))
	assert.Equal(t, settings.Unset(), current.Values.Get("ipv4.route-metric"))
	assert.NotContains(t, current.Values, settings.Key("GENERAL.STATE"))
	assert.True(t, slices.Contains(cmd.Env(), "LANG=C"))
}

func TestClientShowNotFound(t *testing.T) {
	exec := &fake.Exec{}
	exec.ExpectCommands(&fake.ExpectedCmd{
		Name:         "nmcli",
		Args:         []string{"con", "show", "missing"},
		ResultStderr: []byte("Error: missing - no such connection profile."),
		ResultErr:    fake.ExitErr{Code: nmcli.ExitCodeNotFound},
	})
	exec.Setup(t)

	_, found, err := newClient(false).Show(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClientShowError(t *testing.T) {
	exec := &fake.Exec{}
	exec.ExpectCommands(&fake.ExpectedCmd{
		Name:         "nmcli",
		Args:         []string{"con", "show", "eth0"},
		ResultStderr: []byte("Error: NetworkManager is not running."),
		ResultErr:    fake.ExitErr{Code: 8},
	})
	exec.Setup(t)

	_, _, err := newClient(false).Show(context.Background(), "eth0")
	require.Error(t, err)

	var cmdErr nmcli.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 8, cmdErr.ExitCode())
	assert.Contains(t, cmdErr.Output(), "not running")
	assert.Contains(t, err.Error(), "not running")
}

func TestClientAdd(t *testing.T) {
	exec := &fake.Exec{}
	exec.ExpectCommands(&fake.ExpectedCmd{
		Name: "nmcli",
		Args: []string{
			"con", "add", "type", "802-3-ethernet", "con-name", "eth0-static",
			"connection.interface-name", "eth0",
			"ipv4.addresses", "192.168.1.10/24",
			"ipv4.dns", "1.1.1.1,8.8.8.8",
			"ipv4.method", "manual",
		},
	})
	exec.Setup(t)

	err := newClient(true).Add(context.Background(), "802-3-ethernet", "eth0-static", settings.Config{
		"connection.id":             settings.String("eth0-static"),
		"connection.interface-name": settings.String("eth0"),
		"ipv4.method":               settings.String("manual"),
		"ipv4.addresses":            settings.List("192.168.1.10/24"),
		"ipv4.dns":                  settings.List("1.1.1.1", "8.8.8.8"),
	})
	require.NoError(t, err)
}

func TestClientModifyRedactsSecrets(t *testing.T) {
	exec := &fake.Exec{}
	exec.ExpectCommands(&fake.ExpectedCmd{
		Name:      "nmcli",
		Args:      []string{"con", "modify", "home", "802-11-wireless-security.psk", "hunter22"},
		ResultErr: fake.ExitErr{Code: 2},
	})
	exec.Setup(t)

	err := newClient(true).Modify(context.Background(), "home", settings.Config{
		"802-11-wireless-security.psk": settings.String("hunter22"),
	})
	require.Error(t, err)

	var cmdErr nmcli.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, []string{"nmcli", "con", "modify", "home", "802-11-wireless-security.psk", "<redacted>"}, cmdErr.CommandWithArgs())
	assert.NotContains(t, err.Error(), "hunter22")
}

func TestClientModifyNothing(t *testing.T) {
	exec := &fake.Exec{}
	exec.Setup(t)

	require.NoError(t, newClient(true).Modify(context.Background(), "eth0", settings.Config{}))
}

func TestClientDelete(t *testing.T) {
	exec := &fake.Exec{}
	exec.ExpectCommands(&fake.ExpectedCmd{
		Name: "nmcli",
		Args: []string{"con", "delete", "eth0-static"},
	})
	exec.Setup(t)

	require.NoError(t, newClient(true).Delete(context.Background(), "eth0-static"))
}
