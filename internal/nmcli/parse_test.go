package nmcli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

func TestParseShow(t *testing.T) {
	out := []byte(`connection.id:                          bond0
connection.type:                        bond
bond.options:                           mode=active-backup,miimon=100,primary=eth1
ipv4.routes:                            { ip = 192.168.200.0/24, nh = 192.168.1.1 }; { ip = 10.0.0.0/8, nh = 192.168.1.254, mt = 10 }
ipv4.dns-search:                        --
ipv6.ip6-privacy:                       -1 (unknown)
802-11-wireless.wake-on-wlan:           0x1 (default)
802-11-wireless-security.psk:           <hidden>
802-3-ethernet.mtu:                     auto
ipv4.dns:                               
this line is garbage
IP4.ADDRESS[1]:                         192.168.1.10/24
`)

	current := ParseShow(out, settings.Default(), false)

	assert.False(t, current.SecretsRevealed)
	tests := []struct {
		key      settings.Key
		expected settings.Value
	}{
		{key: "connection.id", expected: settings.String("bond0")},
		{key: "mode", expected: settings.String("active-backup")},
		{key: "miimon", expected: settings.String("100")},
		{key: "primary", expected: settings.String("eth1")},
		{key: "ipv4.routes", expected: settings.List(
			"{ ip = 192.168.200.0/24, nh = 192.168.1.1 }",
			"{ ip = 10.0.0.0/8, nh = 192.168.1.254, mt = 10 }",
		)},
		{key: "ipv4.dns-search", expected: settings.Unset()},
		{key: "ipv6.ip6-privacy", expected: settings.Unset()},
		{key: "802-11-wireless.wake-on-wlan", expected: settings.String("0x1")},
		{key: "802-11-wireless-security.psk", expected: settings.Hidden()},
		{key: "802-3-ethernet.mtu", expected: settings.Unset()},
		{key: "ipv4.dns", expected: settings.Unset()},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.expected, current.Values.Get(tt.key))
		})
	}

	assert.NotContains(t, current.Values, bondOptions)
	assert.NotContains(t, current.Values, settings.Key("IP4.ADDRESS[1]"))
	assert.Len(t, current.Values, 12)
}

func TestRenderArgs(t *testing.T) {
	args := RenderArgs(settings.Default(), settings.Config{
		"mode":                       settings.String("active-backup"),
		"miimon":                     settings.Int(100),
		"connection.autoconnect":     settings.Bool(true),
		"ipv4.gateway":               settings.Unset(),
		"ipv4.dns-search":            settings.List(),
		"ipv4.routes":                settings.List("{ ip = 192.168.200.0/24, nh = 192.168.1.1, mt = 10 }", "10.0.0.0/8 192.168.1.254"),
		"wireguard.private-key":      settings.Hidden(),
		"802-3-ethernet.mac-address": settings.String("52:54:00:AB:CD:EF"),
	})

	assert.Equal(t, []string{
		"802-3-ethernet.mac-address", "52:54:00:AB:CD:EF",
		"connection.autoconnect", "yes",
		"ipv4.dns-search", "",
		"ipv4.gateway", "",
		"ipv4.routes", "192.168.200.0/24 192.168.1.1 10,10.0.0.0/8 192.168.1.254",
		"bond.options", "miimon=100,mode=active-backup",
	}, args)
}
