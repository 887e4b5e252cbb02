package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSchemaLookup(t *testing.T) {
	s := Default()

	assert.Equal(t, KindOrderedList, s.Lookup("ipv4.addresses").Kind)
	assert.Equal(t, KindUnorderedList, s.Lookup("ipv6.dns").Kind)
	assert.Equal(t, KindRouteList, s.Lookup("ipv6.routes").Kind)
	assert.Equal(t, KindInt, s.Lookup("ipv4.route-metric").Kind)
	assert.Equal(t, KindInt, s.Lookup("infiniband.mtu").Kind)
	assert.Equal(t, KindString, s.Lookup("connection.id").Kind)
	assert.Equal(t, KindString, s.Lookup("no-such.setting").Kind)
	assert.True(t, s.IsSecret("802-11-wireless-security.psk"))
	assert.False(t, s.IsSecret("802-11-wireless.ssid"))
	assert.True(t, s.IsBondOption("miimon"))
	assert.False(t, s.IsBondOption("bond.options"))
}

func TestSchemaRequired(t *testing.T) {
	s := Default()
	assert.Equal(t, []Key{"connection.id"}, s.Required("ethernet"))
	assert.Equal(t, []Key{"connection.id", "802-11-wireless.ssid"}, s.Required("wifi"))
}

func TestSchemaNormalize(t *testing.T) {
	s := Default()

	tests := []struct {
		name     string
		key      Key
		value    Value
		expected Value
	}{
		{name: "placeholder", key: "ipv4.gateway", value: String("--"), expected: Unset()},
		{name: "hidden", key: "wireguard.private-key", value: String("<hidden>"), expected: Hidden()},
		{name: "bool yes", key: "connection.autoconnect", value: String("yes"), expected: Bool(true)},
		{name: "bool true", key: "connection.autoconnect", value: String("true"), expected: Bool(true)},
		{name: "bool garbage", key: "connection.autoconnect", value: String("maybe"), expected: Unset()},
		{name: "int", key: "bridge.max-age", value: String("100"), expected: Int(100)},
		{name: "int hex", key: "802-11-wireless.wake-on-wlan", value: String("0x1"), expected: Int(1)},
		{name: "int garbage", key: "bridge.max-age", value: String("lots"), expected: Unset()},
		{name: "route metric default", key: "ipv4.route-metric", value: String("-1"), expected: Unset()},
		{name: "mtu auto", key: "802-3-ethernet.mtu", value: String("auto"), expected: Unset()},
		{name: "mac upper", key: "bridge.mac-address", value: String("52:54:00:ab:cd:ef"), expected: String("52:54:00:AB:CD:EF")},
		{name: "apn quotes", key: "gsm.apn", value: String(`"internet.telekom"`), expected: String("internet.telekom")},
		{name: "address prefix", key: "ipv4.addresses", value: String("192.168.1.10"), expected: List("192.168.1.10/32")},
		{name: "ipv6 address canonical", key: "ipv6.addresses", value: List("2001:DB8::CAFE", "2001:db8:0:0:0:0:0:1/64"), expected: List("2001:db8::cafe/128", "2001:db8::1/64")},
		{name: "ipv6 gateway canonical", key: "ipv6.gateway", value: String("2001:DB8:0::1"), expected: String("2001:db8::1")},
		{name: "ipv6 dns canonical", key: "ipv6.dns", value: List("2001:4860:4860:0:0:0:0:8888"), expected: List("2001:4860:4860::8888")},
		{name: "unparsable address kept", key: "ipv4.addresses", value: List("not-an-ip/24"), expected: List("not-an-ip/24")},
		{name: "unordered sorted", key: "ipv4.dns", value: String("8.8.8.8, 1.1.1.1"), expected: List("1.1.1.1", "8.8.8.8")},
		{name: "list placeholder", key: "ipv4.dns-options", value: String("--"), expected: Unset()},
		{name: "vpn data", key: "vpn.data", value: String("user = b, gateway = vpn.example.com"), expected: String("gateway=vpn.example.com,user=b")},
		{name: "bad route kept as written", key: "ipv4.routes", value: List(" garbage "), expected: List("garbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Normalize(tt.key, tt.value)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestSchemaEqual(t *testing.T) {
	s := Default()

	assert.True(t, s.Equal("ipv4.dns", List("1.1.1.1", "8.8.8.8"), List("8.8.8.8", "1.1.1.1")))
	assert.False(t, s.Equal("ipv4.addresses", List("10.10.10.10/32", "10.10.20.10/32"), List("10.10.20.10/32", "10.10.10.10/32")))
	assert.True(t, s.Equal("ipv4.dns-search", List(), Unset()))
	assert.False(t, s.Equal("ipv4.routes", List(), List("192.168.200.0/24 192.168.1.1")))
	assert.True(t, s.Equal("ipv4.routes",
		List("192.168.200.0/24 192.168.1.1"),
		String("{ ip = 192.168.200.0/24, nh = 192.168.1.1 }")))
	assert.True(t, s.Equal("ipv4.route-metric", Unset(), String("-1")))
	assert.True(t, s.Equal("team.runner-fast-rate", String("no"), Bool(false)))
	assert.False(t, s.Equal("ipv4.gateway", String("10.10.10.1"), Unset()))
	assert.False(t, s.Equal("ipv4.routes", List(),
		List("{ ip = 192.168.200.0/24, nh = 192.168.1.1 }", "{ ip = 10.0.0.0/8, nh = bogus }")))
}

func TestValueYAML(t *testing.T) {
	cfg := Config{
		"ipv4.gateway": String("10.10.10.1"),
		"ipv4.dns":     List("1.1.1.1"),
		"ipv4.routes":  Unset(),
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.YAMLEq(t, "ipv4.dns: [1.1.1.1]\nipv4.gateway: 10.10.10.1\nipv4.routes: null\n", string(data))
}

func TestValueJSON(t *testing.T) {
	cfg := Config{
		"ipv4.gateway": String("10.10.10.1"),
		"ipv4.dns":     List("1.1.1.1"),
		"ipv4.routes":  Unset(),
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ipv4.gateway":"10.10.10.1","ipv4.dns":["1.1.1.1"],"ipv4.routes":null}`, string(data))
}

func TestConfigClone(t *testing.T) {
	orig := Config{"ipv4.dns": List("1.1.1.1")}
	cp := orig.Clone()
	cp["ipv4.gateway"] = String("10.0.0.1")

	assert.Len(t, orig, 1)
	assert.Equal(t, []Key{"ipv4.dns", "ipv4.gateway"}, cp.Keys())
	assert.True(t, orig.Get("ipv4.gateway").Equal(Unset()))
}
