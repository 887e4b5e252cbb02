package settings

import (
	"fmt"
	"net/netip"
	"strings"
)

// Kind selects the comparison rule of a setting.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindOrderedList
	KindUnorderedList
	KindRouteList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindOrderedList:
		return "ordered-list"
	case KindUnorderedList:
		return "unordered-list"
	case KindRouteList:
		return "route-list"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) IsList() bool {
	return k == KindOrderedList || k == KindUnorderedList || k == KindRouteList
}

// Spec describes one setting.
type Spec struct {
	Kind Kind
	// Secret settings are only compared when the tool revealed secrets.
	Secret bool
	// UnsetTokens are literal values the tool prints for "not set", in
	// addition to the global placeholders.
	UnsetTokens []string
	// Normalize rewrites a raw scalar (or each list item) before comparison.
	Normalize func(string) string
}

// Schema is the family table: which kind each setting has and which
// settings a connection type cannot do without.
type Schema struct {
	specs    map[Key]Spec
	byName   map[string]Spec
	required map[string][]Key
}

func NewSchema() *Schema {
	return &Schema{
		specs:    make(map[Key]Spec),
		byName:   make(map[string]Spec),
		required: make(map[string][]Key),
	}
}

// Set registers spec for an exact key.
func (s *Schema) Set(k Key, spec Spec) *Schema {
	s.specs[k] = spec
	return s
}

// SetName registers spec for a setting name in every family, e.g.
// "route-metric" for both ipv4 and ipv6. Exact keys win.
func (s *Schema) SetName(name string, spec Spec) *Schema {
	s.byName[name] = spec
	return s
}

// Require declares keys a desired config of connType must carry.
func (s *Schema) Require(connType string, keys ...Key) *Schema {
	s.required[connType] = append(s.required[connType], keys...)
	return s
}

// Lookup returns the spec for k. Unknown settings are plain strings.
func (s *Schema) Lookup(k Key) Spec {
	if spec, ok := s.specs[k]; ok {
		return spec
	}
	if k.Family() != "" {
		if spec, ok := s.byName[k.Name()]; ok {
			return spec
		}
	}
	return Spec{Kind: KindString}
}

// Required returns the keys every connection must carry followed by the
// keys specific to connType.
func (s *Schema) Required(connType string) []Key {
	keys := append([]Key{}, s.required[""]...)
	if connType != "" {
		keys = append(keys, s.required[connType]...)
	}
	return keys
}

// IsSecret reports whether k holds a secret.
func (s *Schema) IsSecret(k Key) bool {
	return s.Lookup(k).Secret
}

// IsBondOption reports whether k is a bond option alias packed into
// bond.options by the tool.
func (s *Schema) IsBondOption(k Key) bool {
	_, ok := s.specs[k]
	return ok && k.Family() == ""
}

func upper(s string) string { return strings.ToUpper(s) }

func trimQuotes(s string) string { return strings.Trim(s, `"`) }

// addressPrefix canonicalizes an address with prefix length. Bare addresses
// get /32 or /128. Unparsable text is kept as written.
func addressPrefix(s string) string {
	p, err := canonicalPrefix(s)
	if err != nil {
		return s
	}
	return p
}

// address canonicalizes a bare IP address, so that 2001:DB8::1 and
// 2001:db8:0:0:0:0:0:1 compare equal.
func address(s string) string {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	return a.String()
}

// keyValueList sorts "k = v, k2=v2" blobs into "k=v,k2=v2".
func keyValueList(s string) string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
			continue
		}
		out = append(out, strings.TrimSpace(k)+"="+strings.TrimSpace(v))
	}
	sortStrings(out)
	return strings.Join(out, ",")
}

// Default returns the family table for NetworkManager connection profiles.
func Default() *Schema {
	str := Spec{Kind: KindString}
	boolean := Spec{Kind: KindBool}
	integer := Spec{Kind: KindInt}
	unordered := Spec{Kind: KindUnorderedList}
	secret := Spec{Kind: KindString, Secret: true}
	mac := Spec{Kind: KindString, Normalize: upper}
	addresses := Spec{Kind: KindOrderedList, Normalize: addressPrefix}
	servers := Spec{Kind: KindUnorderedList, Normalize: address}
	gateway := Spec{Kind: KindString, Normalize: address}
	routes := Spec{Kind: KindRouteList}
	autoInt := Spec{Kind: KindInt, UnsetTokens: []string{"auto", "0"}}
	defaultInt := Spec{Kind: KindInt, UnsetTokens: []string{"-1"}}

	s := NewSchema()

	// Settings sharing a name across families.
	s.SetName("route-metric", defaultInt).
		SetName("mtu", autoInt).
		SetName("mac-address", mac).
		SetName("cloned-mac-address", mac).
		SetName("ip4-auto-default-route", defaultInt).
		SetName("ip6-auto-default-route", defaultInt)

	s.Set("connection.id", str).
		Set("connection.interface-name", str).
		Set("connection.autoconnect", boolean).
		Set("connection.autoconnect-priority", integer).
		Set("connection.autoconnect-retries", integer).
		Set("connection.autoconnect-slaves", integer).
		Set("connection.permissions", unordered)

	for _, family := range []string{"ipv4", "ipv6"} {
		s.Set(Key(family+".addresses"), addresses).
			Set(Key(family+".gateway"), gateway).
			Set(Key(family+".dns"), servers).
			Set(Key(family+".dns-search"), unordered).
			Set(Key(family+".dns-options"), unordered).
			Set(Key(family+".dns-priority"), integer).
			Set(Key(family+".routes"), routes).
			Set(Key(family+".routing-rules"), unordered).
			Set(Key(family+".route-table"), Spec{Kind: KindInt, UnsetTokens: []string{"0"}}).
			Set(Key(family+".never-default"), boolean).
			Set(Key(family+".ignore-auto-dns"), boolean).
			Set(Key(family+".ignore-auto-routes"), boolean).
			Set(Key(family+".may-fail"), boolean)
	}
	s.Set("ipv6.ip6-privacy", defaultInt)

	// Bond options are reported packed in bond.options and expanded to aliases.
	for _, k := range []Key{"mode", "primary", "xmit_hash_policy", "arp_ip_target", "fail_over_mac", "primary_reselect", "lacp_rate", "ad_select"} {
		s.Set(k, str)
	}
	for _, k := range []Key{"miimon", "downdelay", "updelay", "arp_interval", "min_links"} {
		s.Set(k, integer)
	}

	s.Set("bridge.stp", boolean).
		Set("bridge.priority", integer).
		Set("bridge.forward-delay", integer).
		Set("bridge.hello-time", integer).
		Set("bridge.max-age", integer).
		Set("bridge.ageing-time", integer).
		Set("bridge-port.path-cost", integer).
		Set("bridge-port.hairpin-mode", boolean).
		Set("bridge-port.priority", integer)

	s.Set("team.runner-fast-rate", boolean)

	s.Set("vlan.id", integer).
		Set("vlan.flags", integer).
		Set("vlan.ingress-priority-map", unordered).
		Set("vlan.egress-priority-map", unordered)

	s.Set("vxlan.id", integer).
		Set("vxlan.destination-port", integer)

	s.Set("ip-tunnel.input-key", secret).
		Set("ip-tunnel.output-key", secret).
		Set("ip-tunnel.ttl", integer)

	s.Set("802-11-wireless.hidden", boolean).
		Set("802-11-wireless.channel", integer).
		Set("802-11-wireless.powersave", integer).
		Set("802-11-wireless.wake-on-wlan", integer).
		Set("802-11-wireless.ap-isolation", defaultInt).
		Set("802-11-wireless.mac-address-blacklist", unordered)

	s.Set("802-11-wireless-security.psk", secret).
		Set("802-11-wireless-security.wep-key0", secret).
		Set("802-11-wireless-security.wep-key1", secret).
		Set("802-11-wireless-security.wep-key2", secret).
		Set("802-11-wireless-security.wep-key3", secret).
		Set("802-11-wireless-security.leap-password", secret).
		Set("802-11-wireless-security.proto", unordered).
		Set("802-11-wireless-security.pairwise", unordered).
		Set("802-11-wireless-security.group", unordered).
		Set("802-11-wireless-security.pmf", integer).
		Set("802-11-wireless-security.wep-tx-keyidx", integer).
		Set("802-1x.password", secret).
		Set("802-1x.eap", unordered)

	s.Set("gsm.apn", Spec{Kind: KindString, Normalize: trimQuotes}).
		Set("gsm.password", secret).
		Set("gsm.pin", secret).
		Set("gsm.home-only", boolean).
		Set("gsm.auto-config", boolean)

	s.Set("macvlan.mode", integer).
		Set("macvlan.promiscuous", boolean).
		Set("macvlan.tap", boolean)

	s.Set("wireguard.private-key", secret).
		Set("wireguard.listen-port", integer).
		Set("wireguard.fwmark", integer).
		Set("wireguard.peer-routes", boolean)

	s.Set("vpn.data", Spec{Kind: KindString, Normalize: keyValueList}).
		Set("vpn.secrets", Spec{Kind: KindString, Secret: true, Normalize: keyValueList}).
		Set("vpn.persistent", boolean).
		Set("vpn.timeout", integer)

	s.Set("sriov.total-vfs", integer).
		Set("vrf.table", integer)

	s.Require("", "connection.id").
		Require("wifi", "802-11-wireless.ssid").
		Require("vlan", "vlan.id", "vlan.parent").
		Require("vxlan", "vxlan.id").
		Require("gre", "ip-tunnel.mode").
		Require("ipip", "ip-tunnel.mode").
		Require("sit", "ip-tunnel.mode").
		Require("macvlan", "macvlan.parent").
		Require("vpn", "vpn.service-type").
		Require("vrf", "vrf.table")

	return s
}
