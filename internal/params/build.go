package params

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

var ErrInvalid = errors.New("invalid connection")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// connection types and the type name passed to "nmcli con add"
var connectionTypes = map[string]string{
	"bond":         "bond",
	"bond-slave":   "ethernet",
	"bridge":       "bridge",
	"bridge-slave": "ethernet",
	"dummy":        "dummy",
	"ethernet":     "ethernet",
	"generic":      "generic",
	"gre":          "ip-tunnel",
	"gsm":          "gsm",
	"infiniband":   "infiniband",
	"ipip":         "ip-tunnel",
	"loopback":     "loopback",
	"macvlan":      "macvlan",
	"sit":          "ip-tunnel",
	"team":         "team",
	"team-slave":   "ethernet",
	"vlan":         "vlan",
	"vpn":          "vpn",
	"vrf":          "vrf",
	"vxlan":        "vxlan",
	"wifi":         "wifi",
	"wireguard":    "wireguard",
}

// NMType returns the nmcli type name for a connection type.
func NMType(connType string) (string, bool) {
	t, ok := connectionTypes[connType]
	return t, ok
}

var ip6Privacy = map[string]int{
	"disabled":           0,
	"prefer-public-addr": 1,
	"prefer-temp-addr":   2,
	"unknown":            -1,
}

type ipParams struct {
	family        string
	method        string
	addresses     StringList
	gateway       string
	gwIgnoreAuto  *bool
	dns           StringList
	dnsSearch     StringList
	dnsOptions    StringList
	dnsIgnoreAuto *bool
	routes        StringList
	routesExt     []Route
	routeMetric   *int
	routingRules  StringList
	neverDefault  *bool
	mayFail       *bool
}

func (c *Connection) ip4() ipParams {
	return ipParams{
		family:        "ipv4",
		method:        c.Method4,
		addresses:     c.IP4,
		gateway:       c.GW4,
		gwIgnoreAuto:  c.GW4IgnoreAuto,
		dns:           c.DNS4,
		dnsSearch:     c.DNS4Search,
		dnsOptions:    c.DNS4Options,
		dnsIgnoreAuto: c.DNS4IgnoreAuto,
		routes:        c.Routes4,
		routesExt:     c.Routes4Ext,
		routeMetric:   c.RouteMetric4,
		routingRules:  c.RoutingRules4,
		neverDefault:  c.NeverDefault4,
		mayFail:       c.MayFail4,
	}
}

func (c *Connection) ip6() ipParams {
	return ipParams{
		family:        "ipv6",
		method:        c.Method6,
		addresses:     c.IP6,
		gateway:       c.GW6,
		gwIgnoreAuto:  c.GW6IgnoreAuto,
		dns:           c.DNS6,
		dnsSearch:     c.DNS6Search,
		dnsOptions:    c.DNS6Options,
		dnsIgnoreAuto: c.DNS6IgnoreAuto,
		routes:        c.Routes6,
		routesExt:     c.Routes6Ext,
		routeMetric:   c.RouteMetric6,
		routingRules:  c.RoutingRules6,
		neverDefault:  c.NeverDefault6,
		mayFail:       c.MayFail6,
	}
}

// Build converts a connection description into the settings it should end up
// with. Parameters left out of the description carry no opinion and produce
// no key.
func Build(conn Connection) (settings.Desired, error) {
	if conn.Name == "" {
		return settings.Desired{}, invalid("conn_name is required")
	}
	if _, ok := connectionTypes[conn.Type]; !ok {
		return settings.Desired{}, invalid("connection %q: unknown type %q", conn.Name, conn.Type)
	}
	if err := validate(&conn); err != nil {
		return settings.Desired{}, err
	}

	b := builder{values: make(settings.Config)}
	b.str("connection.id", conn.Name)
	b.str("connection.interface-name", conn.Ifname)
	b.boolean("connection.autoconnect", conn.Autoconnect, true)
	b.str("connection.zone", conn.Zone)

	slaveType := conn.SlaveType
	if t, ok := strings.CutSuffix(conn.Type, "-slave"); ok && slaveType == "" {
		slaveType = t
	}
	b.str("connection.master", conn.Master)
	b.str("connection.slave-type", slaveType)

	if slaveType == "" && conn.Master == "" {
		b.ip(conn.ip4())
		b.ip(conn.ip6())
		if conn.IPPrivacy6 != "" {
			if n, ok := ip6Privacy[conn.IPPrivacy6]; ok {
				b.values["ipv6.ip6-privacy"] = settings.Int(n)
			} else {
				b.str("ipv6.ip6-privacy", conn.IPPrivacy6)
			}
		}
		b.str("ipv6.addr-gen-mode", conn.AddrGenMode6)
	}

	switch conn.Type {
	case "ethernet", "bond-slave", "bridge-slave", "team-slave":
		b.integer("802-3-ethernet.mtu", conn.MTU)
		b.str("802-3-ethernet.cloned-mac-address", conn.MAC)
	case "bond":
		b.bond(&conn)
	case "bridge":
		b.boolean("bridge.stp", conn.STP, true)
		b.intDefault("bridge.priority", conn.Priority, 128)
		b.intDefault("bridge.forward-delay", conn.ForwardDelay, 15)
		b.intDefault("bridge.hello-time", conn.HelloTime, 2)
		b.intDefault("bridge.max-age", conn.MaxAge, 20)
		b.intDefault("bridge.ageing-time", conn.AgeingTime, 300)
		b.str("bridge.mac-address", conn.MAC)
	case "team":
		runner := conn.Runner
		if runner == "" {
			runner = "roundrobin"
		}
		b.str("team.runner", runner)
		b.str("team.runner-hwaddr-policy", conn.RunnerHWAddrPolicy)
		b.optionalBool("team.runner-fast-rate", conn.RunnerFastRate)
	case "vlan":
		b.integer("vlan.id", conn.VlanID)
		b.str("vlan.parent", conn.VlanDev)
		b.integer("vlan.flags", conn.Flags)
		b.list("vlan.ingress-priority-map", conn.Ingress)
		b.list("vlan.egress-priority-map", conn.Egress)
	case "vxlan":
		b.integer("vxlan.id", conn.VxlanID)
		b.str("vxlan.local", conn.VxlanLocal)
		b.str("vxlan.remote", conn.VxlanRemote)
	case "gre", "ipip", "sit":
		b.str("ip-tunnel.mode", conn.Type)
		b.str("ip-tunnel.parent", conn.IPTunnelDev)
		b.str("ip-tunnel.local", conn.IPTunnelLocal)
		b.str("ip-tunnel.remote", conn.IPTunnelRemote)
		if conn.Type == "gre" {
			b.str("ip-tunnel.input-key", conn.IPTunnelInputKey)
			b.str("ip-tunnel.output-key", conn.IPTunnelOutputKey)
		}
	case "wifi":
		b.str("802-11-wireless.ssid", conn.SSID)
		b.integer("802-11-wireless.mtu", conn.MTU)
		b.options("802-11-wireless", conn.Wifi)
		b.options("802-11-wireless-security", conn.WifiSec)
	case "gsm":
		b.options("gsm", conn.GSM)
	case "macvlan":
		b.options("macvlan", conn.Macvlan)
	case "wireguard":
		b.options("wireguard", conn.Wireguard)
	case "vpn":
		b.vpn(conn.VPN)
	case "infiniband":
		b.str("infiniband.transport-mode", conn.TransportMode)
		b.integer("infiniband.mtu", conn.MTU)
		b.str("infiniband.mac-address", conn.MAC)
	case "vrf":
		b.integer("vrf.table", conn.Table)
	}
	b.options("sriov", conn.SRIOV)

	return settings.Desired{Type: conn.Type, Values: b.values}, nil
}

func validate(conn *Connection) error {
	for _, ip := range []ipParams{conn.ip4(), conn.ip6()} {
		if ip.routes != nil && ip.routesExt != nil {
			return invalid("connection %q: routes%s and routes%s_extended are mutually exclusive", conn.Name, ip.suffix(), ip.suffix())
		}
		if ip.neverDefault != nil && *ip.neverDefault && ip.gateway != "" {
			return invalid("connection %q: never_default%s cannot be combined with gw%s", conn.Name, ip.suffix(), ip.suffix())
		}
		if ip.method == "disabled" && len(ip.addresses) > 0 {
			return invalid("connection %q: method%s disabled cannot have ip%s addresses", conn.Name, ip.suffix(), ip.suffix())
		}
	}
	if conn.RunnerFastRate != nil && conn.Runner != "lacp" {
		return invalid("connection %q: runner_fast_rate is only allowed with runner lacp", conn.Name)
	}
	if conn.Type == "wifi" && conn.SSID == "" {
		return invalid("connection %q: type wifi requires ssid", conn.Name)
	}
	return nil
}

func (p ipParams) suffix() string {
	return strings.TrimPrefix(p.family, "ipv")
}

type builder struct {
	values settings.Config
}

func (b *builder) key(family, name string) settings.Key {
	return settings.Key(family + "." + name)
}

func (b *builder) str(k settings.Key, v string) {
	if v != "" {
		b.values[k] = settings.String(v)
	}
}

func (b *builder) boolean(k settings.Key, v *bool, def bool) {
	if v != nil {
		def = *v
	}
	b.values[k] = settings.Bool(def)
}

func (b *builder) optionalBool(k settings.Key, v *bool) {
	if v != nil {
		b.values[k] = settings.Bool(*v)
	}
}

func (b *builder) integer(k settings.Key, v *int) {
	if v != nil {
		b.values[k] = settings.Int(*v)
	}
}

func (b *builder) intDefault(k settings.Key, v *int, def int) {
	if v != nil {
		def = *v
	}
	b.values[k] = settings.Int(def)
}

// list keeps the difference between an absent parameter (nil) and an
// explicit empty one.
func (b *builder) list(k settings.Key, v StringList) {
	if v != nil {
		b.values[k] = settings.List(v...)
	}
}

func (b *builder) ip(p ipParams) {
	method := p.method
	if method == "" && len(p.addresses) > 0 {
		method = "manual"
	}
	b.str(b.key(p.family, "method"), method)
	b.list(b.key(p.family, "addresses"), p.addresses)
	b.str(b.key(p.family, "gateway"), p.gateway)
	b.optionalBool(b.key(p.family, "ignore-auto-routes"), p.gwIgnoreAuto)
	b.list(b.key(p.family, "dns"), p.dns)
	b.list(b.key(p.family, "dns-search"), p.dnsSearch)
	b.list(b.key(p.family, "dns-options"), p.dnsOptions)
	b.optionalBool(b.key(p.family, "ignore-auto-dns"), p.dnsIgnoreAuto)
	b.list(b.key(p.family, "routing-rules"), p.routingRules)
	b.optionalBool(b.key(p.family, "never-default"), p.neverDefault)
	b.optionalBool(b.key(p.family, "may-fail"), p.mayFail)

	switch {
	case p.routes != nil:
		b.list(b.key(p.family, "routes"), p.routes)
	case p.routesExt != nil:
		routes := make([]string, 0, len(p.routesExt))
		for _, r := range p.routesExt {
			routes = append(routes, r.record().String())
		}
		b.values[b.key(p.family, "routes")] = settings.List(routes...)
	}

	if p.routeMetric != nil {
		if *p.routeMetric == -1 {
			b.values[b.key(p.family, "route-metric")] = settings.Unset()
		} else {
			b.values[b.key(p.family, "route-metric")] = settings.Int(*p.routeMetric)
		}
	}
}

func (r Route) record() settings.RouteRecord {
	rec := settings.RouteRecord{
		Dest:    r.IP,
		NextHop: r.NextHop,
		Metric:  r.Metric,
		Table:   r.Table,
		TOS:     r.TOS,
		MTU:     r.MTU,
		OnLink:  r.OnLink,
	}
	if r.CWND != nil || r.Src != "" {
		rec.Attrs = make(map[string]string)
		if r.CWND != nil {
			rec.Attrs["cwnd"] = strconv.Itoa(*r.CWND)
		}
		if r.Src != "" {
			rec.Attrs["src"] = r.Src
		}
	}
	return rec
}

// bond options are expressed with the alias keys the tool expands
// bond.options into.
func (b *builder) bond(conn *Connection) {
	mode := conn.Mode
	if mode == "" {
		mode = "balance-rr"
	}
	b.str("mode", mode)
	b.integer("miimon", conn.Miimon)
	b.integer("downdelay", conn.Downdelay)
	b.integer("updelay", conn.Updelay)
	b.integer("arp_interval", conn.ArpInterval)
	b.str("arp_ip_target", conn.ArpIPTarget)
	b.str("primary", conn.Primary)
	b.str("xmit_hash_policy", conn.XmitHashPolicy)
	b.str("fail_over_mac", conn.FailOverMAC)
}

func (b *builder) options(family string, opts Options) {
	for name, v := range opts {
		b.values[b.key(family, name)] = optionValue(v)
	}
}

func (b *builder) vpn(opts Options) {
	var data []string
	for name, v := range opts {
		switch name {
		case "service-type":
			b.values["vpn.service-type"] = optionValue(v)
		case "permissions":
			b.values["connection.permissions"] = optionList(v)
		default:
			data = append(data, name+"="+fmt.Sprint(v))
		}
	}
	if len(data) > 0 {
		sort.Strings(data)
		b.values["vpn.data"] = settings.String(strings.Join(data, ","))
	}
}

func optionValue(v any) settings.Value {
	switch v := v.(type) {
	case nil:
		return settings.Unset()
	case bool:
		return settings.Bool(v)
	case int:
		return settings.Int(v)
	case string:
		return settings.String(v)
	case []any:
		return optionList(v)
	}
	return settings.String(fmt.Sprint(v))
}

func optionList(v any) settings.Value {
	items, ok := v.([]any)
	if !ok {
		return settings.List(fmt.Sprint(v))
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return settings.List(out...)
}
