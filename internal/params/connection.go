package params

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// StringList accepts either a sequence or a single comma-separated string. An
// explicit empty sequence ("[]") decodes to a non-nil empty list, which clears
// the setting.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = splitScalar(node.Value)
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected string or list", node.Line)
}

func splitScalar(s string) StringList {
	out := StringList{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Options holds free-form "setting: value" pairs of one family (wifi,
// wifi_sec, gsm, ...).
type Options map[string]any

// Route is one entry of routes4_extended/routes6_extended.
type Route struct {
	IP      string `yaml:"ip"`
	NextHop string `yaml:"next_hop"`
	Metric  *int   `yaml:"metric"`
	Table   *int   `yaml:"table"`
	TOS     *int   `yaml:"tos"`
	CWND    *int   `yaml:"cwnd"`
	MTU     *int   `yaml:"mtu"`
	OnLink  *bool  `yaml:"onlink"`
	Src     string `yaml:"src"`
}

// Connection is the declarative description of one NetworkManager
// connection profile.
type Connection struct {
	Name        string `yaml:"conn_name"`
	Type        string `yaml:"type"`
	State       string `yaml:"state"`
	Ifname      string `yaml:"ifname"`
	Autoconnect *bool  `yaml:"autoconnect"`
	Master      string `yaml:"master"`
	SlaveType   string `yaml:"slave_type"`
	Zone        string `yaml:"zone"`
	MTU         *int   `yaml:"mtu"`
	MAC         string `yaml:"mac"`

	Method4        string     `yaml:"method4"`
	IP4            StringList `yaml:"ip4"`
	GW4            string     `yaml:"gw4"`
	GW4IgnoreAuto  *bool      `yaml:"gw4_ignore_auto"`
	DNS4           StringList `yaml:"dns4"`
	DNS4Search     StringList `yaml:"dns4_search"`
	DNS4Options    StringList `yaml:"dns4_options"`
	DNS4IgnoreAuto *bool      `yaml:"dns4_ignore_auto"`
	Routes4        StringList `yaml:"routes4"`
	Routes4Ext     []Route    `yaml:"routes4_extended"`
	RouteMetric4   *int       `yaml:"route_metric4"`
	RoutingRules4  StringList `yaml:"routing_rules4"`
	NeverDefault4  *bool      `yaml:"never_default4"`
	MayFail4       *bool      `yaml:"may_fail4"`

	Method6        string     `yaml:"method6"`
	IP6            StringList `yaml:"ip6"`
	GW6            string     `yaml:"gw6"`
	GW6IgnoreAuto  *bool      `yaml:"gw6_ignore_auto"`
	DNS6           StringList `yaml:"dns6"`
	DNS6Search     StringList `yaml:"dns6_search"`
	DNS6Options    StringList `yaml:"dns6_options"`
	DNS6IgnoreAuto *bool      `yaml:"dns6_ignore_auto"`
	Routes6        StringList `yaml:"routes6"`
	Routes6Ext     []Route    `yaml:"routes6_extended"`
	RouteMetric6   *int       `yaml:"route_metric6"`
	RoutingRules6  StringList `yaml:"routing_rules6"`
	NeverDefault6  *bool      `yaml:"never_default6"`
	MayFail6       *bool      `yaml:"may_fail6"`
	IPPrivacy6     string     `yaml:"ip_privacy6"`
	AddrGenMode6   string     `yaml:"addr_gen_mode6"`

	// bond
	Mode           string `yaml:"mode"`
	Miimon         *int   `yaml:"miimon"`
	Downdelay      *int   `yaml:"downdelay"`
	Updelay        *int   `yaml:"updelay"`
	ArpInterval    *int   `yaml:"arp_interval"`
	ArpIPTarget    string `yaml:"arp_ip_target"`
	Primary        string `yaml:"primary"`
	XmitHashPolicy string `yaml:"xmit_hash_policy"`
	FailOverMAC    string `yaml:"fail_over_mac"`

	// bridge and bridge port
	STP           *bool `yaml:"stp"`
	Priority      *int  `yaml:"priority"`
	ForwardDelay  *int  `yaml:"forwarddelay"`
	HelloTime     *int  `yaml:"hellotime"`
	MaxAge        *int  `yaml:"maxage"`
	AgeingTime    *int  `yaml:"ageingtime"`
	PathCost      *int  `yaml:"path_cost"`
	Hairpin       *bool `yaml:"hairpin"`
	SlavePriority *int  `yaml:"slavepriority"`

	// team
	Runner             string `yaml:"runner"`
	RunnerFastRate     *bool  `yaml:"runner_fast_rate"`
	RunnerHWAddrPolicy string `yaml:"runner_hwaddr_policy"`

	// vlan
	VlanID  *int       `yaml:"vlanid"`
	VlanDev string     `yaml:"vlandev"`
	Flags   *int       `yaml:"flags"`
	Egress  StringList `yaml:"egress"`
	Ingress StringList `yaml:"ingress"`

	// vxlan
	VxlanID     *int   `yaml:"vxlan_id"`
	VxlanLocal  string `yaml:"vxlan_local"`
	VxlanRemote string `yaml:"vxlan_remote"`

	// ip tunnels (gre, ipip, sit)
	IPTunnelDev       string `yaml:"ip_tunnel_dev"`
	IPTunnelLocal     string `yaml:"ip_tunnel_local"`
	IPTunnelRemote    string `yaml:"ip_tunnel_remote"`
	IPTunnelInputKey  string `yaml:"ip_tunnel_input_key"`
	IPTunnelOutputKey string `yaml:"ip_tunnel_output_key"`

	SSID          string `yaml:"ssid"`
	TransportMode string `yaml:"transport_mode"`
	Table         *int   `yaml:"table"`

	Wifi      Options `yaml:"wifi"`
	WifiSec   Options `yaml:"wifi_sec"`
	GSM       Options `yaml:"gsm"`
	Macvlan   Options `yaml:"macvlan"`
	Wireguard Options `yaml:"wireguard"`
	VPN       Options `yaml:"vpn"`
	SRIOV     Options `yaml:"sriov"`

	// Secrets maps a parameter path ("wifi_sec.psk") to a lookup key whose
	// value is filled in before the connection is built.
	Secrets map[string]string `yaml:"secrets"`
}

// IsAbsent reports whether the connection should be removed.
func (c *Connection) IsAbsent() bool {
	return c.State == StateAbsent
}

// SetParam sets the parameter at path to value. Paths name either a plain
// parameter ("ip_tunnel_input_key") or a key of an options map
// ("wifi_sec.psk").
func (c *Connection) SetParam(path, value string) error {
	if family, key, ok := cutPath(path); ok {
		opts, err := c.options(family)
		if err != nil {
			return err
		}
		(*opts)[key] = value
		return nil
	}

	switch path {
	case "ip_tunnel_input_key":
		c.IPTunnelInputKey = value
	case "ip_tunnel_output_key":
		c.IPTunnelOutputKey = value
	case "ssid":
		c.SSID = value
	default:
		return fmt.Errorf("parameter %q cannot be set from a lookup", path)
	}
	return nil
}

func (c *Connection) options(family string) (*Options, error) {
	var opts *Options
	switch family {
	case "wifi":
		opts = &c.Wifi
	case "wifi_sec":
		opts = &c.WifiSec
	case "gsm":
		opts = &c.GSM
	case "macvlan":
		opts = &c.Macvlan
	case "wireguard":
		opts = &c.Wireguard
	case "vpn":
		opts = &c.VPN
	case "sriov":
		opts = &c.SRIOV
	default:
		return nil, fmt.Errorf("unknown parameter family %q", family)
	}
	// copy so a map shared with the caller's definition is left untouched
	cp := make(Options, len(*opts)+1)
	for k, v := range *opts {
		cp[k] = v
	}
	*opts = cp
	return opts, nil
}

func cutPath(path string) (string, string, bool) {
	family, key, ok := strings.Cut(path, ".")
	return family, key, ok && family != "" && key != ""
}
