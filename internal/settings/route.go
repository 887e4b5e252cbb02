package settings

import (
	"fmt"
	"net/netip"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const defaultToken = "default"

// RouteRecord is one static route entry of an ipv4.routes/ipv6.routes list.
type RouteRecord struct {
	Dest    string
	NextHop string
	Metric  *int
	Table   *int
	TOS     *int
	MTU     *int
	OnLink  *bool
	Attrs   map[string]string
}

var routeAttr = regexp.MustCompile(`([\w-]+)\s*=\s*([^\s,}]+)`)

// ParseRoute accepts both the nmcli route string form
// ("192.168.200.0/24 192.168.1.1 10 table=5") and the record form printed
// by "con show" ("{ ip = 192.168.200.0/24, nh = 192.168.1.1, mt = 10 }").
func ParseRoute(s string) (RouteRecord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RouteRecord{}, fmt.Errorf("empty route")
	}
	if strings.HasPrefix(s, "{") {
		return parseRouteRecord(s)
	}
	return parseRouteString(s)
}

func parseRouteRecord(s string) (RouteRecord, error) {
	var r RouteRecord
	for _, m := range routeAttr.FindAllStringSubmatch(s, -1) {
		if err := r.set(m[1], m[2]); err != nil {
			return RouteRecord{}, err
		}
	}
	if r.Dest == "" {
		return RouteRecord{}, fmt.Errorf("route %q has no destination", s)
	}
	return r, nil
}

func parseRouteString(s string) (RouteRecord, error) {
	fields := strings.Fields(s)
	r := RouteRecord{Dest: fields[0]}
	for _, f := range fields[1:] {
		if k, v, ok := strings.Cut(f, "="); ok {
			if err := r.set(k, v); err != nil {
				return RouteRecord{}, err
			}
			continue
		}
		if _, err := netip.ParseAddr(f); err == nil && r.NextHop == "" && r.Metric == nil {
			r.NextHop = f
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || r.Metric != nil {
			return RouteRecord{}, fmt.Errorf("route %q: unexpected field %q", s, f)
		}
		r.Metric = &n
	}
	return r, nil
}

func (r *RouteRecord) set(key, value string) error {
	key = strings.ToLower(key)
	switch key {
	case "ip", "dest":
		r.Dest = value
	case "nh", "next_hop", "next-hop":
		r.NextHop = value
	case "mt", "metric":
		return setInt(&r.Metric, key, value)
	case "table":
		return setInt(&r.Table, key, value)
	case "tos":
		return setInt(&r.TOS, key, value)
	case "mtu":
		return setInt(&r.MTU, key, value)
	case "onlink":
		b, ok := parseBool(value)
		if !ok {
			return fmt.Errorf("route attribute onlink: invalid boolean %q", value)
		}
		r.OnLink = &b
	default:
		if r.Attrs == nil {
			r.Attrs = make(map[string]string)
		}
		r.Attrs[key] = strings.ToLower(value)
	}
	return nil
}

func setInt(dst **int, key, value string) error {
	n, err := parseInt(value)
	if err != nil {
		return fmt.Errorf("route attribute %s: %w", key, err)
	}
	*dst = &n
	return nil
}

// String renders the record in the form nmcli accepts on the command line.
func (r RouteRecord) String() string {
	var b strings.Builder
	b.WriteString(r.Dest)
	if r.NextHop != "" {
		b.WriteString(" " + r.NextHop)
	}
	if r.Metric != nil {
		b.WriteString(" " + strconv.Itoa(*r.Metric))
	}
	attrs := r.attributes()
	for _, k := range sortedKeys(attrs) {
		b.WriteString(" " + k + "=" + attrs[k])
	}
	return b.String()
}

func (r RouteRecord) attributes() map[string]string {
	attrs := make(map[string]string, len(r.Attrs)+4)
	for k, v := range r.Attrs {
		attrs[k] = v
	}
	if r.Table != nil {
		attrs["table"] = strconv.Itoa(*r.Table)
	}
	if r.TOS != nil {
		attrs["tos"] = strconv.Itoa(*r.TOS)
	}
	if r.MTU != nil {
		attrs["mtu"] = strconv.Itoa(*r.MTU)
	}
	if r.OnLink != nil {
		attrs["onlink"] = strconv.FormatBool(*r.OnLink)
	}
	return attrs
}

// Canonical renders the record so that two records describing the same route
// compare equal: absent optional fields and their implicit defaults share the
// "default" token.
func (r RouteRecord) Canonical() (string, error) {
	dest, err := canonicalPrefix(r.Dest)
	if err != nil {
		return "", err
	}
	nh := defaultToken
	if r.NextHop != "" {
		addr, err := netip.ParseAddr(r.NextHop)
		if err != nil {
			return "", fmt.Errorf("route %s: next hop: %w", r.Dest, err)
		}
		if !addr.IsUnspecified() {
			nh = addr.String()
		}
	}
	onlink := "false"
	if r.OnLink != nil && *r.OnLink {
		onlink = "true"
	}
	fields := []string{
		"ip=" + dest,
		"nh=" + nh,
		"metric=" + optionalInt(r.Metric, -1),
		"table=" + optionalInt(r.Table, 0),
		"tos=" + optionalInt(r.TOS, 0),
		"mtu=" + optionalInt(r.MTU, 0),
		"onlink=" + onlink,
	}
	for _, k := range sortedKeys(r.Attrs) {
		fields = append(fields, k+"="+r.Attrs[k])
	}
	return "{" + strings.Join(fields, ",") + "}", nil
}

func optionalInt(v *int, implicit int) string {
	if v == nil || *v == implicit {
		return defaultToken
	}
	return strconv.Itoa(*v)
}

func canonicalPrefix(s string) (string, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return "", err
		}
		return p.String(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", err
	}
	return netip.PrefixFrom(addr, addr.BitLen()).String(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
