package nmcli

import (
	"strings"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// RenderArgs turns values into "property value" argument pairs for
// "nmcli con add" and "nmcli con modify". Unset values render as "" which
// clears the property. Bond option aliases are folded back into bond.options.
func RenderArgs(schema *settings.Schema, values settings.Config) []string {
	var args []string
	var bond []string
	for _, k := range values.Keys() {
		if schema.IsBondOption(k) {
			if s, ok := renderValue(schema, k, values[k]); ok && s != "" {
				bond = append(bond, string(k)+"="+s)
			}
			continue
		}
		s, ok := renderValue(schema, k, values[k])
		if !ok {
			continue
		}
		args = append(args, string(k), s)
	}
	if len(bond) > 0 {
		args = append(args, string(bondOptions), strings.Join(bond, ","))
	}
	return args
}

// renderValue returns false for hidden values, which must never be written.
func renderValue(schema *settings.Schema, k settings.Key, v settings.Value) (string, bool) {
	if v.IsHidden() {
		return "", false
	}
	if !v.IsSet() {
		return "", true
	}
	if s, ok := v.Scalar(); ok {
		return s, true
	}

	items := v.Items()
	if schema.Lookup(k).Kind == settings.KindRouteList {
		for i, item := range items {
			if r, err := settings.ParseRoute(item); err == nil {
				items[i] = r.String()
			}
		}
	}
	return strings.Join(items, ","), true
}
