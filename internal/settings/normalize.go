package settings

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Placeholders the tool prints instead of a value.
const (
	PlaceholderUnset  = "--"
	PlaceholderHidden = "<hidden>"
)

var globalUnsetTokens = []string{PlaceholderUnset, ""}

// Placeholder maps a literal the tool printed for k to Unset or Hidden.
// ok is false when raw is a real value.
func (s *Schema) Placeholder(k Key, raw string) (Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == PlaceholderHidden {
		return Hidden(), true
	}
	if slices.Contains(globalUnsetTokens, raw) || slices.Contains(s.Lookup(k).UnsetTokens, raw) {
		return Unset(), true
	}
	return Value{}, false
}

// Normalize brings v into the canonical form of k's kind. Scalars that cannot
// be coerced to a Bool or Int kind are reported as Unset. List items that
// cannot be canonicalized are kept as written.
func (s *Schema) Normalize(k Key, v Value) Value {
	if !v.IsSet() {
		return v
	}
	spec := s.Lookup(k)
	if spec.Kind.IsList() {
		return s.normalizeList(k, spec, v)
	}

	raw, ok := v.Scalar()
	if !ok {
		raw = strings.Join(v.items, ",")
	}
	if p, ok := s.Placeholder(k, raw); ok {
		return p
	}
	if spec.Normalize != nil {
		raw = spec.Normalize(raw)
	}
	switch spec.Kind {
	case KindBool:
		b, ok := parseBool(raw)
		if !ok {
			slog.Debug("Treating non-boolean setting value as unset", "key", k, "value", raw)
			return Unset()
		}
		return Bool(b)
	case KindInt:
		n, err := parseInt(raw)
		if err != nil {
			slog.Debug("Treating non-integer setting value as unset", "key", k, "value", raw)
			return Unset()
		}
		if p, ok := s.Placeholder(k, strconv.Itoa(n)); ok {
			return p
		}
		return Int(n)
	}
	return String(raw)
}

func (s *Schema) normalizeList(k Key, spec Spec, v Value) Value {
	var items []string
	if raw, ok := v.Scalar(); ok {
		if p, ok := s.Placeholder(k, raw); ok {
			return p
		}
		items = splitList(raw, spec.Kind)
	} else {
		items = v.items
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || item == PlaceholderUnset {
			continue
		}
		if spec.Kind == KindRouteList {
			// an unparsable record stays in the list as written
			if canonical, err := canonicalRoute(item); err == nil {
				item = canonical
			} else {
				slog.Debug("Comparing unparsable route as written", "key", k, "route", item, "error", err)
			}
		} else if spec.Normalize != nil {
			item = spec.Normalize(item)
		}
		out = append(out, item)
	}
	if spec.Kind == KindUnorderedList {
		sortStrings(out)
		out = slices.Compact(out)
	}
	return List(out...)
}

func canonicalRoute(s string) (string, error) {
	r, err := ParseRoute(s)
	if err != nil {
		return "", err
	}
	return r.Canonical()
}

func splitList(raw string, kind Kind) []string {
	if kind == KindRouteList {
		return strings.Split(raw, ";")
	}
	return strings.Split(raw, ",")
}

// Equal compares two values of k under the rule of k's kind. Both values are
// normalized first.
func (s *Schema) Equal(k Key, a, b Value) bool {
	a, b = s.Normalize(k, a), s.Normalize(k, b)
	if s.Lookup(k).Kind.IsList() {
		// An empty list and an unset value both mean "no entries".
		if a.Empty() || b.Empty() {
			return a.Empty() && b.Empty()
		}
		return slices.Equal(a.items, b.items)
	}
	if !a.IsSet() || !b.IsSet() {
		return a.IsSet() == b.IsSet()
	}
	return a.scalar == b.scalar
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "on", "1":
		return true, true
	case "no", "false", "off", "0":
		return false, true
	}
	return false, false
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		n, err := strconv.ParseInt(h, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex integer %q", s)
		}
		return int(n), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func sortStrings(s []string) { sort.Strings(s) }
