package nmcli

import (
	"bufio"
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// nmcli decorates some enum values with their names, e.g. "1 (default)" or
// "0x1 (default)". Only the number is kept.
var enumValue = regexp.MustCompile(`^(-?\d+|0x[0-9A-Fa-f]+) \(([^)]*)\)$`)

const bondOptions settings.Key = "bond.options"

// ParseShow parses the output of "nmcli con show <name>". revealed tells
// whether the command ran with --show-secrets.
func ParseShow(out []byte, schema *settings.Schema, revealed bool) settings.Current {
	current := settings.Current{
		Values:          make(settings.Config),
		SecretsRevealed: revealed,
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, raw, ok := strings.Cut(line, ":")
		if !ok {
			slog.Debug("Skipping nmcli output line without separator", "line", line)
			continue
		}
		key := settings.Key(strings.TrimSpace(name))
		if isRuntimeSection(key) {
			continue
		}
		raw = strings.TrimSpace(raw)

		if key == bondOptions {
			for k, v := range parseBondOptions(raw) {
				current.Values[k] = v
			}
			continue
		}
		current.Values[key] = parseValue(schema, key, raw)
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Failed reading nmcli output", "error", err)
	}
	return current
}

func parseValue(schema *settings.Schema, key settings.Key, raw string) settings.Value {
	if m := enumValue.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if p, ok := schema.Placeholder(key, raw); ok {
		return p
	}

	switch schema.Lookup(key).Kind {
	case settings.KindRouteList:
		return settings.List(splitItems(raw, ";")...)
	case settings.KindOrderedList, settings.KindUnorderedList:
		return settings.List(splitItems(raw, ",")...)
	}
	return settings.String(raw)
}

func splitItems(raw, sep string) []string {
	var items []string
	for _, item := range strings.Split(raw, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseBondOptions expands "mode=active-backup,miimon=100" into alias keys.
func parseBondOptions(raw string) settings.Config {
	out := make(settings.Config)
	if raw == settings.PlaceholderUnset {
		return out
	}
	for _, opt := range splitItems(raw, ",") {
		k, v, ok := strings.Cut(opt, "=")
		if !ok {
			slog.Debug("Skipping malformed bond option", "option", opt)
			continue
		}
		out[settings.Key(strings.TrimSpace(k))] = settings.String(strings.TrimSpace(v))
	}
	return out
}

// isRuntimeSection reports whether key belongs to the active-connection
// sections ("GENERAL.STATE", "IP4.ADDRESS[1]") rather than the profile.
func isRuntimeSection(key settings.Key) bool {
	family := key.Family()
	if family == "" {
		return false
	}
	for _, r := range family {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}
