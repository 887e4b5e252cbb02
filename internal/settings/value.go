package settings

import (
	"encoding/json"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Key is a dotted setting name such as "ipv4.addresses". Bond option
// aliases ("mode", "miimon") have no family.
type Key string

func (k Key) Family() string {
	if i := strings.IndexByte(string(k), '.'); i >= 0 {
		return string(k[:i])
	}
	return ""
}

func (k Key) Name() string {
	if i := strings.IndexByte(string(k), '.'); i >= 0 {
		return string(k[i+1:])
	}
	return string(k)
}

type valueState uint8

const (
	stateUnset valueState = iota
	stateHidden
	stateScalar
	stateList
)

// Value is an optional setting value. The zero Value is unset.
type Value struct {
	state  valueState
	scalar string
	items  []string
}

func Unset() Value { return Value{} }

// Hidden marks a secret the tool did not reveal.
func Hidden() Value { return Value{state: stateHidden} }

func String(s string) Value { return Value{state: stateScalar, scalar: s} }

func Bool(b bool) Value {
	if b {
		return String("yes")
	}
	return String("no")
}

func Int(n int) Value { return String(strconv.Itoa(n)) }

// List returns a set list value. List() with no items is an explicit empty
// list, which is distinct from Unset.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{state: stateList, items: cp}
}

func (v Value) IsSet() bool    { return v.state == stateScalar || v.state == stateList }
func (v Value) IsHidden() bool { return v.state == stateHidden }
func (v Value) IsList() bool   { return v.state == stateList }

// Empty reports whether v carries no data: unset, hidden or an empty list.
func (v Value) Empty() bool {
	switch v.state {
	case stateScalar:
		return false
	case stateList:
		return len(v.items) == 0
	}
	return true
}

func (v Value) Scalar() (string, bool) {
	return v.scalar, v.state == stateScalar
}

func (v Value) Items() []string {
	if v.state != stateList {
		return nil
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Equal is structural equality. Use Schema.Equal for kind-aware comparison.
func (v Value) Equal(o Value) bool {
	if v.state != o.state {
		return false
	}
	switch v.state {
	case stateScalar:
		return v.scalar == o.scalar
	case stateList:
		return slices.Equal(v.items, o.items)
	}
	return true
}

func (v Value) String() string {
	switch v.state {
	case stateHidden:
		return "<hidden>"
	case stateScalar:
		return v.scalar
	case stateList:
		return "[" + strings.Join(v.items, ", ") + "]"
	}
	return "<unset>"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.state {
	case stateScalar:
		return json.Marshal(v.scalar)
	case stateList:
		return json.Marshal(v.items)
	}
	return []byte("null"), nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch v.state {
	case stateScalar:
		return v.scalar, nil
	case stateList:
		return v.items, nil
	}
	return nil, nil
}

// Config maps setting keys to values.
type Config map[Key]Value

// Get returns the value for k, Unset when absent.
func (c Config) Get(k Key) Value {
	if v, ok := c[k]; ok {
		return v
	}
	return Unset()
}

func (c Config) Keys() []Key {
	keys := make([]Key, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		if v.state == stateList {
			v = List(v.items...)
		}
		out[k] = v
	}
	return out
}

// Desired is the configuration a connection should end up with. Type is the
// user-facing connection type ("ethernet", "wifi", "gre", ...).
type Desired struct {
	Type   string
	Values Config
}

// Current is the configuration reported by the tool. SecretsRevealed is false
// when the tool was queried without revealing secrets.
type Current struct {
	Values          Config
	SecretsRevealed bool
}
