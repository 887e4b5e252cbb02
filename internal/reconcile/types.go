package reconcile

import (
	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// Diff holds the settings that differ between desired and current, in
// normalized form. Before and After always share the same keys.
type Diff struct {
	Before settings.Config `json:"before" yaml:"before"`
	After  settings.Config `json:"after" yaml:"after"`
	// Skipped lists secret settings that could not be compared.
	Skipped []settings.Key `json:"-" yaml:"-"`
}

func newDiff() Diff {
	return Diff{
		Before: make(settings.Config),
		After:  make(settings.Config),
	}
}

func (d Diff) Empty() bool {
	return len(d.After) == 0
}

// Keys returns the differing keys in sorted order.
func (d Diff) Keys() []settings.Key {
	return d.After.Keys()
}

type Operation struct {
	Name string
	// Type is the nmcli type name used on create.
	Type     string
	ConnType string
	Values   settings.Config
	Diff     Diff
}

type Plan struct {
	Create []Operation
	Update []Operation
	Delete []Operation
}

func (p Plan) IsEmpty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

type Results struct {
	Created   []string          `json:"created,omitempty" yaml:"created,omitempty"`
	Modified  []string          `json:"modified,omitempty" yaml:"modified,omitempty"`
	Deleted   []string          `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Unchanged []string          `json:"unchanged,omitempty" yaml:"unchanged,omitempty"`
	Diffs     map[string]Diff   `json:"diffs,omitempty" yaml:"diffs,omitempty"`
	Failures  []OperationResult `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Changed reports whether any connection was (or in dry-run would be)
// created, modified or deleted.
func (r Results) Changed() bool {
	return len(r.Created) > 0 || len(r.Modified) > 0 || len(r.Deleted) > 0
}

type OperationResult struct {
	Name  string `json:"name" yaml:"name"`
	Op    string `json:"op" yaml:"op"`
	Error string `json:"error" yaml:"error"`
}
