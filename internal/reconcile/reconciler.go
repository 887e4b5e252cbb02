package reconcile

import (
	"log/slog"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// Reconciler compares a desired connection config against the config the
// tool reports and computes the settings that need to change.
type Reconciler struct {
	schema *settings.Schema
}

func New(schema *settings.Schema) *Reconciler {
	return &Reconciler{schema: schema}
}

// Validate checks that desired carries every setting its connection type
// requires.
func (r *Reconciler) Validate(desired settings.Desired) error {
	if desired.Type == "" {
		return &Error{Kind: KindContract, Key: "connection.type", Err: ErrMissingRequired}
	}
	for _, k := range r.schema.Required(desired.Type) {
		if !desired.Values.Get(k).IsSet() {
			return &Error{Kind: KindContract, ConnType: desired.Type, Key: k, Err: ErrMissingRequired}
		}
	}
	return nil
}

// Reconcile reports whether current must change to match desired and which
// settings differ. Only keys present in desired are compared. Secret settings
// are left out when the tool did not reveal them. Neither input is modified.
func (r *Reconciler) Reconcile(desired settings.Desired, current settings.Current) (bool, Diff, error) {
	if err := r.Validate(desired); err != nil {
		return false, Diff{}, err
	}

	diff := newDiff()
	for _, k := range desired.Values.Keys() {
		want := desired.Values[k]
		have := current.Values.Get(k)

		if r.schema.IsSecret(k) && (!current.SecretsRevealed || have.IsHidden()) {
			slog.Debug("Skipping comparison of unrevealed secret", "key", k)
			diff.Skipped = append(diff.Skipped, k)
			continue
		}
		if r.schema.Equal(k, want, have) {
			continue
		}
		diff.Before[k] = r.schema.Normalize(k, have)
		diff.After[k] = r.schema.Normalize(k, want)
	}
	return !diff.Empty(), diff, nil
}
