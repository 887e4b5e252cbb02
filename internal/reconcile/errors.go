package reconcile

import (
	"errors"
	"fmt"

	"github.com/evanofslack/nmcli-sync/internal/settings"
)

// Kind identifies the class of a reconcile error.
type Kind string

const (
	// KindContract means the caller handed over a desired config that breaks
	// the connection type's requirements.
	KindContract Kind = "contract"
)

var ErrMissingRequired = errors.New("missing required setting")

type Error struct {
	Kind     Kind
	ConnType string
	Key      settings.Key
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s connection: %s: %v", e.Kind, e.ConnType, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
