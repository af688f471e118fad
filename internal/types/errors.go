package types

import "github.com/pkg/errors"

// ErrNoSuchLabel is returned by Close when no LABEL node in the array
// carries the requested name.
var ErrNoSuchLabel = errors.New("no such label")

// ErrOpenOnAlgebra is returned when subtype/union/etc. algebra is
// asked to operate on a Type that still contains LABEL nodes — the
// algebra is defined only on closed types.
var ErrOpenOnAlgebra = errors.New("algebra is undefined on open (labelled) types")

func noSuchLabel(name string) error {
	return errors.Wrapf(ErrNoSuchLabel, "label %q", name)
}
