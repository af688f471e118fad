package il

import "github.com/pkg/errors"

func duplicateLabelError(name string) error {
	return errors.Errorf("label %q defined more than once", name)
}

func undefinedLabelError(name string) error {
	return errors.Errorf("jump targets undefined label %q", name)
}
