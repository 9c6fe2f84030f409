package binning

import "github.com/pkg/errors"

// ErrInvalidArgument is returned, wrapped, when an operation is called with a
// value outside its domain.
var ErrInvalidArgument = errors.New("invalid argument")

// IsInvalidArgument reports whether err was caused by ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return err != nil && errors.Cause(err) == ErrInvalidArgument
}
