package bicop

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every construction failure in this package.
	ErrValidation = errors.New("invalid bicop")

	ErrUnknownFamily   = errors.New("unknown family")
	ErrRotation        = errors.New("rotation must be one of {0, 90, 180, 270}")
	ErrParameterCount  = errors.New("wrong number of parameters")
	ErrParameterDomain = errors.New("parameter out of domain")

	// ErrUnsupported is returned by operations that are not defined for a family.
	ErrUnsupported = errors.New("operation not supported for family")
)

func invalidf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, kind, fmt.Sprintf(format, args...))
}
