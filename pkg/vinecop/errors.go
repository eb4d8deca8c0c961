package vinecop

import (
	"errors"
	"fmt"

	"github.com/mchmarny/vinecop/pkg/bicop"
)

var (
	// ErrInvalidMatrix is returned when a structure matrix is not a valid
	// R-vine array. Errors carrying it also match bicop.ErrValidation.
	ErrInvalidMatrix = errors.New("not a valid R-vine matrix")

	// ErrStructureMismatch is returned when the pair copulas do not fit the
	// dimension of the structure matrix.
	ErrStructureMismatch = errors.New("pair copulas do not match structure")

	// ErrIndexOutOfRange is returned by accessors for (tree, edge) pairs
	// outside of the triangular pair copula array.
	ErrIndexOutOfRange = errors.New("index out of range")
)

func invalidMatrixf(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidMatrix, bicop.ErrValidation, fmt.Sprintf(format, args...))
}

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructureMismatch, fmt.Sprintf(format, args...))
}

func indexErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIndexOutOfRange, fmt.Sprintf(format, args...))
}
