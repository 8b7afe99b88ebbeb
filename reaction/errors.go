package reaction

import (
	"errors"
	"fmt"
)

// TimeName is the reserved name of the independent variable.
const TimeName = "t"

var (
	// ErrInvalidName indicates an empty name or one containing operator characters.
	ErrInvalidName = errors.New("reaction: invalid name")

	// ErrReservedName indicates a declaration that shadows the independent variable.
	ErrReservedName = errors.New("reaction: reserved name")

	// ErrDuplicateName indicates a second declaration with the same qualified name.
	ErrDuplicateName = errors.New("reaction: duplicate name")

	// ErrBadTerm indicates a reaction term with a nil species or a non-positive stoichiometry.
	ErrBadTerm = errors.New("reaction: invalid reaction term")

	// ErrCyclicDefault indicates defaults that reference each other.
	ErrCyclicDefault = errors.New("reaction: cyclic default")

	// ErrMissingValue indicates a parameter without default and without override.
	ErrMissingValue = errors.New("reaction: missing value")
)

// UnknownQuantityError reports a name that is not declared in a network.
type UnknownQuantityError struct {
	Name    string
	Network string
}

func (e *UnknownQuantityError) Error() string {
	return fmt.Sprintf("reaction: %q is not a quantity of %s", e.Name, e.Network)
}
