package loop

import (
	"errors"
	"fmt"
)

var (
	// ErrUninferableReplicates indicates a loop that owns no state or
	// parameter slots but still contributes to shared variables, so the
	// replicate count cannot be recovered from the vectors.
	ErrUninferableReplicates = errors.New("loop: replicate count cannot be inferred from an empty replicate layout")

	// ErrUnknownOutputPolicy indicates an output policy other than ignore, sum or index_as_suffix.
	ErrUnknownOutputPolicy = errors.New("loop: unknown output policy")

	// ErrSharedParameter indicates a shared name that the loop declares as a parameter.
	ErrSharedParameter = errors.New("loop: shared name is a loop parameter")

	// ErrNoSavePoints indicates a solve request without output times.
	ErrNoSavePoints = errors.New("loop: no save points")
)

// LayoutMismatchError reports a vector whose length is not Base + N*Step
// for the N implied by the other vectors.
type LayoutMismatchError struct {
	Vector string
	Length int
	Base   int
	Step   int
	Want   int // expected length when N is already known, else -1
}

func (e *LayoutMismatchError) Error() string {
	if e.Want >= 0 {
		return fmt.Sprintf("loop: %s has length %d, want %d", e.Vector, e.Length, e.Want)
	}
	return fmt.Sprintf("loop: %s has length %d, not %d + N*%d", e.Vector, e.Length, e.Base, e.Step)
}

// OverrideLengthError reports a per-replicate override whose length differs
// from the replicate count implied by the other overrides.
type OverrideLengthError struct {
	Name string
	Got  int
	Want int
}

func (e *OverrideLengthError) Error() string {
	return fmt.Sprintf("loop: override %q has %d values, want %d", e.Name, e.Got, e.Want)
}

// DanglingSharedVariableError reports a shared variable that the main
// system does not declare.
type DanglingSharedVariableError struct {
	Name string
}

func (e *DanglingSharedVariableError) Error() string {
	return fmt.Sprintf("loop: shared variable %q is not a variable of the main system", e.Name)
}
