// Package xerrors defines the sentinel error taxonomy shared across the
// star-tracker pipeline. Every fallible operation in the core returns one
// of these, wrapped with context via fmt.Errorf("...: %w", ...) at the
// call site, so that callers can distinguish failure classes with
// errors.Is without parsing strings.
package xerrors

import "errors"

/*****************************************************************************************************************/

var (
	// ErrOutOfBounds indicates an index outside a list or image grid.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrInvalidSize indicates a container is full, a histogram bin count
	// is impossible (0 or > 256), or two dimensions that were expected to
	// match do not.
	ErrInvalidSize = errors.New("invalid size")

	// ErrInvalidValue indicates a K-vector query outside [min, max], a
	// look_at with colinear vectors, or a degenerate input to QUEST.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNoMatch indicates a lookup returned no element. Not fatal at the
	// component level — only the pipeline treats it as terminal.
	ErrNoMatch = errors.New("no match")

	// ErrNaN indicates an arithmetic operation produced a non-finite value.
	ErrNaN = errors.New("not a number")
)

/*****************************************************************************************************************/
