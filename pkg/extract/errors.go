package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrParse means the document does not have the expected structure.
	ErrParse = errors.New("document does not match expected structure")
	// ErrField means one field of a well-formed document could not be read.
	ErrField      = errors.New("field could not be extracted")
	ErrMissing    = errors.New("missing element")
	ErrNoSessions = errors.New("no sessions found in catalog")
)

// FieldError locates a field failure inside a repeated element, e.g. the
// vote_date of the third vote.
type FieldError struct {
	Element string
	Index   int
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s[%d].%s: %v", e.Element, e.Index, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Is(target error) bool {
	return target == ErrField
}
