package experience

import "fmt"

// ParseError describes why raw experience data could not be flattened.
// Index is the employer block (-1 for the document itself), Position the
// 1-based sub-position when the failure is inside "positions".
type ParseError struct {
	Index    int
	Position int
	Err      error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("parsing experience: %v", e.Err)
	case e.Position > 0:
		return fmt.Sprintf("parsing experience block %d position %d: %v", e.Index, e.Position, e.Err)
	default:
		return fmt.Sprintf("parsing experience block %d: %v", e.Index, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
