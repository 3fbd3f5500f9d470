package zonefile

import "fmt"

// ParseError is returned for any fatal problem encountered while tokenizing
// or parsing a zone file. It carries the 1-based source line number so
// callers can report diagnostics the way a zone administrator expects.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("zone file line %d: %s", e.Line, e.Msg)
}
