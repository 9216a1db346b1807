package epubcfi

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the epubcfi package.
var (
	// ErrMalformed indicates the CFI string does not follow the grammar.
	// Every *ParseError unwraps to it.
	ErrMalformed = errors.New("epubcfi: malformed CFI")

	// ErrOutOfBounds indicates a step addresses a child that does not exist
	// where the path still needs to descend.
	ErrOutOfBounds = errors.New("epubcfi: step out of bounds")

	// ErrNotElement indicates a step that must lead to an element, because
	// the path continues below it, addresses text or a gap instead.
	ErrNotElement = errors.New("epubcfi: step does not address an element")

	// ErrNoSubdocument indicates an indirection (!) into a node that has no
	// embedded document.
	ErrNoSubdocument = errors.New("epubcfi: indirection into node without subdocument")

	// ErrRangeOrder indicates a range whose start sorts after its end.
	ErrRangeOrder = errors.New("epubcfi: range start after end")

	// ErrNotInTree indicates a node passed to the generator is not reachable
	// from the root of the tree it was given with.
	ErrNotInTree = errors.New("epubcfi: node not in tree")
)

// ParseError reports malformed CFI syntax.
type ParseError struct {
	Input  string // the string being parsed
	Offset int    // byte offset of the offending character
	Msg    string // what was wrong
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("epubcfi: parse %q: offset %d: %s", e.Input, e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// ResolutionError reports a path that cannot be followed through a tree.
type ResolutionError struct {
	Group int   // indirection group of the failing step, -1 for range checks
	Step  int   // step position within the group
	Err   error // one of the sentinel errors above
}

func (e *ResolutionError) Error() string {
	if e.Group < 0 {
		return fmt.Sprintf("epubcfi: resolve: %v", e.Err)
	}
	return fmt.Sprintf("epubcfi: resolve: group %d step %d: %v", e.Group, e.Step, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
