package epubcfi

// Side is a side bias carried by an assertion (;s=b or ;s=a). It picks one
// side of a boundary that would otherwise be ambiguous, such as an offset
// that falls exactly between two adjacent text nodes.
type Side int

const (
	// SideNone means no side bias was given.
	SideNone Side = iota

	// SideBefore is the s=b bias: prefer the position before the boundary.
	SideBefore

	// SideAfter is the s=a bias: prefer the position after the boundary.
	SideAfter
)

func (s Side) String() string {
	switch s {
	case SideBefore:
		return "before"
	case SideAfter:
		return "after"
	default:
		return "none"
	}
}

// Step is one segment of a CFI path.
//
// Index follows the parity convention of the addressing scheme: an even
// index 2k+2 addresses the k-th child element, an odd index addresses the
// text (or empty gap) between two element children. Steps are values and are
// never modified after parsing or generation.
type Step struct {
	// Index is the doubled child position. Never negative.
	Index int

	// ID is the identifier assertion ([id]). Empty means none.
	ID string

	// Offset is the character offset (:N) into the addressed text.
	// Valid only when HasOffset is true.
	Offset    int
	HasOffset bool

	// Temporal is the time offset (~N) in seconds for audio/video content.
	Temporal    float64
	HasTemporal bool

	// Spatial is the spatial offset (@X:Y) as percentages. Nil means none.
	Spatial []float64

	// Text is the text-location assertion attached to an offset
	// (:N[before,after]). Nil means none.
	Text []string

	// Side is the side bias attached to the step's assertion.
	Side Side
}

// Group is the sequence of steps inside one indirection level.
type Group []Step

// Path is a non-empty sequence of groups separated by indirections (!).
// Group 0 addresses the section; later groups address into the section's
// own tree and any documents embedded in it.
type Path []Group

// Last returns the final step of the path, or a zero Step when p is empty.
func (p Path) Last() Step {
	if len(p) == 0 || len(p[len(p)-1]) == 0 {
		return Step{}
	}
	g := p[len(p)-1]
	return g[len(g)-1]
}

// CFI is a parsed canonical fragment identifier. A point location has only
// Parent set. A range has Start and End as well; both are suffixes relative
// to Parent whose first group continues Parent's last group.
type CFI struct {
	Parent Path
	Start  Path
	End    Path
}

// IsRange reports whether c describes a span rather than a point.
func (c CFI) IsRange() bool {
	return c.Start != nil || c.End != nil
}

// Collapse returns the point at one end of c. For a point CFI it returns
// Parent. For a range it joins Parent with Start, or with End when toEnd is
// true. The result shares no memory with c.
func (c CFI) Collapse(toEnd bool) Path {
	if !c.IsRange() {
		return clonePath(c.Parent)
	}
	if toEnd {
		return joinPath(c.Parent, c.End)
	}
	return joinPath(c.Parent, c.Start)
}

// joinPath appends suffix to base. The first group of suffix continues the
// last group of base.
func joinPath(base, suffix Path) Path {
	out := clonePath(base)
	if len(suffix) == 0 {
		return out
	}
	if len(out) == 0 {
		return append(out, clonePath(suffix)...)
	}
	last := len(out) - 1
	out[last] = append(out[last], suffix[0]...)
	for _, g := range suffix[1:] {
		out = append(out, append(Group(nil), g...))
	}
	return out
}

func clonePath(p Path) Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	for i, g := range p {
		out[i] = append(Group(nil), g...)
	}
	return out
}

// Point is a resolved position inside a tree.
//
// With Side == SideNone the position is Node itself, or a character offset
// into it when HasOffset is set. SideBefore and SideAfter denote the
// boundary immediately before or after Node, used for gaps that hold no text.
type Point[N comparable] struct {
	Node      N
	Offset    int
	HasOffset bool
	Side      Side
}

// Location is the result of resolving a CFI against a section's tree.
type Location[N comparable] struct {
	// SectionIndex is the zero-based section the CFI addresses.
	SectionIndex int

	// Start is the resolved point. For a point CFI End equals Start.
	Start Point[N]
	End   Point[N]

	// IsRange reports whether the CFI was a range.
	IsRange bool

	// Warnings holds non-fatal problems found during resolution, such as
	// identifier assertions that did not match the node found by position.
	Warnings []string
}
