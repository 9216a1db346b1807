package epubcfi

// Kind is the kind of a node in a Tree.
type Kind int

const (
	// Element is an element node. Elements occupy even child slots.
	Element Kind = iota + 1

	// Text is a text node. Adjacent text nodes share one odd child slot.
	Text
)

// Tree is the document tree of one loaded section, supplied by the host that
// renders it. The addressing code only ever sees a tree through this
// interface.
//
// Children must return element and text children in document order; nodes
// of other kinds (comments, processing instructions) are ignored if
// returned. TextLength is measured in the same unit as CFI offsets, which for
// browser-generated identifiers is UTF-16 code units.
type Tree[N comparable] interface {
	// Root returns the node the section's path starts at, normally the
	// document element.
	Root() N

	// Children returns the ordered children of n.
	Children(n N) []N

	// Parent returns the parent of n, or false for the root.
	Parent(n N) (N, bool)

	// Kind reports whether n is an element or a text node.
	Kind(n N) Kind

	// TextLength returns the length of a text node.
	TextLength(n N) int

	// ID returns the identifier attribute of n, if it has one.
	ID(n N) (string, bool)

	// Subtree returns the document embedded at n, if any.
	Subtree(n N) (Tree[N], bool)
}

// EmbeddedTree is a Tree returned by Subtree that knows where it is hosted.
// The generator uses it to climb out of an embedded document.
type EmbeddedTree[N comparable] interface {
	Tree[N]

	// Host returns the enclosing tree and the node the document is embedded at.
	Host() (Tree[N], N)
}

// children holds the child slots of one node under the parity convention:
// slot 0 is before the first child, slot 2k+2 is element k, slot 2k+1 is
// the run of text nodes preceding element k (possibly empty), slot 2m+1 is
// the trailing text run and slot 2m+2 is after the last child.
type children[N comparable] struct {
	elems []N
	runs  [][]N // len(runs) == len(elems)+1
	all   []N   // element and text children in order
}

func indexChildren[N comparable](t Tree[N], n N) children[N] {
	c := children[N]{runs: make([][]N, 1)}
	for _, ch := range t.Children(n) {
		switch t.Kind(ch) {
		case Element:
			c.elems = append(c.elems, ch)
			c.runs = append(c.runs, nil)
			c.all = append(c.all, ch)
		case Text:
			last := len(c.runs) - 1
			c.runs[last] = append(c.runs[last], ch)
			c.all = append(c.all, ch)
		}
	}
	return c
}

// afterIndex is the slot index past the last child.
func (c children[N]) afterIndex() int {
	return 2*len(c.elems) + 2
}

// element returns the element at an even slot.
func (c children[N]) element(index int) (N, bool) {
	var zero N
	k := index/2 - 1
	if index%2 != 0 || k < 0 || k >= len(c.elems) {
		return zero, false
	}
	return c.elems[k], true
}

// run returns the text run at an odd slot.
func (c children[N]) run(index int) []N {
	if index%2 == 0 {
		return nil
	}
	r := (index - 1) / 2
	if r < 0 || r >= len(c.runs) {
		return nil
	}
	return c.runs[r]
}

// slotOf returns the slot index of child ch and, for text, the summed length
// of the text nodes preceding it in its run.
func (c children[N]) slotOf(t Tree[N], ch N) (index, before int, ok bool) {
	for k, e := range c.elems {
		if e == ch {
			return 2*k + 2, 0, true
		}
	}
	for r, run := range c.runs {
		sum := 0
		for _, tn := range run {
			if tn == ch {
				return 2*r + 1, sum, true
			}
			sum += t.TextLength(tn)
		}
	}
	return 0, 0, false
}
