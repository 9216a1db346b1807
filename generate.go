package epubcfi

import (
	"fmt"
	"log/slog"
)

// spineStep is the index of the spine element inside the EPUB package
// document. Generated section groups take the form /6/(i+1)*2.
const spineStep = 6

// SectionStep returns the group addressing section i, optionally asserting
// the section's identifier: "/6/(i+1)*2[id]".
func SectionStep(i int, id string) Group {
	return Group{{Index: spineStep}, {Index: (i + 1) * 2, ID: id}}
}

// Generate returns the CFI string of pt inside t, the tree of section
// section. It is the inverse of Resolve: resolving the result yields a
// point whose path compares equal to pt's.
func Generate[N comparable](t Tree[N], section int, pt Point[N], opts ...Option) (string, error) {
	p, err := PointPath(t, section, pt, opts...)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// GenerateRange returns the CFI string of the range from start to end.
func GenerateRange[N comparable](t Tree[N], section int, start, end Point[N], opts ...Option) (string, error) {
	c, err := RangeOf(t, section, start, end, opts...)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// PointPath returns the path of pt inside t, the tree of section section.
//
// If t is an EmbeddedTree the path climbs through its host, producing one
// group per document level. A point at the root of an embedded document is
// addressed by its host node.
func PointPath[N comparable](t Tree[N], section int, pt Point[N], opts ...Option) (Path, error) {
	if section < 0 {
		return nil, fmt.Errorf("epubcfi: generate: section %d: %w", section, ErrOutOfBounds)
	}
	o := buildOptions(opts)
	g := generator[N]{opts: o}

	var groups []Group
	tree, node := t, pt.Node
	first := true
	for {
		var steps Group
		var err error
		if node == tree.Root() {
			steps = g.rootSteps(tree, pt)
		} else {
			steps, err = g.nodeSteps(tree, node, pt, first)
			if err != nil {
				return nil, err
			}
		}
		if len(steps) > 0 {
			groups = append(groups, steps)
		}
		first = false

		emb, ok := tree.(EmbeddedTree[N])
		if !ok {
			break
		}
		tree, node = emb.Host()
		pt = Point[N]{Node: node}
		if node == tree.Root() {
			// Embedded directly at the root of the host document.
			return nil, fmt.Errorf("epubcfi: generate: document embedded at host root: %w", ErrNotElement)
		}
	}

	path := make(Path, 0, len(groups)+1)
	path = append(path, SectionStep(section, o.sectionID))
	for i := len(groups) - 1; i >= 0; i-- {
		path = append(path, groups[i])
	}
	o.logger.Debug("epubcfi: generated path", slog.String("cfi", path.String()))
	return path, nil
}

// RangeOf returns the range CFI from start to end. Both points must lie
// inside the section and start must not sort after end. The parent is the
// longest common prefix of the two paths; a step carrying an offset never
// becomes part of the parent.
func RangeOf[N comparable](t Tree[N], section int, start, end Point[N], opts ...Option) (CFI, error) {
	sp, err := PointPath(t, section, start, opts...)
	if err != nil {
		return CFI{}, err
	}
	ep, err := PointPath(t, section, end, opts...)
	if err != nil {
		return CFI{}, err
	}
	if Compare(sp, ep) > 0 {
		return CFI{}, fmt.Errorf("epubcfi: generate range: %w", ErrRangeOrder)
	}
	if len(sp) < 2 || len(ep) < 2 {
		return CFI{}, fmt.Errorf("epubcfi: generate range: endpoint at section root: %w", ErrNotElement)
	}

	i := 1
	for i+1 < len(sp) && i+1 < len(ep) && sameGroup(sp[i], ep[i]) {
		i++
	}
	j := 0
	for j < len(sp[i]) && j < len(ep[i]) && sameStep(sp[i][j], ep[i][j]) {
		j++
	}
	if j == len(sp[i]) || j == len(ep[i]) {
		// Each suffix needs at least one step of its own.
		j--
	}

	parent := clonePath(sp[:i])
	parent = append(parent, append(Group{}, sp[i][:j]...))
	suffix := func(p Path) Path {
		out := Path{append(Group(nil), p[i][j:]...)}
		return append(out, clonePath(p[i+1:])...)
	}
	return CFI{Parent: parent, Start: suffix(sp), End: suffix(ep)}, nil
}

func sameGroup(a, b Group) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !sameStep(a[k], b[k]) {
			return false
		}
	}
	return true
}

func sameStep(a, b Step) bool {
	return a.Index == b.Index && !a.HasOffset && !b.HasOffset
}

type generator[N comparable] struct {
	opts options
}

func (g generator[N]) id(tree Tree[N], n N) string {
	if g.opts.noIDs || tree.Kind(n) != Element {
		return ""
	}
	id, _ := tree.ID(n)
	return id
}

// rootSteps addresses a point whose node is the root of the section tree.
// The root itself needs no step; boundaries map to the first and last slot
// of its children.
func (g generator[N]) rootSteps(tree Tree[N], pt Point[N]) Group {
	switch pt.Side {
	case SideBefore:
		return Group{{Index: 0}}
	case SideAfter:
		return Group{{Index: indexChildren(tree, pt.Node).afterIndex()}}
	}
	if pt.HasOffset {
		return Group{{Index: 1, Offset: pt.Offset, HasOffset: true}}
	}
	return nil
}

// nodeSteps returns the steps from tree's root down to node, ending with the
// step for pt when terminal is set.
func (g generator[N]) nodeSteps(tree Tree[N], node N, pt Point[N], terminal bool) (Group, error) {
	var rev Group
	parent, ok := tree.Parent(node)
	if !ok {
		return nil, ErrNotInTree
	}
	ch := indexChildren(tree, parent)
	idx, before, ok := ch.slotOf(tree, node)
	if !ok {
		return nil, ErrNotInTree
	}
	if terminal {
		rev = append(rev, g.terminalStep(tree, ch, node, idx, before, pt))
	} else {
		rev = append(rev, Step{Index: idx, ID: g.id(tree, node)})
	}

	root := tree.Root()
	for n := parent; n != root; {
		p, ok := tree.Parent(n)
		if !ok {
			return nil, ErrNotInTree
		}
		idx, _, ok := indexChildren(tree, p).slotOf(tree, n)
		if !ok {
			return nil, ErrNotInTree
		}
		rev = append(rev, Step{Index: idx, ID: g.id(tree, n)})
		n = p
	}

	steps := make(Group, len(rev))
	for k, st := range rev {
		steps[len(rev)-1-k] = st
	}
	return steps, nil
}

// terminalStep builds the last step of a point. idx is node's slot among its
// siblings and before the length of text preceding node within its slot.
func (g generator[N]) terminalStep(tree Tree[N], ch children[N], node N, idx, before int, pt Point[N]) Step {
	if tree.Kind(node) == Text {
		off := before
		switch {
		case pt.Side == SideAfter:
			off += tree.TextLength(node)
		case pt.Side == SideNone && pt.HasOffset:
			off += pt.Offset
		case pt.Side == SideNone && before == 0:
			return Step{Index: idx}
		}
		st := Step{Index: idx, Offset: off, HasOffset: true}
		if off == before && before > 0 {
			// The offset sits on the boundary with the previous text node.
			st.Side = SideAfter
		}
		return st
	}

	switch pt.Side {
	case SideBefore:
		gap := idx - 1
		if run := ch.run(gap); len(run) > 0 {
			return Step{Index: gap, Offset: runLength(tree, run), HasOffset: true}
		}
		return Step{Index: gap}
	case SideAfter:
		gap := idx + 1
		if run := ch.run(gap); len(run) > 0 {
			return Step{Index: gap, Offset: 0, HasOffset: true}
		}
		return Step{Index: gap}
	}
	return Step{Index: idx, ID: g.id(tree, node), Offset: pt.Offset, HasOffset: pt.HasOffset}
}

func runLength[N comparable](tree Tree[N], run []N) int {
	sum := 0
	for _, n := range run {
		sum += tree.TextLength(n)
	}
	return sum
}
