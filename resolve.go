package epubcfi

import (
	"fmt"
	"log/slog"
)

// SectionIndex returns the zero-based section addressed by the first group
// of p. The last step of that group names the section with the doubled
// index (i+1)*2, so "/6/4!" and the short form "/4!" both address section 1.
// Reading "/6" itself as section 2 takes the short form "/6!".
func SectionIndex(p Path) (int, error) {
	if len(p) == 0 || len(p[0]) == 0 {
		return 0, &ResolutionError{Group: 0, Step: 0, Err: ErrOutOfBounds}
	}
	last := len(p[0]) - 1
	st := p[0][last]
	if st.Index < 2 || st.Index%2 != 0 {
		return 0, &ResolutionError{Group: 0, Step: last, Err: ErrNotElement}
	}
	return st.Index/2 - 1, nil
}

// Resolve follows c through t, the tree of the section c addresses (see
// SectionIndex). Indirections after the section group descend into
// documents returned by Tree.Subtree.
//
// Resolution is positional. An identifier assertion that does not match the
// node found by position is recorded in Location.Warnings and does not fail
// the call; see PreferIDAssertion. A final step past the end of its parent
// resolves to the end boundary. A step that must be descended through but
// does not exist fails with a *ResolutionError.
//
// For a range, the start must not sort after the end.
func Resolve[N comparable](t Tree[N], c CFI, opts ...Option) (*Location[N], error) {
	r := &resolver[N]{opts: buildOptions(opts), tree: t}
	if !c.IsRange() {
		sec, pt, err := r.resolve(c.Parent)
		if err != nil {
			return nil, err
		}
		return &Location[N]{SectionIndex: sec, Start: pt, End: pt, Warnings: r.warnings}, nil
	}

	start, end := c.Collapse(false), c.Collapse(true)
	if Compare(start, end) > 0 {
		return nil, &ResolutionError{Group: -1, Err: ErrRangeOrder}
	}
	sec, sp, err := r.resolve(start)
	if err != nil {
		return nil, err
	}
	_, ep, err := r.resolve(end)
	if err != nil {
		return nil, err
	}
	return &Location[N]{SectionIndex: sec, Start: sp, End: ep, IsRange: true, Warnings: r.warnings}, nil
}

// ResolvePath resolves a single point path.
func ResolvePath[N comparable](t Tree[N], p Path, opts ...Option) (*Location[N], error) {
	return Resolve(t, CFI{Parent: p}, opts...)
}

type resolver[N comparable] struct {
	opts     options
	tree     Tree[N]
	warnings []string
}

func (r *resolver[N]) warn(msg string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(msg, args...))
}

func (r *resolver[N]) resolve(p Path) (int, Point[N], error) {
	var zero Point[N]
	sec, err := SectionIndex(p)
	if err != nil {
		return 0, zero, err
	}

	tree := r.tree
	node := tree.Root()
	if len(p) == 1 {
		return sec, Point[N]{Node: node}, nil
	}

	for gi := 1; gi < len(p); gi++ {
		if gi > 1 {
			sub, ok := tree.Subtree(node)
			if !ok {
				return 0, zero, &ResolutionError{Group: gi, Step: 0, Err: ErrNoSubdocument}
			}
			tree, node = sub, sub.Root()
		}
		g := p[gi]
		for si, st := range g {
			if gi == len(p)-1 && si == len(g)-1 {
				return sec, r.terminal(tree, node, gi, si, st), nil
			}
			ch := indexChildren(tree, node)
			el, ok := ch.element(st.Index)
			if !ok {
				err := ErrNotElement
				if st.Index >= ch.afterIndex() {
					err = ErrOutOfBounds
				}
				if pt, ok := r.byID(tree, p); ok {
					return sec, pt, nil
				}
				return 0, zero, &ResolutionError{Group: gi, Step: si, Err: err}
			}
			r.checkID(tree, el, gi, si, st)
			node = el
		}
	}
	return sec, Point[N]{Node: node}, nil
}

// byID is the fallback for a path that cannot be followed by position when
// PreferIDAssertion is set: the element carrying the final step's identifier
// in the section's own tree.
func (r *resolver[N]) byID(tree Tree[N], p Path) (Point[N], bool) {
	last := p.Last()
	if !r.opts.preferID || last.ID == "" {
		return Point[N]{}, false
	}
	n, ok := findByID(tree, tree.Root(), last.ID)
	if !ok {
		return Point[N]{}, false
	}
	r.warn("path does not resolve by position; used element with id %q", last.ID)
	r.opts.logger.Warn("epubcfi: positional resolution failed, using identifier", slog.String("id", last.ID))
	return Point[N]{Node: n, Offset: last.Offset, HasOffset: last.HasOffset}, true
}

func (r *resolver[N]) checkID(tree Tree[N], n N, gi, si int, st Step) bool {
	if st.ID == "" {
		return true
	}
	got, _ := tree.ID(n)
	if got == st.ID {
		return true
	}
	r.warn("group %d step %d: identifier assertion %q does not match %q", gi, si, st.ID, got)
	r.opts.logger.Warn("epubcfi: identifier assertion mismatch",
		slog.Int("group", gi), slog.Int("step", si),
		slog.String("want", st.ID), slog.String("got", got))
	return false
}

// terminal resolves the final step of a path among the children of parent.
func (r *resolver[N]) terminal(tree Tree[N], parent N, gi, si int, st Step) Point[N] {
	ch := indexChildren(tree, parent)
	idx := st.Index

	if el, ok := ch.element(idx); ok {
		if !r.checkID(tree, el, gi, si, st) && r.opts.preferID {
			if n, found := findByID(tree, tree.Root(), st.ID); found {
				el = n
			}
		}
		return Point[N]{Node: el, Offset: st.Offset, HasOffset: st.HasOffset}
	}

	if idx >= ch.afterIndex() || idx == 0 {
		if idx > ch.afterIndex() {
			r.opts.logger.Debug("epubcfi: index past end, clamped",
				slog.Int("group", gi), slog.Int("step", si), slog.Int("index", idx))
		}
		if len(ch.all) == 0 {
			return Point[N]{Node: parent, HasOffset: true}
		}
		if idx == 0 {
			return Point[N]{Node: ch.all[0], Side: SideBefore}
		}
		return Point[N]{Node: ch.all[len(ch.all)-1], Side: SideAfter}
	}

	if run := ch.run(idx); len(run) > 0 {
		return r.textPoint(tree, run, gi, si, st)
	}

	// An empty gap between elements.
	k := (idx - 1) / 2
	switch {
	case k < len(ch.elems):
		return Point[N]{Node: ch.elems[k], Side: SideBefore}
	case k > 0:
		return Point[N]{Node: ch.elems[k-1], Side: SideAfter}
	}
	return Point[N]{Node: parent, HasOffset: true}
}

// textPoint maps an offset into a run of adjacent text nodes onto one node.
// An offset exactly between two nodes goes to the earlier one unless the
// side bias is s=a.
func (r *resolver[N]) textPoint(tree Tree[N], run []N, gi, si int, st Step) Point[N] {
	if !st.HasOffset {
		return Point[N]{Node: run[0]}
	}
	sum := 0
	for i, tn := range run {
		l := tree.TextLength(tn)
		if st.Offset < sum+l || (st.Offset == sum+l && (st.Side != SideAfter || i == len(run)-1)) {
			return Point[N]{Node: tn, Offset: st.Offset - sum, HasOffset: true}
		}
		sum += l
	}
	last := run[len(run)-1]
	r.warn("group %d step %d: offset %d past end of text (%d), clamped", gi, si, st.Offset, sum)
	r.opts.logger.Warn("epubcfi: offset past end of text, clamped",
		slog.Int("group", gi), slog.Int("step", si), slog.Int("offset", st.Offset), slog.Int("length", sum))
	return Point[N]{Node: last, Offset: tree.TextLength(last), HasOffset: true}
}

// findByID searches the subtree at n depth first for an element with the
// given identifier.
func findByID[N comparable](tree Tree[N], n N, id string) (N, bool) {
	if tree.Kind(n) == Element {
		if got, ok := tree.ID(n); ok && got == id {
			return n, true
		}
	}
	for _, ch := range tree.Children(n) {
		if found, ok := findByID(tree, ch, id); ok {
			return found, true
		}
	}
	var zero N
	return zero, false
}
