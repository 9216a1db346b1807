package epubcfi

import "cmp"

// Compare orders two paths, returning -1, 0 or +1.
//
// Paths are ordered by section first, then step by step through each
// indirection group: by index, then by offset with a missing offset sorting
// before any present one. A path that is a strict prefix of another sorts
// first. Identifier, text and side assertions do not affect the order, so
// two paths addressing the same position compare equal.
//
// Compare is a total order over paths of one document and can be passed to
// slices.SortFunc directly. Ordering paths from unrelated documents is
// undefined.
func Compare(a, b Path) int {
	return compareViews(view{base: a}, view{base: b})
}

// CompareCFI orders two CFIs by their start points and then by their end
// points. A point CFI starts and ends at the same place.
func CompareCFI(a, b CFI) int {
	if c := compareViews(startView(a), startView(b)); c != 0 {
		return c
	}
	return compareViews(endView(a), endView(b))
}

// Contains reports whether p lies within r, bounds included. For a point
// CFI it reports whether p addresses the same position.
func Contains(r CFI, p Path) bool {
	v := view{base: p}
	return compareViews(startView(r), v) <= 0 && compareViews(v, endView(r)) <= 0
}

func startView(c CFI) view {
	if c.IsRange() {
		return view{base: c.Parent, tail: c.Start}
	}
	return view{base: c.Parent}
}

func endView(c CFI) view {
	if c.IsRange() {
		return view{base: c.Parent, tail: c.End}
	}
	return view{base: c.Parent}
}

// view presents base joined with tail without allocating: the first group
// of tail continues the last group of base.
type view struct {
	base, tail Path
}

func (v view) groups() int {
	switch {
	case len(v.tail) == 0:
		return len(v.base)
	case len(v.base) == 0:
		return len(v.tail)
	}
	return len(v.base) + len(v.tail) - 1
}

func (v view) group(i int) segment {
	switch {
	case len(v.tail) == 0:
		return segment{a: v.base[i]}
	case len(v.base) == 0:
		return segment{a: v.tail[i]}
	}
	last := len(v.base) - 1
	switch {
	case i < last:
		return segment{a: v.base[i]}
	case i == last:
		return segment{a: v.base[last], b: v.tail[0]}
	}
	return segment{a: v.tail[i-last]}
}

// segment is one group, possibly split across two slices.
type segment struct {
	a, b Group
}

func (s segment) len() int { return len(s.a) + len(s.b) }

func (s segment) at(j int) *Step {
	if j < len(s.a) {
		return &s.a[j]
	}
	return &s.b[j-len(s.a)]
}

func compareViews(x, y view) int {
	nx, ny := x.groups(), y.groups()
	if nx == 0 || ny == 0 {
		return cmp.Compare(nx, ny)
	}

	// The section is named by the last step of group 0.
	gx, gy := x.group(0), y.group(0)
	if gx.len() == 0 || gy.len() == 0 {
		if c := cmp.Compare(gx.len(), gy.len()); c != 0 {
			return c
		}
	} else if c := compareSteps(gx.at(gx.len()-1), gy.at(gy.len()-1)); c != 0 {
		return c
	}

	for i := 1; i < min(nx, ny); i++ {
		if c := compareSegments(x.group(i), y.group(i)); c != 0 {
			return c
		}
	}
	return cmp.Compare(nx, ny)
}

func compareSegments(x, y segment) int {
	lx, ly := x.len(), y.len()
	for j := 0; j < min(lx, ly); j++ {
		if c := compareSteps(x.at(j), y.at(j)); c != 0 {
			return c
		}
	}
	return cmp.Compare(lx, ly)
}

func compareSteps(x, y *Step) int {
	if c := cmp.Compare(x.Index, y.Index); c != 0 {
		return c
	}
	if x.HasOffset != y.HasOffset {
		if x.HasOffset {
			return 1
		}
		return -1
	}
	if x.HasOffset {
		return cmp.Compare(x.Offset, y.Offset)
	}
	return 0
}
