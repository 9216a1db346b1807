// Package progress maps positions inside the sections of a book to a single
// reading-progress fraction and back.
//
// Sections are weighted by byte size. Non-linear sections (linear="no" in
// the spine) stay addressable by index but contribute nothing to progress:
//
//	m := progress.New([]progress.Section{
//	    {ID: "cover", Size: 100, Linear: true},
//	    {ID: "ch1", Size: 300, Linear: true},
//	    {ID: "notes", Size: 900, Linear: false},
//	})
//	f := m.Fraction(1, 0.5) // 0.625
//
// A Mapper never returns an error. Out-of-range indexes and fractions are
// clamped. A book without any measurable size places section i at i/n and
// ignores the local fraction.
package progress

import (
	"log/slog"
	"math"
	"sort"
	"sync/atomic"

	"github.com/simp-lee/epubcfi"
)

// DefaultSizePerLocation is the number of bytes per virtual location used by
// Location unless WithSizePerLocation is given.
const DefaultSizePerLocation = 1500

// Section describes one section of the book in reading order.
type Section struct {
	// ID is an opaque key, normally the manifest id.
	ID string

	// Size is the byte size of the section. Negative sizes count as zero.
	Size int64

	// Linear reports whether the section is part of the linear reading order.
	Linear bool
}

// table is the cumulative-size table for one section list. It is never
// modified after construction.
type table struct {
	sections []Section
	sizes    []int64 // effective size: 0 for non-linear sections
	before   []int64 // sum of sizes preceding section i
	total    int64
}

func newTable(sections []Section) *table {
	t := &table{
		sections: append([]Section(nil), sections...),
		sizes:    make([]int64, len(sections)),
		before:   make([]int64, len(sections)),
	}
	for i, s := range sections {
		t.before[i] = t.total
		if s.Linear && s.Size > 0 {
			t.sizes[i] = s.Size
			t.total += s.Size
		}
	}
	return t
}

// Mapper converts between (section, local fraction) pairs and global
// progress fractions. It is safe for concurrent use: Reset swaps in a new
// table atomically and readers see either the old or the new one.
type Mapper struct {
	tbl        atomic.Pointer[table]
	sizePerLoc int64
	logger     *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithSizePerLocation sets the number of bytes per virtual location.
// Non-positive values are ignored.
func WithSizePerLocation(n int64) Option {
	return func(m *Mapper) {
		if n > 0 {
			m.sizePerLoc = n
		}
	}
}

// WithLogger sets the logger used to report table rebuilds. Without it the
// Mapper logs to epubcfi.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a Mapper for the given sections in reading order.
func New(sections []Section, opts ...Option) *Mapper {
	m := &Mapper{sizePerLoc: DefaultSizePerLocation}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset(sections)
	return m
}

// Reset replaces the section list, for instance when another book is opened.
func (m *Mapper) Reset(sections []Section) {
	t := newTable(sections)
	m.tbl.Store(t)
	m.log().Debug("progress: table rebuilt",
		slog.Int("sections", len(sections)), slog.Int64("total", t.total))
}

func (m *Mapper) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return epubcfi.Logger()
}

// Close discards the section list. Afterwards every query behaves as for
// an empty book.
func (m *Mapper) Close() {
	m.Reset(nil)
}

// Len returns the number of sections.
func (m *Mapper) Len() int {
	return len(m.tbl.Load().sections)
}

// Total returns the summed size of all linear sections.
func (m *Mapper) Total() int64 {
	return m.tbl.Load().total
}

// Fraction returns the global progress fraction in [0, 1] of the position
// local (a fraction in [0, 1]) inside section i. When the book has no
// measurable size the result is i/n, so the first section is always 0.
func (m *Mapper) Fraction(i int, local float64) float64 {
	return m.tbl.Load().fraction(i, local)
}

func (t *table) fraction(i int, local float64) float64 {
	n := len(t.sections)
	if n == 0 {
		return 0
	}
	i = clampIndex(i, n)
	if t.total == 0 {
		return float64(i) / float64(n)
	}
	return clampUnit(t.position(i, local) / float64(t.total))
}

// position returns the byte position of local inside section i. i must be
// a valid index.
func (t *table) position(i int, local float64) float64 {
	return float64(t.before[i]) + clampUnit(local)*float64(t.sizes[i])
}

// Boundaries returns, for every section, the global fraction at which it
// begins. Non-linear sections get the fraction of the position they occupy
// in the reading order, so their range is empty.
func (m *Mapper) Boundaries() []float64 {
	t := m.tbl.Load()
	out := make([]float64, len(t.sections))
	for i := range out {
		if t.total == 0 {
			out[i] = float64(i) / float64(len(out))
			continue
		}
		out[i] = float64(t.before[i]) / float64(t.total)
	}
	return out
}

// Locate is the inverse of Fraction: it returns the section containing the
// global fraction f and the local fraction within it. A fraction exactly on
// the boundary between two sections belongs to the later one. Sections
// with an empty range, such as non-linear ones, are never returned unless
// the book has no measurable size at all; then f selects section
// floor(f*n) with local 0. Locate returns (-1, 0) for a book without
// sections.
func (m *Mapper) Locate(f float64) (int, float64) {
	t := m.tbl.Load()
	n := len(t.sections)
	if n == 0 {
		return -1, 0
	}
	f = clampUnit(f)
	if t.total == 0 {
		return clampIndex(int(math.Floor(f*float64(n))), n), 0
	}

	pos := f * float64(t.total)
	// First section ending strictly after pos. Sections with an empty range
	// end where they start and are skipped by construction.
	i := sort.Search(n, func(i int) bool {
		return float64(t.before[i]+t.sizes[i]) > pos
	})
	if i == n {
		i = lastSized(t)
		return i, 1
	}
	return i, clampUnit((pos - float64(t.before[i])) / float64(t.sizes[i]))
}

// Location returns the virtual location number of the position local inside
// section i together with the total number of locations. Locations divide
// the linear text into chunks of equal byte size and give readers a stable
// page-like number independent of screen layout.
func (m *Mapper) Location(i int, local float64) (current, total int) {
	t := m.tbl.Load()
	total = int((t.total + m.sizePerLoc - 1) / m.sizePerLoc)
	if len(t.sections) == 0 || t.total == 0 {
		return 0, total
	}
	pos := t.position(clampIndex(i, len(t.sections)), local)
	current = int(math.Floor(pos / float64(m.sizePerLoc)))
	if current >= total && total > 0 {
		current = total - 1
	}
	return current, total
}

// lastSized returns the last section with a non-empty range.
func lastSized(t *table) int {
	for i := len(t.sizes) - 1; i >= 0; i-- {
		if t.sizes[i] > 0 {
			return i
		}
	}
	return len(t.sizes) - 1
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampUnit(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
