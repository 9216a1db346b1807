package epubcfi

import (
	"strconv"
	"strings"
)

const (
	wrapPrefix = "epubcfi("
	wrapSuffix = ")"
)

// reserved is the set of characters that must be escaped with a caret when
// they appear literally inside an assertion. Offset markers (':', '~', '@')
// are plain text there.
const reserved = "^[](),;=/!"

// IsCFI reports whether s is wrapped in the epubcfi(...) form.
func IsCFI(s string) bool {
	return strings.HasPrefix(s, wrapPrefix) && strings.HasSuffix(s, wrapSuffix)
}

// Wrap returns s in the epubcfi(...) form. Already wrapped input is returned unchanged.
func Wrap(s string) string {
	if IsCFI(s) {
		return s
	}
	return wrapPrefix + s + wrapSuffix
}

// Unwrap strips the epubcfi(...) wrapper if present.
func Unwrap(s string) string {
	if IsCFI(s) {
		return s[len(wrapPrefix) : len(s)-len(wrapSuffix)]
	}
	return s
}

// Parse parses a CFI, either bare ("/6/4!/4/2:3") or wrapped
// ("epubcfi(/6/4!/4/2:3)"). A top-level comma splits the input into a
// parent path and two suffixes, producing a range.
//
// Parse never returns a partial result: on failure the CFI is zero and the
// error is a *ParseError naming the offset of the offending character.
func Parse(s string) (CFI, error) {
	c, _, err := parseCFI(s)
	return c, err
}

// ParsePath parses a CFI that must denote a single point.
func ParsePath(s string) (Path, error) {
	c, p, err := parseCFI(s)
	if err != nil {
		return nil, err
	}
	if c.IsRange() {
		return nil, p.errorf(p.split, "range where a point was expected")
	}
	return c.Parent, nil
}

func parseCFI(s string) (CFI, *parser, error) {
	p := &parser{input: s, s: s}
	if IsCFI(s) {
		p.s = Unwrap(s)
		p.base = len(wrapPrefix)
	} else if strings.HasPrefix(s, wrapPrefix) {
		return CFI{}, nil, &ParseError{Input: s, Offset: len(s), Msg: "missing closing parenthesis"}
	}
	c, err := p.parse()
	if err != nil {
		return CFI{}, nil, err
	}
	return c, p, nil
}

// MustParse is like Parse but panics on error. It is meant for constants in
// tests and examples.
func MustParse(s string) CFI {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

type parser struct {
	input string // full input, for error reporting
	s     string // text being scanned
	base  int    // offset of s within input
	split int    // position in s of the comma that starts a range
	pos   int
}

func (p *parser) errorf(pos int, msg string) error {
	return &ParseError{Input: p.input, Offset: p.base + pos, Msg: msg}
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) parse() (CFI, error) {
	if p.s == "" {
		return CFI{}, p.errorf(0, "empty CFI")
	}
	if p.peek() != '/' {
		return CFI{}, p.unexpected("path must start with '/'")
	}
	parent, err := p.path(true)
	if err != nil {
		return CFI{}, err
	}
	if p.eof() {
		return CFI{Parent: parent}, nil
	}

	// p.peek() == ',' here; path stops at nothing else.
	p.split = p.pos
	var locals [2]local
	for i := range locals {
		if p.eof() {
			return CFI{}, p.errorf(p.pos, "range needs two suffixes")
		}
		p.pos++ // ','
		l, err := p.local()
		if err != nil {
			return CFI{}, err
		}
		locals[i] = l
	}
	if !p.eof() {
		return CFI{}, p.errorf(p.pos, "range has more than two suffixes")
	}
	return p.buildRange(parent, locals)
}

// local is one range suffix: either a path or a bare offset that applies to
// the parent's final step.
type local struct {
	path   Path
	offset *Step
	pos    int
}

func (p *parser) local() (local, error) {
	l := local{pos: p.pos}
	switch p.peek() {
	case '/':
		path, err := p.path(false)
		if err != nil {
			return local{}, err
		}
		l.path = path
	case ':', '~', '@':
		var st Step
		if err := p.offset(&st); err != nil {
			return local{}, err
		}
		if !p.eof() && p.peek() != ',' {
			return local{}, p.unexpected("offset suffix must end the suffix")
		}
		l.offset = &st
	case 0:
		return local{}, p.errorf(p.pos, "empty range suffix")
	default:
		return local{}, p.unexpected("range suffix must start with '/' or an offset")
	}
	return l, nil
}

// buildRange assembles the range. When a suffix is a bare offset, the
// parent's final step moves into both suffixes so that every step in the
// result carries an index.
func (p *parser) buildRange(parent Path, locals [2]local) (CFI, error) {
	lastGroup := parent[len(parent)-1]
	if len(lastGroup) > 0 && lastGroup[len(lastGroup)-1].HasOffset {
		return CFI{}, p.errorf(locals[0].pos-1, "range parent cannot end with an offset")
	}
	if locals[0].offset == nil && locals[1].offset == nil {
		return CFI{Parent: parent, Start: locals[0].path, End: locals[1].path}, nil
	}
	if len(lastGroup) == 0 || (len(parent) == 1 && len(lastGroup) == 1) {
		return CFI{}, p.errorf(locals[0].pos, "offset suffix needs a parent step to attach to")
	}
	moved := lastGroup[len(lastGroup)-1]
	parent = clonePath(parent)
	parent[len(parent)-1] = parent[len(parent)-1][:len(lastGroup)-1]

	var ends [2]Path
	for i, l := range locals {
		if l.offset != nil {
			st := moved
			st.Offset, st.HasOffset = l.offset.Offset, l.offset.HasOffset
			st.Temporal, st.HasTemporal = l.offset.Temporal, l.offset.HasTemporal
			st.Spatial, st.Text = l.offset.Spatial, l.offset.Text
			if l.offset.Side != SideNone {
				st.Side = l.offset.Side
			}
			ends[i] = Path{Group{st}}
			continue
		}
		ends[i] = joinPath(Path{Group{moved}}, l.path)
	}
	return CFI{Parent: parent, Start: ends[0], End: ends[1]}, nil
}

// path parses groups separated by '!' up to a top-level ',' or the end.
// A range parent may end with an indirection whose steps are all in the
// suffixes ("/6/4!,/2,/4"); rangeParent allows that empty final group.
func (p *parser) path(rangeParent bool) (Path, error) {
	var path Path
	for {
		if rangeParent && len(path) > 0 && p.peek() == ',' {
			return append(path, Group{}), nil
		}
		g, err := p.group()
		if err != nil {
			return nil, err
		}
		path = append(path, g)
		if p.eof() || p.peek() == ',' {
			return path, nil
		}
		if p.peek() != '!' {
			return nil, p.unexpected("expected '!' or ','")
		}
		p.pos++
	}
}

// group parses one or more steps, optionally ending with an offset.
func (p *parser) group() (Group, error) {
	var g Group
	for p.peek() == '/' {
		p.pos++
		st, err := p.step()
		if err != nil {
			return nil, err
		}
		g = append(g, st)
	}
	if len(g) == 0 {
		if p.eof() {
			return nil, p.errorf(p.pos, "empty step sequence")
		}
		return nil, p.unexpected("expected '/'")
	}
	switch p.peek() {
	case ':', '~', '@':
		if err := p.offset(&g[len(g)-1]); err != nil {
			return nil, err
		}
		if p.peek() == '/' {
			return nil, p.unexpected("step after offset")
		}
	}
	return g, nil
}

func (p *parser) step() (Step, error) {
	idx, err := p.integer()
	if err != nil {
		return Step{}, err
	}
	st := Step{Index: idx}
	if p.peek() == '[' {
		values, side, err := p.assertion()
		if err != nil {
			return Step{}, err
		}
		st.ID = values[0]
		st.Side = side
	}
	return st, nil
}

// offset parses a character, temporal or spatial offset into st.
func (p *parser) offset(st *Step) error {
	if p.peek() == ':' {
		p.pos++
		n, err := p.integer()
		if err != nil {
			return err
		}
		st.Offset, st.HasOffset = n, true
	}
	if p.peek() == '~' {
		p.pos++
		f, err := p.number()
		if err != nil {
			return err
		}
		st.Temporal, st.HasTemporal = f, true
	}
	if p.peek() == '@' {
		p.pos++
		x, err := p.number()
		if err != nil {
			return err
		}
		if p.peek() != ':' {
			return p.unexpected("spatial offset needs two coordinates")
		}
		p.pos++
		y, err := p.number()
		if err != nil {
			return err
		}
		st.Spatial = []float64{x, y}
	}
	if p.peek() == '[' {
		values, side, err := p.assertion()
		if err != nil {
			return err
		}
		if len(values) > 1 || values[0] != "" {
			st.Text = values
		}
		if side != SideNone {
			st.Side = side
		}
	}
	return nil
}

func (p *parser) integer() (int, error) {
	start := p.pos
	if p.peek() == '-' {
		return 0, p.errorf(start, "negative index")
	}
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		if p.eof() {
			return 0, p.errorf(start, "expected integer")
		}
		return 0, p.unexpected("expected integer")
	}
	n, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, p.errorf(start, "integer out of range")
	}
	return n, nil
}

func (p *parser) number() (float64, error) {
	start := p.pos
	if p.peek() == '-' {
		return 0, p.errorf(start, "negative number")
	}
	for !p.eof() && (isDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	if p.pos == start {
		return 0, p.unexpected("expected number")
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf(start, "invalid number")
	}
	return f, nil
}

// assertion parses a bracketed assertion: comma-separated values followed by
// optional ;key=value parameters. It always returns at least one value.
func (p *parser) assertion() ([]string, Side, error) {
	open := p.pos
	p.pos++ // '['

	values := []string{""}
	side := SideNone
	var buf strings.Builder
	var param strings.Builder
	inParam := false

	flushParam := func(pos int) error {
		if !inParam {
			return nil
		}
		key, val, ok := strings.Cut(param.String(), "=")
		if !ok || key == "" {
			return p.errorf(pos, "parameter must be key=value")
		}
		if key == "s" {
			switch val {
			case "b":
				side = SideBefore
			case "a":
				side = SideAfter
			default:
				return p.errorf(pos, "side bias must be 'a' or 'b'")
			}
		}
		param.Reset()
		return nil
	}

	for {
		if p.eof() {
			return nil, SideNone, p.errorf(open, "unbalanced '['")
		}
		c := p.s[p.pos]
		switch {
		case c == '^':
			if p.pos+1 >= len(p.s) {
				return nil, SideNone, p.errorf(p.pos, "dangling escape")
			}
			p.pos++
			if inParam {
				param.WriteByte(p.s[p.pos])
			} else {
				buf.WriteByte(p.s[p.pos])
			}
		case c == ']':
			if err := flushParam(p.pos); err != nil {
				return nil, SideNone, err
			}
			values[len(values)-1] = buf.String()
			p.pos++
			return values, side, nil
		case c == ',' && !inParam:
			values[len(values)-1] = buf.String()
			values = append(values, "")
			buf.Reset()
		case c == ';':
			if err := flushParam(p.pos); err != nil {
				return nil, SideNone, err
			}
			inParam = true
		case c == '=' && inParam:
			param.WriteByte(c)
		case isSpace(c):
			return nil, SideNone, p.errorf(p.pos, "whitespace not permitted")
		case strings.IndexByte(reserved, c) >= 0:
			if c == '[' {
				return nil, SideNone, p.errorf(p.pos, "unbalanced '['")
			}
			return nil, SideNone, p.errorf(p.pos, "unescaped "+strconv.QuoteRune(rune(c)))
		default:
			if inParam {
				param.WriteByte(c)
			} else {
				buf.WriteByte(c)
			}
		}
		p.pos++
	}
}

func (p *parser) unexpected(msg string) error {
	c := p.peek()
	switch {
	case p.eof():
		return p.errorf(p.pos, msg+", found end of input")
	case isSpace(c):
		return p.errorf(p.pos, "whitespace not permitted")
	case c == ']':
		return p.errorf(p.pos, "unbalanced ']'")
	case c == '-':
		return p.errorf(p.pos, "negative index")
	}
	return p.errorf(p.pos, msg+", found "+strconv.QuoteRune(rune(c)))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
