package epubcfi

import (
	"strconv"
	"strings"
)

// String serializes the path in canonical bare form, e.g. "/6/4[ch1]!/4/2:10".
func (p Path) String() string {
	var b strings.Builder
	writePath(&b, p)
	return b.String()
}

// String serializes c in canonical bare form. Ranges are written as
// parent,start,end.
func (c CFI) String() string {
	var b strings.Builder
	writePath(&b, c.Parent)
	if c.IsRange() {
		b.WriteByte(',')
		writePath(&b, c.Start)
		b.WriteByte(',')
		writePath(&b, c.End)
	}
	return b.String()
}

func writePath(b *strings.Builder, p Path) {
	for i, g := range p {
		if i > 0 {
			b.WriteByte('!')
		}
		for _, st := range g {
			writeStep(b, st)
		}
	}
}

func writeStep(b *strings.Builder, st Step) {
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(st.Index))

	hasOffset := st.HasOffset || st.HasTemporal || st.Spatial != nil
	if st.ID != "" || (st.Side != SideNone && !hasOffset) {
		b.WriteByte('[')
		b.WriteString(escape(st.ID))
		if !hasOffset {
			writeSide(b, st.Side)
		}
		b.WriteByte(']')
	}
	if !hasOffset {
		return
	}

	if st.HasOffset {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(st.Offset))
	}
	if st.HasTemporal {
		b.WriteByte('~')
		b.WriteString(formatNumber(st.Temporal))
	}
	if len(st.Spatial) == 2 {
		b.WriteByte('@')
		b.WriteString(formatNumber(st.Spatial[0]))
		b.WriteByte(':')
		b.WriteString(formatNumber(st.Spatial[1]))
	}
	if st.Text != nil || st.Side != SideNone {
		b.WriteByte('[')
		for i, t := range st.Text {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escape(t))
		}
		writeSide(b, st.Side)
		b.WriteByte(']')
	}
}

func writeSide(b *strings.Builder, s Side) {
	switch s {
	case SideBefore:
		b.WriteString(";s=b")
	case SideAfter:
		b.WriteString(";s=a")
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escape prefixes every reserved or whitespace character in s with a caret.
func escape(s string) string {
	if !strings.ContainsAny(s, reserved+" \t\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(reserved, s[i]) >= 0 || isSpace(s[i]) {
			b.WriteByte('^')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
