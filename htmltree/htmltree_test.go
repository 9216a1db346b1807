package htmltree

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/simp-lee/epubcfi"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return doc
}

func mustElement(t *testing.T, doc *Document, id string) *html.Node {
	t.Helper()
	n, ok := doc.ElementByID(id)
	if !ok {
		t.Fatalf("ElementByID(%q) not found", id)
	}
	return n
}

const chapter = `<html><head><title>One</title></head><body>` +
	`<p id="intro">Call me <em>Ishmael</em>.</p>` +
	`<!-- note --><p id="emoji">a😀b</p>` +
	`<iframe id="f"></iframe>` +
	`</body></html>`

func TestDocument_Tree(t *testing.T) {
	doc := mustParse(t, chapter)
	root := doc.Root()
	if root.Type != html.ElementNode || root.Data != "html" {
		t.Fatalf("Root() = %v %q, want <html>", root.Type, root.Data)
	}
	body := doc.Children(root)[1]
	if body.Data != "body" {
		t.Fatalf("second child = %q, want body", body.Data)
	}

	kids := doc.Children(body)
	if len(kids) != 3 {
		t.Fatalf("body has %d children, want 3 (comment skipped)", len(kids))
	}
	if _, ok := doc.Parent(root); ok {
		t.Error("Parent(root) reported a parent")
	}
	if p, ok := doc.Parent(kids[0]); !ok || p != body {
		t.Error("Parent(p) is not body")
	}

	intro := mustElement(t, doc, "intro")
	if doc.Kind(intro) != epubcfi.Element || doc.Kind(intro.FirstChild) != epubcfi.Text {
		t.Error("Kind() mismatch for element or text")
	}
	if id, ok := doc.ID(intro); !ok || id != "intro" {
		t.Errorf("ID() = %q, %v", id, ok)
	}
	if _, ok := doc.ID(intro.FirstChild); ok {
		t.Error("ID() of text node reported an id")
	}
	if _, ok := doc.ElementByID("missing"); ok {
		t.Error("ElementByID(missing) found something")
	}
}

func TestDocument_TextLengthUTF16(t *testing.T) {
	doc := mustParse(t, chapter)
	text := mustElement(t, doc, "emoji").FirstChild
	if got := doc.TextLength(text); got != 4 {
		t.Errorf("TextLength(%q) = %d, want 4", text.Data, got)
	}
	if got := doc.TextLength(mustElement(t, doc, "emoji")); got != 0 {
		t.Errorf("TextLength(element) = %d, want 0", got)
	}
}

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"😀", 2},
		{"a😀b𝄞", 6},
		{"\xff", 1},
	}
	for _, tt := range tests {
		if got := utf16Len(tt.in); got != tt.want {
			t.Errorf("utf16Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDocument_GenerateResolve(t *testing.T) {
	doc := mustParse(t, chapter)
	intro := mustElement(t, doc, "intro")
	period := intro.LastChild

	tests := []struct {
		pt   epubcfi.Point[*html.Node]
		want string
	}{
		{epubcfi.Point[*html.Node]{Node: intro}, "/6/4!/4/2[intro]"},
		{epubcfi.Point[*html.Node]{Node: intro.FirstChild, Offset: 5, HasOffset: true}, "/6/4!/4/2[intro]/1:5"},
		{epubcfi.Point[*html.Node]{Node: period, Offset: 1, HasOffset: true}, "/6/4!/4/2[intro]/3:1"},
		{epubcfi.Point[*html.Node]{Node: mustElement(t, doc, "emoji").FirstChild, Offset: 3, HasOffset: true}, "/6/4!/4/4[emoji]/1:3"},
		{epubcfi.Point[*html.Node]{Node: mustElement(t, doc, "f"), Side: epubcfi.SideAfter}, "/6/4!/4/7"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := epubcfi.Generate(doc, 1, tt.pt)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
			loc, err := epubcfi.Resolve(doc, epubcfi.MustParse(got))
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if loc.Start != tt.pt {
				t.Errorf("Resolve() = %+v, want %+v", loc.Start, tt.pt)
			}
		})
	}
}

func TestDocument_Frames(t *testing.T) {
	doc := mustParse(t, `<html><body><iframe id="a"></iframe><p><object id="b"></object></p><embed id="c"></body></html>`)
	frames := doc.Frames()
	var ids []string
	for _, f := range frames {
		id, _ := doc.ID(f)
		ids = append(ids, id)
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Errorf("Frames() ids = %q, want a,b,c", got)
	}
}

func TestDocument_Embed(t *testing.T) {
	doc := mustParse(t, chapter)
	frame := mustElement(t, doc, "f")

	inner := mustParse(t, `<html><head></head><body><p>inner</p><iframe id="g"></iframe></body></html>`)
	deep := mustParse(t, `<html><head></head><body><p id="deep">deep</p></body></html>`)
	inner.Embed(mustElement(t, inner, "g"), deep)
	doc.Embed(frame, inner)

	sub, ok := doc.Subtree(frame)
	if !ok {
		t.Fatal("Subtree(frame) = false")
	}
	innerText := sub.Children(sub.Children(sub.Root())[1])[0].FirstChild
	got, err := epubcfi.Generate(sub, 1, epubcfi.Point[*html.Node]{Node: innerText, Offset: 2, HasOffset: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if want := "/6/4!/4/6[f]!/4/2/1:2"; got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}

	deepSub, ok := sub.Subtree(mustElement(t, inner, "g"))
	if !ok {
		t.Fatal("nested Subtree = false")
	}
	deepText := mustElement(t, deep, "deep").FirstChild
	got, err = epubcfi.Generate(deepSub, 1, epubcfi.Point[*html.Node]{Node: deepText, Offset: 1, HasOffset: true})
	if err != nil {
		t.Fatalf("Generate(nested) error: %v", err)
	}
	if want := "/6/4!/4/6[f]!/4/4[g]!/4/2[deep]/1:1"; got != want {
		t.Errorf("Generate(nested) = %q, want %q", got, want)
	}

	loc, err := epubcfi.Resolve(doc, epubcfi.MustParse(got))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if loc.Start.Node != deepText || loc.Start.Offset != 1 {
		t.Errorf("Resolve() = %+v, want deep text at 1", loc.Start)
	}

	_, err = epubcfi.Resolve(doc, epubcfi.MustParse("/6/4!/4/2!/4"))
	if !errors.Is(err, epubcfi.ErrNoSubdocument) {
		t.Errorf("Resolve() into plain element error = %v, want ErrNoSubdocument", err)
	}
}

func TestNew_Fragment(t *testing.T) {
	doc := mustParse(t, `<html><body><div id="x"><p>a</p></div></body></html>`)
	div := mustElement(t, doc, "x")
	frag := New(div)
	if frag.Root() != div {
		t.Fatal("New(element) did not keep the element as root")
	}
	got, err := epubcfi.Generate(frag, 0, epubcfi.Point[*html.Node]{Node: div.FirstChild.FirstChild, Offset: 1, HasOffset: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "/6/2!/2/1:1" {
		t.Errorf("Generate() = %q, want /6/2!/2/1:1", got)
	}
}
