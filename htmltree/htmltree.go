// Package htmltree adapts documents parsed by golang.org/x/net/html to the
// epubcfi.Tree interface.
//
// Use it for content a browser would load with its HTML parser. EPUB
// content documents served as application/xhtml+xml are parsed as XML by
// browsers and keep every whitespace text node; use package xmltree for
// those so that generated paths match the ones a reading system produces.
//
// Text lengths are counted in UTF-16 code units, the unit of DOM offsets.
package htmltree

import (
	"fmt"
	"io"
	"unicode/utf16"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/simp-lee/epubcfi"
)

// Document is a parsed HTML document rooted at its document element.
type Document struct {
	root   *html.Node
	embeds map[*html.Node]*Document
}

// Parse parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmltree: parse: %w", err)
	}
	return New(doc), nil
}

// New wraps an existing node tree. A document node is replaced by its
// document element; any other node becomes the root as is.
func New(n *html.Node) *Document {
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				n = c
				break
			}
		}
	}
	return &Document{root: n}
}

// Embed registers sub as the document embedded at host, such as the content
// of an iframe. Paths crossing host with an indirection (!) continue in sub.
func (d *Document) Embed(host *html.Node, sub *Document) {
	if d.embeds == nil {
		d.embeds = make(map[*html.Node]*Document)
	}
	d.embeds[host] = sub
}

// Frames returns the elements that can host an embedded document
// (iframe, object, embed) in document order. Callers load the referenced
// content and register it with Embed.
func (d *Document) Frames() []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && frameTags[n.DataAtom] {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

var frameTags = map[atom.Atom]bool{
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
}

// ElementByID returns the first element, in document order, whose id
// attribute equals id.
func (d *Document) ElementByID(id string) (*html.Node, bool) {
	n := findByID(d.root, id)
	return n, n != nil
}

// Root implements epubcfi.Tree.
func (d *Document) Root() *html.Node { return d.root }

// Children implements epubcfi.Tree. Only element and text children are
// returned.
func (d *Document) Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			out = append(out, c)
		}
	}
	return out
}

// Parent implements epubcfi.Tree.
func (d *Document) Parent(n *html.Node) (*html.Node, bool) {
	if n == d.root || n.Parent == nil {
		return nil, false
	}
	return n.Parent, true
}

// Kind implements epubcfi.Tree.
func (d *Document) Kind(n *html.Node) epubcfi.Kind {
	if n.Type == html.TextNode {
		return epubcfi.Text
	}
	return epubcfi.Element
}

// TextLength implements epubcfi.Tree.
func (d *Document) TextLength(n *html.Node) int {
	if n.Type != html.TextNode {
		return 0
	}
	return utf16Len(n.Data)
}

// ID implements epubcfi.Tree.
func (d *Document) ID(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "id" {
			return a.Val, true
		}
	}
	return "", false
}

// Subtree implements epubcfi.Tree.
func (d *Document) Subtree(n *html.Node) (epubcfi.Tree[*html.Node], bool) {
	return d.subtree(d, n)
}

func (d *Document) subtree(host epubcfi.Tree[*html.Node], n *html.Node) (epubcfi.Tree[*html.Node], bool) {
	sub, ok := d.embeds[n]
	if !ok {
		return nil, false
	}
	return &embedded{Document: sub, host: host, at: n}, true
}

// embedded is a document reached through an indirection. It knows its host
// so that generated paths can climb back out of it.
type embedded struct {
	*Document
	host epubcfi.Tree[*html.Node]
	at   *html.Node
}

func (e *embedded) Subtree(n *html.Node) (epubcfi.Tree[*html.Node], bool) {
	return e.Document.subtree(e, n)
}

func (e *embedded) Host() (epubcfi.Tree[*html.Node], *html.Node) {
	return e.host, e.at
}

// findByID performs a depth-first search for an element with the given id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findByID(c, id); result != nil {
			return result
		}
	}
	return nil
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
