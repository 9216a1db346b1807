// Package xmltree adapts documents parsed by github.com/antchfx/xmlquery to
// the epubcfi.Tree interface.
//
// EPUB content documents are XHTML and reading systems load them with an
// XML parser, so this is the adapter to use for them. Text and CDATA nodes
// are both text; comments, processing instructions and declarations are
// skipped. Text lengths are counted in UTF-16 code units.
//
// Query locates nodes with XPath, which is convenient for turning a known
// element into a CFI:
//
//	doc, _ := xmltree.Parse(r)
//	n, _ := doc.Query("//p[@class='verse'][3]")
//	cfi, _ := epubcfi.Generate(doc, 4, epubcfi.Point[*xmlquery.Node]{Node: n})
package xmltree

import (
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/simp-lee/epubcfi"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Document is a parsed XML document rooted at its document element.
type Document struct {
	doc    *xmlquery.Node
	root   *xmlquery.Node
	embeds map[*xmlquery.Node]*Document
}

// Parse parses an XML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("xmltree: parse: %w", err)
	}
	d := New(doc)
	if d.root == nil {
		return nil, fmt.Errorf("xmltree: parse: no document element")
	}
	return d, nil
}

// New wraps an existing node tree. A document node is replaced by its
// document element; any other node becomes the root as is.
func New(n *xmlquery.Node) *Document {
	d := &Document{doc: n, root: n}
	if n.Type == xmlquery.DocumentNode {
		d.root = nil
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				d.root = c
				break
			}
		}
	}
	return d
}

// Embed registers sub as the document embedded at host, such as an
// <iframe> or an SVG <foreignObject> loaded separately.
func (d *Document) Embed(host *xmlquery.Node, sub *Document) {
	if d.embeds == nil {
		d.embeds = make(map[*xmlquery.Node]*Document)
	}
	d.embeds[host] = sub
}

// Query returns the first node matching the XPath expression expr.
// It returns (nil, nil) when nothing matches.
func (d *Document) Query(expr string) (*xmlquery.Node, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("xmltree: invalid xpath %q: %w", expr, err)
	}
	return xmlquery.QuerySelector(d.doc, e), nil
}

// QueryAll returns every node matching the XPath expression expr in
// document order.
func (d *Document) QueryAll(expr string) ([]*xmlquery.Node, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("xmltree: invalid xpath %q: %w", expr, err)
	}
	return xmlquery.QuerySelectorAll(d.doc, e), nil
}

// ElementByID returns the first element, in document order, whose id or
// xml:id attribute equals id.
func (d *Document) ElementByID(id string) (*xmlquery.Node, bool) {
	n := findByID(d.root, id)
	return n, n != nil
}

// Root implements epubcfi.Tree.
func (d *Document) Root() *xmlquery.Node { return d.root }

// Children implements epubcfi.Tree.
func (d *Document) Children(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode, xmlquery.TextNode, xmlquery.CharDataNode:
			out = append(out, c)
		}
	}
	return out
}

// Parent implements epubcfi.Tree.
func (d *Document) Parent(n *xmlquery.Node) (*xmlquery.Node, bool) {
	if n == d.root || n.Parent == nil {
		return nil, false
	}
	return n.Parent, true
}

// Kind implements epubcfi.Tree.
func (d *Document) Kind(n *xmlquery.Node) epubcfi.Kind {
	if n.Type == xmlquery.TextNode || n.Type == xmlquery.CharDataNode {
		return epubcfi.Text
	}
	return epubcfi.Element
}

// TextLength implements epubcfi.Tree.
func (d *Document) TextLength(n *xmlquery.Node) int {
	if d.Kind(n) != epubcfi.Text {
		return 0
	}
	return utf16Len(n.Data)
}

// ID implements epubcfi.Tree.
func (d *Document) ID(n *xmlquery.Node) (string, bool) {
	if n.Type != xmlquery.ElementNode {
		return "", false
	}
	return idAttr(n)
}

// Subtree implements epubcfi.Tree.
func (d *Document) Subtree(n *xmlquery.Node) (epubcfi.Tree[*xmlquery.Node], bool) {
	return d.subtree(d, n)
}

func (d *Document) subtree(host epubcfi.Tree[*xmlquery.Node], n *xmlquery.Node) (epubcfi.Tree[*xmlquery.Node], bool) {
	sub, ok := d.embeds[n]
	if !ok {
		return nil, false
	}
	return &embedded{Document: sub, host: host, at: n}, true
}

type embedded struct {
	*Document
	host epubcfi.Tree[*xmlquery.Node]
	at   *xmlquery.Node
}

func (e *embedded) Subtree(n *xmlquery.Node) (epubcfi.Tree[*xmlquery.Node], bool) {
	return e.Document.subtree(e, n)
}

func (e *embedded) Host() (epubcfi.Tree[*xmlquery.Node], *xmlquery.Node) {
	return e.host, e.at
}

// idAttr returns the id of an element. Both the plain id attribute of XHTML
// and xml:id are honoured; id wins when both are present.
func idAttr(n *xmlquery.Node) (string, bool) {
	var xmlID string
	found := false
	for _, a := range n.Attr {
		if a.Name.Local != "id" {
			continue
		}
		switch {
		case a.Name.Space == "":
			return a.Value, true
		case a.Name.Space == "xml" || a.Name.Space == xmlNamespace || a.NamespaceURI == xmlNamespace:
			xmlID, found = a.Value, true
		}
	}
	return xmlID, found
}

func findByID(n *xmlquery.Node, id string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	if n.Type == xmlquery.ElementNode {
		if got, ok := idAttr(n); ok && got == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findByID(c, id); result != nil {
			return result
		}
	}
	return nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
