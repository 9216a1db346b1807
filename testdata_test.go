package epubcfi

import "testing"

// node is a minimal in-memory document node for tests.
type node struct {
	name     string // element name, empty for text
	id       string
	text     string
	parent   *node
	children []*node
	sub      *testTree // embedded document, if any
}

func el(name string, children ...*node) *node {
	return &node{name: name, children: children}
}

func elID(name, id string, children ...*node) *node {
	return &node{name: name, id: id, children: children}
}

func txt(s string) *node {
	return &node{text: s}
}

// testTree implements Tree over *node. Lengths are byte lengths.
type testTree struct {
	root *node
}

// newTestTree links parent pointers below root and returns the tree.
func newTestTree(root *node) *testTree {
	link(root)
	return &testTree{root: root}
}

func link(n *node) {
	for _, c := range n.children {
		c.parent = n
		link(c)
	}
}

func (t *testTree) Root() *node { return t.root }
func (t *testTree) Children(n *node) []*node { return n.children }
func (t *testTree) TextLength(n *node) int { return len(n.text) }
func (t *testTree) Subtree(n *node) (Tree[*node], bool) { return t.subtree(t, n) }

func (t *testTree) Parent(n *node) (*node, bool) {
	if n == t.root || n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

func (t *testTree) Kind(n *node) Kind {
	if n.name == "" {
		return Text
	}
	return Element
}

func (t *testTree) ID(n *node) (string, bool) {
	return n.id, n.id != ""
}

func (t *testTree) subtree(host Tree[*node], n *node) (Tree[*node], bool) {
	if n.sub == nil {
		return nil, false
	}
	return &embeddedTestTree{testTree: n.sub, host: host, at: n}, true
}

type embeddedTestTree struct {
	*testTree
	host Tree[*node]
	at   *node
}

func (e *embeddedTestTree) Subtree(n *node) (Tree[*node], bool) { return e.testTree.subtree(e, n) }
func (e *embeddedTestTree) Host() (Tree[*node], *node) { return e.host, e.at }

// fixture is the document used by most resolver and generator tests:
//
//	html
//	  /2  head
//	  /4  body#body01
//	        /2  p#para01   "Hello " <b>bold</b> " world"
//	        /4  p#para02   "first" "second"  (two adjacent text nodes)
//	        /6  div        (empty)
//	        /8  p          <img/><img/>
//	        /10 iframe#frame  -> html > body > p "inner"
type fixture struct {
	tree     *testTree
	body     *node
	para01   *node
	hello    *node
	bold     *node
	world    *node
	para02   *node
	first    *node
	second   *node
	div      *node
	imgs     *node
	img1     *node
	img2     *node
	frame    *node
	inner    *testTree
	innerP   *node
	innerTxt *node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	f.innerTxt = txt("inner")
	f.innerP = el("p", f.innerTxt)
	f.inner = newTestTree(el("html", el("head"), el("body", f.innerP)))

	f.hello, f.world = txt("Hello "), txt(" world")
	f.bold = el("b", txt("bold"))
	f.para01 = elID("p", "para01", f.hello, f.bold, f.world)
	f.first, f.second = txt("first"), txt("second")
	f.para02 = elID("p", "para02", f.first, f.second)
	f.div = el("div")
	f.img1, f.img2 = el("img"), el("img")
	f.imgs = el("p", f.img1, f.img2)
	f.frame = elID("iframe", "frame")
	f.frame.sub = f.inner
	f.body = elID("body", "body01", f.para01, f.para02, f.div, f.imgs, f.frame)

	f.tree = newTestTree(el("html", el("head"), f.body))
	return f
}

// innerTree returns the embedded document as reached from the fixture.
func (f *fixture) innerTree(t *testing.T) Tree[*node] {
	t.Helper()
	sub, ok := f.tree.Subtree(f.frame)
	if !ok {
		t.Fatal("fixture iframe has no subtree")
	}
	return sub
}
