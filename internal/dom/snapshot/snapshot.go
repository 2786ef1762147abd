// Package snapshot implements the dom interfaces over parsed HTML.
// It backs the developer harness and the engine tests: saved Fab pages are
// loaded as documents and mutations are replayed by appending fragments.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/johnharris85/fab-content-filter/internal/dom"
)

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
	head *html.Node
	body *html.Node

	mu        sync.Mutex
	observers map[int]func([]dom.Element)
	nextObs   int
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	d := &Document{root: root, observers: make(map[int]func([]dom.Element))}
	d.head = findTag(root, "head")
	d.body = findTag(root, "body")
	if d.body == nil {
		return nil, fmt.Errorf("document has no body")
	}
	return d, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses an HTML snapshot from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Body returns the scan root.
func (d *Document) Body() dom.Element {
	return &Element{doc: d, node: d.body}
}

// Anchors returns every anchor in the body whose href starts with prefix.
func (d *Document) Anchors(hrefPrefix string) []dom.Element {
	return d.Body().Anchors(hrefPrefix)
}

// ByAttr returns every element in the document carrying the attribute.
func (d *Document) ByAttr(name string) []dom.Element {
	var out []dom.Element
	walk(d.root, func(n *html.Node) bool {
		if getAttr(n, name) != nil {
			out = append(out, &Element{doc: d, node: n})
		}
		return true
	})
	return out
}

// InjectStyle appends a style element to head and returns its remover.
func (d *Document) InjectStyle(css string) (func(), error) {
	parent := d.head
	if parent == nil {
		parent = d.body
	}

	style := &html.Node{Type: html.ElementNode, Data: "style"}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	parent.AppendChild(style)

	return func() {
		if style.Parent != nil {
			style.Parent.RemoveChild(style)
		}
	}, nil
}

// Observe registers a mutation callback and returns its disconnect func.
func (d *Document) Observe(onAdded func([]dom.Element)) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextObs
	d.nextObs++
	d.observers[id] = onAdded

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}, nil
}

// AppendHTML parses a fragment in the context of parent, appends it, and
// notifies observers. This is the snapshot analog of a page mutation
// burst.
func (d *Document) AppendHTML(parent dom.Element, fragment string) ([]dom.Element, error) {
	pe, ok := parent.(*Element)
	if !ok {
		return nil, fmt.Errorf("parent is not a snapshot element")
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), pe.node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	var added []dom.Element
	for _, n := range nodes {
		pe.node.AppendChild(n)
		if n.Type == html.ElementNode {
			added = append(added, &Element{doc: d, node: n})
		}
	}

	d.notifyAdded(added)
	return added, nil
}

// Detach removes an element from the tree. Used to simulate nodes that
// disappear between mutation and processing.
func (d *Document) Detach(el dom.Element) {
	if e, ok := el.(*Element); ok && e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

func (d *Document) notifyAdded(added []dom.Element) {
	if len(added) == 0 {
		return
	}
	d.mu.Lock()
	obs := make([]func([]dom.Element), 0, len(d.observers))
	for _, cb := range d.observers {
		obs = append(obs, cb)
	}
	d.mu.Unlock()

	for _, cb := range obs {
		cb(added)
	}
}

// Render serializes the current document, markers included.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Element wraps a single parsed element node.
type Element struct {
	doc  *Document
	node *html.Node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.node.Data }

// Attr returns the attribute value, or "" when absent.
func (e *Element) Attr(name string) string {
	if a := getAttr(e.node, name); a != nil {
		return a.Val
	}
	return ""
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	if a := getAttr(e.node, name); a != nil {
		a.Val = value
		return
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			return
		}
	}
}

// HasAttr reports attribute presence.
func (e *Element) HasAttr(name string) bool { return getAttr(e.node, name) != nil }

// HasClass reports whether the class attribute contains the token.
func (e *Element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Text returns the trimmed text content of the subtree.
func (e *Element) Text() string {
	var sb strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(e.node)
	return strings.TrimSpace(sb.String())
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() dom.Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return &Element{doc: e.doc, node: p}
		}
	}
	return nil
}

// Anchors returns descendant anchors (the element itself included) whose
// href starts with prefix.
func (e *Element) Anchors(hrefPrefix string) []dom.Element {
	var out []dom.Element
	walk(e.node, func(n *html.Node) bool {
		if n.Data == "a" {
			if a := getAttr(n, "href"); a != nil && strings.HasPrefix(a.Val, hrefPrefix) {
				out = append(out, &Element{doc: e.doc, node: n})
			}
		}
		return true
	})
	return out
}

// FirstByClass returns the first descendant carrying the class token.
func (e *Element) FirstByClass(name string) dom.Element {
	var found *html.Node
	walk(e.node, func(n *html.Node) bool {
		if n != e.node && hasClassToken(n, name) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Element{doc: e.doc, node: found}
}

// HasDescendantTag reports whether the subtree contains the tag.
func (e *Element) HasDescendantTag(tag string) bool {
	hit := false
	walk(e.node, func(n *html.Node) bool {
		if n != e.node && n.Data == tag {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// Connected reports whether the element is still attached to the document.
func (e *Element) Connected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, name string) *html.Attribute {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			return &n.Attr[i]
		}
	}
	return nil
}

func hasClassToken(n *html.Node, name string) bool {
	a := getAttr(n, "class")
	if a == nil {
		return false
	}
	for _, c := range strings.Fields(a.Val) {
		if c == name {
			return true
		}
	}
	return false
}

// walk visits element nodes depth-first, root included. The visitor
// returns false to stop early.
func walk(root *html.Node, visit func(*html.Node) bool) {
	var rec func(n *html.Node) bool
	rec = func(n *html.Node) bool {
		if n.Type == html.ElementNode && !visit(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !rec(c) {
				return false
			}
		}
		return true
	}
	rec(root)
}

func findTag(root *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}
