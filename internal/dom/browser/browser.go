//go:build js && wasm

// Package browser implements the dom interfaces over the real page DOM
// via syscall/js. It is the content script's document; everything else in
// the module is browser-agnostic.
package browser

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/johnharris85/fab-content-filter/internal/dom"
)

// Document wraps the page's global document.
type Document struct {
	doc js.Value
}

// NewDocument returns the live page document.
func NewDocument() *Document {
	return &Document{doc: js.Global().Get("document")}
}

// Body returns the document body.
func (d *Document) Body() dom.Element {
	return wrap(d.doc.Get("body"))
}

// Anchors returns every anchor whose href starts with the given prefix.
func (d *Document) Anchors(hrefPrefix string) []dom.Element {
	return collect(d.doc.Call("querySelectorAll", anchorSelector(hrefPrefix)))
}

// ByAttr returns every element carrying the given attribute.
func (d *Document) ByAttr(name string) []dom.Element {
	return collect(d.doc.Call("querySelectorAll", "["+name+"]"))
}

// InjectStyle appends a style element to the document head and returns
// a func that removes it again.
func (d *Document) InjectStyle(css string) (func(), error) {
	head := d.doc.Get("head")
	if !head.Truthy() {
		return nil, fmt.Errorf("document has no head")
	}
	style := d.doc.Call("createElement", "style")
	style.Set("textContent", css)
	head.Call("appendChild", style)
	return func() { style.Call("remove") }, nil
}

// Observe watches the whole document for added nodes with a
// MutationObserver. The returned func disconnects the observer and
// releases the callback.
func (d *Document) Observe(onAdded func([]dom.Element)) (func(), error) {
	body := d.doc.Get("body")
	if !body.Truthy() {
		return nil, fmt.Errorf("document has no body")
	}

	callback := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		mutations := args[0]
		var added []dom.Element
		for i := 0; i < mutations.Length(); i++ {
			nodes := mutations.Index(i).Get("addedNodes")
			for j := 0; j < nodes.Length(); j++ {
				node := nodes.Index(j)
				// Element nodes only; text and comment nodes carry no cards.
				if node.Get("nodeType").Int() == 1 {
					added = append(added, wrap(node))
				}
			}
		}
		if len(added) > 0 {
			onAdded(added)
		}
		return nil
	})

	observer := js.Global().Get("MutationObserver").New(callback)
	observer.Call("observe", body, js.ValueOf(map[string]any{
		"childList": true,
		"subtree":   true,
	}))

	return func() {
		observer.Call("disconnect")
		callback.Release()
	}, nil
}

// Element wraps a single DOM element.
type Element struct {
	node js.Value
}

func wrap(node js.Value) *Element {
	return &Element{node: node}
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Get("tagName").String())
}

// Attr returns the attribute value, or "" when absent.
func (e *Element) Attr(name string) string {
	v := e.node.Call("getAttribute", name)
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	e.node.Call("setAttribute", name, value)
}

// RemoveAttr removes an attribute.
func (e *Element) RemoveAttr(name string) {
	e.node.Call("removeAttribute", name)
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	return e.node.Call("hasAttribute", name).Bool()
}

// HasClass reports whether the element carries the class token.
func (e *Element) HasClass(name string) bool {
	return e.node.Get("classList").Call("contains", name).Bool()
}

// Text returns the element's trimmed text content.
func (e *Element) Text() string {
	return strings.TrimSpace(e.node.Get("textContent").String())
}

// Parent returns the parent element, or nil at the top.
func (e *Element) Parent() dom.Element {
	parent := e.node.Get("parentElement")
	if !parent.Truthy() {
		return nil
	}
	return wrap(parent)
}

// Anchors returns anchors whose href starts with the prefix, including
// the element itself. querySelectorAll only matches descendants, so a
// mutation whose added node is itself a matching anchor needs the
// explicit self check.
func (e *Element) Anchors(hrefPrefix string) []dom.Element {
	found := collect(e.node.Call("querySelectorAll", anchorSelector(hrefPrefix)))
	if e.Tag() == "a" && strings.HasPrefix(e.Attr("href"), hrefPrefix) {
		return append([]dom.Element{e}, found...)
	}
	return found
}

// FirstByClass returns the first descendant with the class, or nil.
func (e *Element) FirstByClass(name string) dom.Element {
	found := e.node.Call("querySelector", "."+name)
	if !found.Truthy() {
		return nil
	}
	return wrap(found)
}

// HasDescendantTag reports whether a descendant with the tag exists.
func (e *Element) HasDescendantTag(tag string) bool {
	return e.node.Call("querySelector", tag).Truthy()
}

// Connected reports whether the element is still attached to the page.
func (e *Element) Connected() bool {
	return e.node.Get("isConnected").Bool()
}

func anchorSelector(hrefPrefix string) string {
	return fmt.Sprintf(`a[href^=%q]`, hrefPrefix)
}

func collect(list js.Value) []dom.Element {
	out := make([]dom.Element, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		out = append(out, wrap(list.Index(i)))
	}
	return out
}
