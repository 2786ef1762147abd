// Package dom abstracts the document tree the filter engine works on.
// The browser implementation wraps live js.Value nodes; the snapshot
// implementation parses saved HTML so the engine is testable headless.
package dom

import "github.com/google/uuid"

// Marker attributes owned by the filter engine. Nothing else on the page
// writes these; the injected stylesheet keys on AttrHidden.
const (
	// AttrID carries the generated per-element identity.
	AttrID = "data-fabfilter-id"
	// AttrSeen marks elements already run through container resolution.
	AttrSeen = "data-fabfilter-seen"
	// AttrHidden marks containers currently hidden by the filter.
	AttrHidden = "data-fabfilter-hidden"
)

// HideRule is the CSS contract injected into the page: any element
// carrying the hidden marker is removed from layout.
const HideRule = "[" + AttrHidden + "] { display: none !important; }"

// Element is a single element node.
type Element interface {
	// Tag returns the lower-case tag name.
	Tag() string
	// Attr returns the attribute value, or "" when absent.
	Attr(name string) string
	SetAttr(name, value string)
	RemoveAttr(name string)
	HasAttr(name string) bool
	// HasClass reports whether the class attribute contains the given token.
	HasClass(name string) bool
	// Text returns the trimmed text content of the subtree.
	Text() string
	// Parent returns the parent element, or nil at the top of the tree.
	Parent() Element
	// Anchors returns descendant anchors (including the element itself)
	// whose href starts with the given prefix.
	Anchors(hrefPrefix string) []Element
	// FirstByClass returns the first descendant carrying the class token,
	// or nil.
	FirstByClass(name string) Element
	// HasDescendantTag reports whether the subtree contains the tag.
	HasDescendantTag(tag string) bool
	// Connected reports whether the element is still attached to its
	// document.
	Connected() bool
}

// Document is the page being filtered.
type Document interface {
	// Body returns the scan root.
	Body() Element
	// Anchors returns all anchors in the document whose href starts with
	// the given prefix.
	Anchors(hrefPrefix string) []Element
	// ByAttr returns every element carrying the attribute, used to clear
	// markers on a full reset.
	ByAttr(name string) []Element
	// InjectStyle adds a stylesheet to the page and returns its remover.
	InjectStyle(css string) (remove func(), err error)
	// Observe registers a callback invoked with element nodes added under
	// body. It returns a disconnect func.
	Observe(onAdded func(added []Element)) (disconnect func(), err error)
}

// Identify returns the element's generated identity, assigning one on
// first use. Identity lives in an attribute so it survives re-wrapping of
// the underlying node.
func Identify(el Element) string {
	if id := el.Attr(AttrID); id != "" {
		return id
	}
	id := uuid.NewString()
	el.SetAttr(AttrID, id)
	return id
}
