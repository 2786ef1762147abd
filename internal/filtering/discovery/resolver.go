// Package discovery finds product cards around seller links. Container
// resolution is the one genuinely heuristic piece of the engine and is
// expected to need updating when Fab ships new markup, so it is kept
// behind a small strategy interface and driven by the site profile.
package discovery

import (
	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/dom"
)

// ContainerResolver maps a seller link to the element representing the
// whole product card, or nil when no container can be derived.
type ContainerResolver interface {
	Resolve(link dom.Element) dom.Element
}

// MarkupResolver resolves containers from Fab's class conventions.
//
// Primary strategy: walk up a bounded number of ancestor levels and accept
// the first ancestor that holds both a listing link and an image, and
// either carries a card class itself or contains a surface-class
// descendant.
//
// Fallback: locate the nearest stack-class ancestor, climb out of any
// nested stacks, and accept the outermost one if it still holds a listing
// link and an image.
//
// A link that fails both strategies is skipped for this pass. There is no
// distinction between "not a product card" and "heuristic miss".
type MarkupResolver struct {
	profile config.SiteProfile
}

// NewMarkupResolver creates a resolver for the given site profile.
func NewMarkupResolver(profile config.SiteProfile) *MarkupResolver {
	return &MarkupResolver{profile: profile}
}

// Resolve implements ContainerResolver.
func (r *MarkupResolver) Resolve(link dom.Element) dom.Element {
	depth := 0
	for anc := link.Parent(); anc != nil && depth < r.profile.MaxAncestorDepth; anc = anc.Parent() {
		if r.isCard(anc) {
			return anc
		}
		depth++
	}

	var stack dom.Element
	for anc := link.Parent(); anc != nil; anc = anc.Parent() {
		if hasAnyClass(anc, r.profile.StackClasses) {
			stack = anc
			break
		}
	}
	if stack == nil {
		return nil
	}

	outer := stack
	for p := outer.Parent(); p != nil && hasAnyClass(p, r.profile.StackClasses); p = p.Parent() {
		outer = p
	}

	if r.holdsListingAndImage(outer) {
		return outer
	}
	return nil
}

func (r *MarkupResolver) isCard(el dom.Element) bool {
	if !r.holdsListingAndImage(el) {
		return false
	}
	if hasAnyClass(el, r.profile.CardClasses) {
		return true
	}
	for _, class := range r.profile.SurfaceClasses {
		if el.FirstByClass(class) != nil {
			return true
		}
	}
	return false
}

func (r *MarkupResolver) holdsListingAndImage(el dom.Element) bool {
	return len(el.Anchors(r.profile.ListingLinkPrefix)) > 0 && el.HasDescendantTag("img")
}

func hasAnyClass(el dom.Element, classes []string) bool {
	for _, class := range classes {
		if el.HasClass(class) {
			return true
		}
	}
	return false
}
