package discovery

import (
	"log/slog"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/dom"
)

// Pair is a seller link together with its resolved product card container.
type Pair struct {
	Link      dom.Element
	Container dom.Element
}

// Cache deduplicates scan work. Elements already run through container
// resolution carry a seen marker and are skipped on later passes until a
// full reset strips the markers.
type Cache struct {
	profile  config.SiteProfile
	resolver ContainerResolver
	log      *slog.Logger
}

// NewCache creates a cache using the given resolution strategy.
func NewCache(profile config.SiteProfile, resolver ContainerResolver, log *slog.Logger) *Cache {
	return &Cache{
		profile:  profile,
		resolver: resolver,
		log:      log.With("component", "discovery"),
	}
}

// FindNewElements collects the (seller link, container) pairs under root
// that have not been seen before, marking links and containers as seen as
// they are found. A link whose container cannot be resolved stays skipped
// until a reset or a fresh appearance of the node.
func (c *Cache) FindNewElements(root dom.Element) []Pair {
	var pairs []Pair
	for _, link := range root.Anchors(c.profile.SellerLinkPrefix) {
		if link.HasAttr(dom.AttrSeen) {
			continue
		}
		link.SetAttr(dom.AttrSeen, "true")

		container := c.resolver.Resolve(link)
		if container == nil {
			c.log.Debug("no container resolved for seller link", "href", link.Attr("href"))
			continue
		}
		// A card usually holds two seller links (avatar and name); both
		// yield the same container and the engine applies the decision
		// idempotently.
		container.SetAttr(dom.AttrSeen, "true")

		pairs = append(pairs, Pair{Link: link, Container: container})
	}
	return pairs
}

// Reset strips every seen marker so the next scan re-derives containers
// from scratch.
func (c *Cache) Reset(doc dom.Document) {
	for _, el := range doc.ByAttr(dom.AttrSeen) {
		el.RemoveAttr(dom.AttrSeen)
	}
}
