// Package engine hides product cards from filtered sellers. It owns the
// filtered username set, the per-card visibility state, and the blocked
// count shown on the extension badge. The DOM, the settings store, the
// badge transport and the scheduling primitives are all injected, so the
// same engine runs against a live page and against parsed snapshots.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/core/domain"
	"github.com/johnharris85/fab-content-filter/internal/dom"
	"github.com/johnharris85/fab-content-filter/internal/filtering/discovery"
	"github.com/johnharris85/fab-content-filter/internal/filtering/metrics"
	"github.com/johnharris85/fab-content-filter/internal/filtering/sellerset"
	"github.com/johnharris85/fab-content-filter/internal/filtering/watch"
)

// BadgeNotifier delivers badge updates to whatever renders the badge.
// Delivery is best-effort; the engine swallows failures.
type BadgeNotifier interface {
	UpdateBadge(text, color string) error
}

// SettingsStore reads the persisted user settings at startup.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
}

// Config holds everything an engine needs to run against one document.
type Config struct {
	Document  dom.Document
	Profile   config.SiteProfile
	Tuning    config.EngineConfig
	Store     SettingsStore
	Notifier  BadgeNotifier
	Scheduler watch.Scheduler
	Frame     watch.Frame
	Resolver  discovery.ContainerResolver // optional, defaults to the markup resolver
	Logger    *slog.Logger
}

// Engine is the per-page filter instance. All state lives here; there are
// no package-level globals. Not safe for concurrent use: the browser runs
// it on one thread and the harness drives it from a single goroutine.
type Engine struct {
	doc      dom.Document
	profile  config.SiteProfile
	tuning   config.EngineConfig
	store    SettingsStore
	notifier BadgeNotifier
	sched    watch.Scheduler
	frame    watch.Frame
	log      *slog.Logger

	filters   *sellerset.Set
	cache     *discovery.Cache
	watcher   *watch.Watcher
	resources *Resources

	states    map[string]domain.CardState
	sellers   map[string]int
	blocked   int
	showCount bool
	ready     bool
}

// New creates an engine. Call Initialize before anything else.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "engine")

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = discovery.NewMarkupResolver(cfg.Profile)
	}

	return &Engine{
		doc:       cfg.Document,
		profile:   cfg.Profile,
		tuning:    cfg.Tuning,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		sched:     cfg.Scheduler,
		frame:     cfg.Frame,
		log:       log,
		filters:   sellerset.New(),
		cache:     discovery.NewCache(cfg.Profile, resolver, log),
		resources: NewResources(),
		states:    make(map[string]domain.CardState),
		sellers:   make(map[string]int),
	}
}

// Initialize loads settings, injects the hide rule, performs the first
// full-document scan, starts the mutation watcher and sends the initial
// badge update. On failure the engine stays inert; the page is never
// broken by a half-initialized filter. Inbound message delivery is wired
// by the caller via HandleRaw.
func (e *Engine) Initialize(ctx context.Context) error {
	settings, err := e.store.Load(ctx)
	if err != nil {
		e.log.Warn("settings unavailable, filtering stays inactive", "error", err)
		return fmt.Errorf("failed to load settings: %w", err)
	}
	e.filters.Replace(settings.FilteredUsernames)
	e.showCount = settings.ShowBlockedCount

	removeStyle, err := e.doc.InjectStyle(dom.HideRule)
	if err != nil {
		e.log.Warn("failed to inject hide rule", "error", err)
		return fmt.Errorf("failed to inject hide rule: %w", err)
	}
	e.resources.Track(removeStyle)

	e.scan(e.doc.Body())

	e.watcher = watch.New(e.tuning.DebounceDelay, e.sched, e.frame, e.processBatch, e.log)
	disconnect, err := e.doc.Observe(e.watcher.Enqueue)
	if err != nil {
		e.resources.Cleanup()
		return fmt.Errorf("failed to observe document: %w", err)
	}
	e.resources.Track(disconnect)
	e.resources.Track(e.watcher.Stop)

	e.ready = true
	e.log.Info("engine initialized",
		"filtered", e.filters.Size(),
		"cards", len(e.states),
		"hidden", e.blocked)
	e.updateBadge()
	return nil
}

// ApplyFilter decides visibility for one card. Idempotent: re-applying
// the current decision never moves the blocked count.
func (e *Engine) ApplyFilter(link, container dom.Element) {
	name := e.sellerName(link)
	if name == "" {
		return
	}

	id := dom.Identify(container)
	current := e.states[id]
	if current == domain.CardUnseen {
		metrics.CardsScanned.Inc()
		e.sellers[name]++
	}

	filtered := e.filters.Contains(name)
	switch {
	case filtered && current != domain.CardHidden:
		e.transition(id, current, domain.CardHidden)
		container.SetAttr(dom.AttrHidden, "true")
		e.blocked++
	case !filtered && current == domain.CardHidden:
		e.transition(id, current, domain.CardVisible)
		container.RemoveAttr(dom.AttrHidden)
		e.blocked--
	case !filtered && current == domain.CardUnseen:
		e.transition(id, current, domain.CardVisible)
	}
}

// OnFiltersUpdated replaces the username set wholesale and re-derives the
// whole document: markers cleared, count zeroed, full re-scan. Cheaper
// differential updates are possible but the list tops out at a few
// hundred entries.
func (e *Engine) OnFiltersUpdated(usernames []string) {
	e.log.Info("filter list replaced", "count", len(usernames))
	metrics.FilterResets.Inc()

	e.filters.Replace(usernames)
	e.reset()
	e.scan(e.doc.Body())
	e.updateBadge()
}

// OnShowCountToggled flips the badge display mode. Filter state is
// untouched.
func (e *Engine) OnShowCountToggled(flag bool) {
	e.showCount = flag
	e.updateBadge()
}

// HandleRaw decodes and dispatches a wire message. Malformed or unknown
// messages are rejected and logged without any state change.
func (e *Engine) HandleRaw(data []byte) error {
	msg, err := domain.DecodeInbound(data)
	if err != nil {
		metrics.RejectedMessages.Inc()
		e.log.Warn("rejected inbound message", "error", err)
		return err
	}
	return e.HandleMessage(msg)
}

// HandleMessage dispatches a decoded inbound message.
func (e *Engine) HandleMessage(msg domain.InboundMessage) error {
	switch m := msg.(type) {
	case domain.UpdateFilters:
		e.OnFiltersUpdated(m.Usernames)
	case domain.UpdateShowCount:
		e.OnShowCountToggled(m.ShowCount)
	default:
		metrics.RejectedMessages.Inc()
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, msg.Action())
	}
	return nil
}

// Cleanup releases every page resource the engine holds. Idempotent.
func (e *Engine) Cleanup() {
	e.resources.Cleanup()
	e.ready = false
}

// BlockedCount returns the number of currently hidden cards.
func (e *Engine) BlockedCount() int { return e.blocked }

// CardCount returns the number of cards that have been through a scan.
func (e *Engine) CardCount() int { return len(e.states) }

// ShowCount reports the badge display toggle.
func (e *Engine) ShowCount() bool { return e.showCount }

// Ready reports whether Initialize succeeded.
func (e *Engine) Ready() bool { return e.ready }

// SellerCounts returns cards seen per seller, for harness reporting.
func (e *Engine) SellerCounts() map[string]int {
	out := make(map[string]int, len(e.sellers))
	for name, n := range e.sellers {
		out[name] = n
	}
	return out
}

// Badge returns the text and color the badge should currently show.
func (e *Engine) Badge() (text, color string) {
	color = e.tuning.NeutralColor
	if !e.showCount {
		return "", color
	}
	if e.blocked > 0 {
		return strconv.Itoa(e.blocked), e.tuning.BlockedColor
	}
	return "", color
}

// scan runs discovery under root and applies the filter to every new pair.
func (e *Engine) scan(root dom.Element) {
	for _, pair := range e.cache.FindNewElements(root) {
		e.ApplyFilter(pair.Link, pair.Container)
	}
}

// processBatch handles one debounced mutation burst: scan every added
// subtree, then a single badge update for the whole batch.
func (e *Engine) processBatch(batch []dom.Element) {
	for _, el := range batch {
		e.scan(el)
	}
	e.updateBadge()
}

func (e *Engine) reset() {
	e.cache.Reset(e.doc)
	for _, el := range e.doc.ByAttr(dom.AttrHidden) {
		el.RemoveAttr(dom.AttrHidden)
	}
	e.states = make(map[string]domain.CardState)
	e.sellers = make(map[string]int)
	e.blocked = 0
}

func (e *Engine) transition(id string, from, to domain.CardState) {
	if !domain.CanTransition(from, to) {
		// Should not happen; the switch in ApplyFilter only requests
		// legal moves.
		e.log.Debug("unexpected card transition", "from", from.String(), "to", to.String())
	}
	e.states[id] = to
}

// sellerName extracts the username from the seller link's name element,
// falling back to the link's own text.
func (e *Engine) sellerName(link dom.Element) string {
	if sub := link.FirstByClass(e.profile.SellerNameClass); sub != nil {
		return strings.TrimSpace(sub.Text())
	}
	return strings.TrimSpace(link.Text())
}

func (e *Engine) updateBadge() {
	text, color := e.Badge()
	metrics.CardsHidden.Set(float64(e.blocked))
	metrics.BadgeUpdates.Inc()
	if err := e.notifier.UpdateBadge(text, color); err != nil {
		// The extension runtime may be gone mid-flight; filtering keeps
		// working without a badge.
		e.log.Debug("badge update not delivered", "error", err)
	}
}
