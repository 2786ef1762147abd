package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/core/domain"
	"github.com/johnharris85/fab-content-filter/internal/dom"
	"github.com/johnharris85/fab-content-filter/internal/dom/snapshot"
)

type stubStore struct {
	settings domain.Settings
	err      error
}

func (s *stubStore) Load(context.Context) (domain.Settings, error) {
	return s.settings, s.err
}

type badgeCall struct {
	text, color string
}

type recordingBadge struct {
	calls []badgeCall
	err   error
}

func (b *recordingBadge) UpdateBadge(text, color string) error {
	b.calls = append(b.calls, badgeCall{text, color})
	return b.err
}

func (b *recordingBadge) last(t *testing.T) badgeCall {
	t.Helper()
	require.NotEmpty(t, b.calls)
	return b.calls[len(b.calls)-1]
}

// manualScheduler lets the tests decide when the debounce window closes.
type manualScheduler struct {
	fn func()
}

func (m *manualScheduler) Schedule(_ time.Duration, fn func()) { m.fn = fn }
func (m *manualScheduler) Stop()                               { m.fn = nil }

func (m *manualScheduler) fire() {
	if m.fn != nil {
		fn := m.fn
		m.fn = nil
		fn()
	}
}

func card(seller string) string {
	return fmt.Sprintf(`<div class="fabkit-Thumbnail-root" id="card-%s">
  <a href="/listings/%s-item"><img src="x.png"></a>
  <a href="/sellers/%s"><img class="avatar" src="av.png"></a>
  <a href="/sellers/%s"><span class="fabkit-Typography-ellipsisWrapper">%s</span></a>
</div>`, seller, seller, seller, seller, seller)
}

func page(sellers ...string) string {
	var b strings.Builder
	b.WriteString("<html><head></head><body>")
	for _, s := range sellers {
		b.WriteString(card(s))
	}
	b.WriteString("</body></html>")
	return b.String()
}

type fixture struct {
	engine *Engine
	doc    *snapshot.Document
	badge  *recordingBadge
	sched  *manualScheduler
}

func newFixture(t *testing.T, html string, settings domain.Settings) *fixture {
	t.Helper()
	d, err := snapshot.ParseString(html)
	require.NoError(t, err)

	f := &fixture{
		doc:   d,
		badge: &recordingBadge{},
		sched: &manualScheduler{},
	}
	f.engine = New(Config{
		Document:  d,
		Profile:   config.DefaultProfile(),
		Tuning:    config.DefaultEngine(),
		Store:     &stubStore{settings: settings},
		Notifier:  f.badge,
		Scheduler: f.sched,
		Logger:    slog.Default(),
	})
	return f
}

func hiddenIDs(d *snapshot.Document) []string {
	var ids []string
	for _, el := range d.ByAttr(dom.AttrHidden) {
		ids = append(ids, el.Attr("id"))
	}
	return ids
}

func TestInitialize_HidesFilteredCards(t *testing.T) {
	f := newFixture(t, page("alice", "bob", "carol"), domain.Settings{
		FilteredUsernames: []string{"bob"},
	})

	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.True(t, f.engine.Ready())
	assert.Equal(t, 3, f.engine.CardCount())
	assert.Equal(t, 1, f.engine.BlockedCount())
	assert.Equal(t, []string{"card-bob"}, hiddenIDs(f.doc))

	// Show-count is off, so the badge is blank and neutral.
	assert.Equal(t, badgeCall{"", "#666666"}, f.badge.last(t))
}

func TestInitialize_ShowCountBadge(t *testing.T) {
	f := newFixture(t, page("alice", "bob", "carol"), domain.Settings{
		FilteredUsernames: []string{"bob", "carol"},
		ShowBlockedCount:  true,
	})

	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.Equal(t, 2, f.engine.BlockedCount())
	assert.Equal(t, badgeCall{"2", "#C0392B"}, f.badge.last(t))
}

func TestInitialize_InjectsHideRule(t *testing.T) {
	f := newFixture(t, page("alice"), domain.Settings{})
	require.NoError(t, f.engine.Initialize(context.Background()))

	var out strings.Builder
	require.NoError(t, f.doc.Render(&out))
	assert.Contains(t, out.String(), dom.AttrHidden)
}

func TestInitialize_StoreFailureLeavesPageUntouched(t *testing.T) {
	d, err := snapshot.ParseString(page("alice", "bob"))
	require.NoError(t, err)

	e := New(Config{
		Document:  d,
		Profile:   config.DefaultProfile(),
		Tuning:    config.DefaultEngine(),
		Store:     &stubStore{err: errors.New("storage gone")},
		Notifier:  &recordingBadge{},
		Scheduler: &manualScheduler{},
		Logger:    slog.Default(),
	})

	require.Error(t, e.Initialize(context.Background()))
	assert.False(t, e.Ready())
	assert.Empty(t, d.ByAttr(dom.AttrHidden))
	assert.Empty(t, d.ByAttr(dom.AttrSeen))
}

func TestSellerMatchIsCaseSensitive(t *testing.T) {
	f := newFixture(t, page("Alice"), domain.Settings{
		FilteredUsernames: []string{"alice"},
	})

	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.Zero(t, f.engine.BlockedCount(), "usernames are matched exactly")
	assert.Empty(t, hiddenIDs(f.doc))
}

func TestAvatarLinkDoesNotShadowNameLink(t *testing.T) {
	// The avatar link carries no text and precedes the name link in
	// document order. The card must still be hidden.
	f := newFixture(t, page("alice"), domain.Settings{
		FilteredUsernames: []string{"alice"},
	})

	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.Equal(t, 1, f.engine.BlockedCount())
	assert.Equal(t, 1, f.engine.CardCount(), "two links, one card")
}

func TestOnFiltersUpdated_Recount(t *testing.T) {
	f := newFixture(t, page("alice", "bob", "carol"), domain.Settings{
		FilteredUsernames: []string{"bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))
	require.Equal(t, 1, f.engine.BlockedCount())

	raw := []byte(`{"action":"updateFilters","usernames":["alice","carol"]}`)
	require.NoError(t, f.engine.HandleRaw(raw))

	assert.Equal(t, 2, f.engine.BlockedCount())
	assert.ElementsMatch(t, []string{"card-alice", "card-carol"}, hiddenIDs(f.doc))
}

func TestOnFiltersUpdated_EmptyListRestoresEverything(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{
		FilteredUsernames: []string{"alice", "bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))
	require.Equal(t, 2, f.engine.BlockedCount())

	f.engine.OnFiltersUpdated(nil)

	assert.Zero(t, f.engine.BlockedCount())
	assert.Empty(t, f.doc.ByAttr(dom.AttrHidden))
}

func TestOnFiltersUpdated_Idempotent(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{
		FilteredUsernames: []string{"bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))

	f.engine.OnFiltersUpdated([]string{"bob"})
	f.engine.OnFiltersUpdated([]string{"bob"})

	assert.Equal(t, 1, f.engine.BlockedCount(), "re-applying the same decision must not drift the count")
	assert.Equal(t, []string{"card-bob"}, hiddenIDs(f.doc))
}

func TestOnShowCountToggled(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{
		FilteredUsernames: []string{"alice", "bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))

	require.NoError(t, f.engine.HandleRaw([]byte(`{"action":"updateShowCount","showCount":true}`)))
	assert.Equal(t, badgeCall{"2", "#C0392B"}, f.badge.last(t))
	assert.Equal(t, 2, f.engine.BlockedCount(), "toggling the badge must not touch filter state")

	require.NoError(t, f.engine.HandleRaw([]byte(`{"action":"updateShowCount","showCount":false}`)))
	assert.Equal(t, badgeCall{"", "#666666"}, f.badge.last(t))
}

func TestShowCountWithZeroBlockedStaysBlank(t *testing.T) {
	f := newFixture(t, page("alice"), domain.Settings{ShowBlockedCount: true})
	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.Equal(t, badgeCall{"", "#666666"}, f.badge.last(t))
}

func TestHandleRaw_MalformedMessageChangesNothing(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{
		FilteredUsernames: []string{"bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))
	badgesBefore := len(f.badge.calls)

	for _, raw := range []string{
		`{"action":"updateFilters","usernames":"not-an-array"}`,
		`{"action":"updateFilters"}`,
		`{"action":"updateFilters","usernames":null}`,
		`{"action":"updateShowCount","showCount":null}`,
		`{"action":"updateShowCount","showCount":"yes"}`,
		`{"action":"selfDestruct"}`,
		`{{{`,
	} {
		assert.Error(t, f.engine.HandleRaw([]byte(raw)), raw)
	}

	assert.Equal(t, 1, f.engine.BlockedCount())
	assert.Equal(t, []string{"card-bob"}, hiddenIDs(f.doc))
	assert.Len(t, f.badge.calls, badgesBefore, "rejected messages must not emit badge updates")
}

func TestMutationBurst_OnePassOneBadgeUpdate(t *testing.T) {
	f := newFixture(t, page("alice"), domain.Settings{
		FilteredUsernames: []string{"mallory"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))
	badgesBefore := len(f.badge.calls)

	// Three insertions land inside one debounce window.
	for i := 0; i < 3; i++ {
		_, err := f.doc.AppendHTML(f.doc.Body(), card("mallory"))
		require.NoError(t, err)
	}
	assert.Zero(t, f.engine.BlockedCount(), "nothing processed until the window closes")

	f.sched.fire()

	assert.Equal(t, 3, f.engine.BlockedCount())
	assert.Equal(t, 4, f.engine.CardCount())
	assert.Len(t, f.badge.calls, badgesBefore+1, "one burst, one badge update")
}

func TestMutationOfAlreadySeenSubtreeIsCheap(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{
		FilteredUsernames: []string{"bob"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))

	// A mutation whose subtree only contains already-marked links must
	// not re-hide or re-count anything.
	f.engine.processBatch([]dom.Element{f.doc.Body()})

	assert.Equal(t, 1, f.engine.BlockedCount())
	assert.Equal(t, 2, f.engine.CardCount())
}

func TestSellerCounts(t *testing.T) {
	f := newFixture(t, page("alice", "bob"), domain.Settings{})
	require.NoError(t, f.engine.Initialize(context.Background()))

	counts := f.engine.SellerCounts()
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, counts)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t, page("alice"), domain.Settings{
		FilteredUsernames: []string{"mallory"},
	})
	require.NoError(t, f.engine.Initialize(context.Background()))

	f.engine.Cleanup()
	assert.False(t, f.engine.Ready())

	var out strings.Builder
	require.NoError(t, f.doc.Render(&out))
	assert.NotContains(t, out.String(), "display: none", "hide rule must be removed")

	// The observer is disconnected, so fresh mutations no longer queue.
	f.sched.fn = nil
	_, err := f.doc.AppendHTML(f.doc.Body(), card("mallory"))
	require.NoError(t, err)
	assert.Nil(t, f.sched.fn)

	f.engine.Cleanup() // idempotent
}
