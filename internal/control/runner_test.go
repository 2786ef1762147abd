package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/core/domain"
	"github.com/johnharris85/fab-content-filter/internal/infra/settings"
)

func writeSnapshot(t *testing.T, dir, name string, sellers ...string) string {
	t.Helper()
	html := "<html><head></head><body>"
	for _, s := range sellers {
		html += fmt.Sprintf(`<div class="fabkit-Thumbnail-root">
  <a href="/listings/%s-item"><img src="x.png"></a>
  <a href="/sellers/%s">%s</a>
</div>`, s, s, s)
	}
	html += "</body></html>"

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
	return path
}

func newTestRunner(t *testing.T, snapshots []string, s domain.Settings) (*Runner, *settings.FileStore) {
	t.Helper()
	store := settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, store.Save(context.Background(), s))

	r := NewRunner(Config{
		Snapshots: snapshots,
		Profile:   config.DefaultProfile(),
		Tuning:    config.DefaultEngine(),
	}, store, slog.Default())
	return r, store
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "market.html", "alice", "bob", "carol")

	r, _ := newTestRunner(t, nil, domain.Settings{
		FilteredUsernames: []string{"bob"},
		ShowBlockedCount:  true,
	})

	report, err := r.ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Cards)
	assert.Equal(t, 1, report.Hidden)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1, "carol": 1}, report.Sellers)
	assert.Equal(t, "1", report.BadgeText)
}

func TestScanFile_MissingSnapshot(t *testing.T) {
	r, _ := newTestRunner(t, nil, domain.Settings{})

	_, err := r.ScanFile(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestRunner_SettingsReload(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "market.html", "alice", "bob")

	r, store := newTestRunner(t, []string{path}, domain.Settings{
		FilteredUsernames: []string{"bob"},
	})
	require.NoError(t, r.loadAll(context.Background()))
	defer r.Stop()

	require.Equal(t, 1, r.Reports()[0].Hidden)

	require.NoError(t, store.Save(context.Background(), domain.Settings{
		FilteredUsernames: []string{"alice", "bob"},
	}))
	// Make the edit visible regardless of filesystem timestamp granularity.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(store.Path(), future, future))

	r.pollOnce(context.Background())
	assert.Equal(t, 2, r.Reports()[0].Hidden)
}

func TestRunner_SnapshotReload(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "market.html", "alice")

	r, _ := newTestRunner(t, []string{path}, domain.Settings{
		FilteredUsernames: []string{"mallory"},
	})
	require.NoError(t, r.loadAll(context.Background()))
	defer r.Stop()

	require.Zero(t, r.Reports()[0].Hidden)

	writeSnapshot(t, dir, "market.html", "alice", "mallory", "mallory")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	r.pollOnce(context.Background())
	report := r.Reports()[0]
	assert.Equal(t, 3, report.Cards)
	assert.Equal(t, 2, report.Hidden)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "market.html", "alice")

	r, _ := newTestRunner(t, []string{path}, domain.Settings{})
	r.cfg.Tuning.RescanPoll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
	assert.Empty(t, r.Reports())
}

func TestServer_Status(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "market.html", "alice", "bob")

	r, _ := newTestRunner(t, []string{path}, domain.Settings{
		FilteredUsernames: []string{"alice"},
	})
	require.NoError(t, r.loadAll(context.Background()))
	defer r.Stop()

	s := NewServer(r, 0)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/status", nil))

	require.Equal(t, 200, rec.Code)
	var body struct {
		Pages       []PageReport `json:"pages"`
		TotalHidden int          `json:"total_hidden"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Pages, 1)
	assert.Equal(t, 1, body.TotalHidden)
	assert.Equal(t, path, body.Pages[0].Path)
}
