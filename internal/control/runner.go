// Package control runs filter engines outside a browser. The runner loads
// HTML snapshot files, drives one engine per page against the local
// settings file, and in serve mode polls both for changes so edits show
// up without restarting.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/dom/snapshot"
	"github.com/johnharris85/fab-content-filter/internal/filtering/engine"
	"github.com/johnharris85/fab-content-filter/internal/filtering/watch"
	"github.com/johnharris85/fab-content-filter/internal/infra/settings"
)

// Config holds the runner configuration.
type Config struct {
	Snapshots []string
	Profile   config.SiteProfile
	Tuning    config.EngineConfig
}

// PageReport is the per-snapshot filtering summary exposed on /status
// and printed by the scan command.
type PageReport struct {
	Path       string         `json:"path"`
	Cards      int            `json:"cards"`
	Hidden     int            `json:"hidden"`
	Sellers    map[string]int `json:"sellers"`
	BadgeText  string         `json:"badge_text"`
	BadgeColor string         `json:"badge_color"`
}

// RecordedBadge implements engine.BadgeNotifier for headless runs: the
// last update is kept for reporting and logged at debug level.
type RecordedBadge struct {
	log *slog.Logger

	mu    sync.Mutex
	text  string
	color string
}

// NewRecordedBadge creates a badge recorder.
func NewRecordedBadge(log *slog.Logger) *RecordedBadge {
	return &RecordedBadge{log: log}
}

// UpdateBadge implements engine.BadgeNotifier.
func (b *RecordedBadge) UpdateBadge(text, color string) error {
	b.mu.Lock()
	b.text, b.color = text, color
	b.mu.Unlock()
	b.log.Debug("badge updated", "text", text, "color", color)
	return nil
}

// Last returns the most recent badge update.
func (b *RecordedBadge) Last() (text, color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.color
}

type page struct {
	path    string
	modTime time.Time
	doc     *snapshot.Document
	engine  *engine.Engine
	badge   *RecordedBadge
}

func (p *page) report() PageReport {
	text, color := p.badge.Last()
	return PageReport{
		Path:       p.path,
		Cards:      p.engine.CardCount(),
		Hidden:     p.engine.BlockedCount(),
		Sellers:    p.engine.SellerCounts(),
		BadgeText:  text,
		BadgeColor: color,
	}
}

// Runner manages one engine per snapshot file.
type Runner struct {
	cfg   Config
	store *settings.FileStore
	log   *slog.Logger

	mu           sync.Mutex
	pages        map[string]*page
	settingsTime time.Time
}

// NewRunner creates a runner. Pages are loaded on Run or ScanFile, not here.
func NewRunner(cfg Config, store *settings.FileStore, log *slog.Logger) *Runner {
	return &Runner{
		cfg:   cfg,
		store: store,
		log:   log.With("component", "runner"),
		pages: make(map[string]*page),
	}
}

// ScanFile runs a one-shot filter pass over a single snapshot and
// releases the engine before returning.
func (r *Runner) ScanFile(ctx context.Context, path string) (PageReport, error) {
	p, err := r.loadPage(ctx, path)
	if err != nil {
		return PageReport{}, err
	}
	report := p.report()
	p.engine.Cleanup()
	return report, nil
}

// Run loads every configured snapshot and polls for snapshot and
// settings changes until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.loadAll(ctx); err != nil {
		return err
	}

	poll := r.cfg.Tuning.RescanPoll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Stop()
			return nil
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

// Stop releases every engine.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pages {
		p.engine.Cleanup()
	}
	r.pages = make(map[string]*page)
}

// Reports returns the current per-page summaries, sorted by path.
func (r *Runner) Reports() []PageReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports := make([]PageReport, 0, len(r.pages))
	for _, p := range r.pages {
		reports = append(reports, p.report())
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports
}

func (r *Runner) loadAll(ctx context.Context) error {
	if info, err := os.Stat(r.store.Path()); err == nil {
		r.settingsTime = info.ModTime()
	}

	for _, path := range r.cfg.Snapshots {
		p, err := r.loadPage(ctx, path)
		if err != nil {
			r.Stop()
			return err
		}
		r.mu.Lock()
		r.pages[path] = p
		r.mu.Unlock()
		r.log.Info("snapshot loaded",
			"path", path,
			"cards", p.engine.CardCount(),
			"hidden", p.engine.BlockedCount())
	}
	return nil
}

func (r *Runner) loadPage(ctx context.Context, path string) (*page, error) {
	doc, err := snapshot.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot %s: %w", path, err)
	}

	badge := NewRecordedBadge(r.log)
	eng := engine.New(engine.Config{
		Document:  doc,
		Profile:   r.cfg.Profile,
		Tuning:    r.cfg.Tuning,
		Store:     r.store,
		Notifier:  badge,
		Scheduler: watch.NewTimerScheduler(),
		Logger:    r.log,
	})
	if err := eng.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize engine for %s: %w", path, err)
	}

	return &page{
		path:    path,
		modTime: info.ModTime(),
		doc:     doc,
		engine:  eng,
		badge:   badge,
	}, nil
}

// pollOnce applies settings edits to the running engines and reloads
// snapshots whose files changed on disk.
func (r *Runner) pollOnce(ctx context.Context) {
	r.reloadSettingsIfChanged(ctx)
	r.reloadSnapshotsIfChanged(ctx)
}

func (r *Runner) reloadSettingsIfChanged(ctx context.Context) {
	info, err := os.Stat(r.store.Path())
	if err != nil || !info.ModTime().After(r.settingsTime) {
		return
	}
	r.settingsTime = info.ModTime()

	loaded, err := r.store.Load(ctx)
	if err != nil {
		r.log.Warn("failed to reload settings", "error", err)
		return
	}
	r.log.Info("settings changed, re-filtering", "filtered", len(loaded.FilteredUsernames))

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pages {
		p.engine.OnFiltersUpdated(loaded.FilteredUsernames)
		p.engine.OnShowCountToggled(loaded.ShowBlockedCount)
	}
}

func (r *Runner) reloadSnapshotsIfChanged(ctx context.Context) {
	r.mu.Lock()
	stale := make([]*page, 0)
	for _, p := range r.pages {
		info, err := os.Stat(p.path)
		if err != nil {
			r.log.Warn("snapshot unreadable, keeping last state", "path", p.path, "error", err)
			continue
		}
		if info.ModTime().After(p.modTime) {
			stale = append(stale, p)
		}
	}
	r.mu.Unlock()

	for _, old := range stale {
		fresh, err := r.loadPage(ctx, old.path)
		if err != nil {
			r.log.Warn("failed to reload snapshot", "path", old.path, "error", err)
			continue
		}
		old.engine.Cleanup()
		r.mu.Lock()
		r.pages[old.path] = fresh
		r.mu.Unlock()
		r.log.Info("snapshot reloaded",
			"path", old.path,
			"cards", fresh.engine.CardCount(),
			"hidden", fresh.engine.BlockedCount())
	}
}
