//go:build js && wasm

package main

import (
	"context"
	"log/slog"

	"github.com/vietddude/stylelog"

	"github.com/johnharris85/fab-content-filter/internal/core/config"
	"github.com/johnharris85/fab-content-filter/internal/dom/browser"
	"github.com/johnharris85/fab-content-filter/internal/filtering/engine"
	"github.com/johnharris85/fab-content-filter/internal/infra/chrome"
)

func main() {
	stylelog.InitDefault()

	runtime := chrome.NewRuntime()
	if !runtime.Valid() {
		slog.Warn("Extension runtime unavailable, filter not started")
		return
	}

	eng := engine.New(engine.Config{
		Document:  browser.NewDocument(),
		Profile:   config.DefaultProfile(),
		Tuning:    config.DefaultEngine(),
		Store:     chrome.NewSyncStore(),
		Notifier:  chrome.NewBadgeSender(runtime),
		Scheduler: chrome.NewTimeoutScheduler(),
		Frame:     chrome.AnimationFrame,
		Logger:    slog.Default(),
	})

	if err := eng.Initialize(context.Background()); err != nil {
		slog.Error("Failed to initialize filter engine", "error", err)
		return
	}

	removeListener := runtime.OnMessage(func(data []byte, _ int) {
		// Decode errors are already logged and counted by the engine.
		_ = eng.HandleRaw(data)
	})
	defer removeListener()

	slog.Info("Seller filter active",
		"filtered", eng.BlockedCount(),
		"cards", eng.CardCount())

	// Keep the WASM module alive for callbacks.
	select {}
}
