//go:build js && wasm

package main

import (
	"log/slog"

	"github.com/vietddude/stylelog"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
	"github.com/johnharris85/fab-content-filter/internal/infra/chrome"
)

// The background script owns the action badge and relays popup edits to
// the page. Content scripts cannot touch chrome.action themselves, so
// badge updates arrive here as runtime messages tagged with the sending
// tab.
func main() {
	stylelog.InitDefault()

	runtime := chrome.NewRuntime()
	action := chrome.NewAction()
	tabs := chrome.NewTabs()

	removeListener := runtime.OnMessage(func(data []byte, tabID int) {
		if badge, err := domain.DecodeBadgeUpdate(data); err == nil {
			if tabID < 0 {
				slog.Debug("Badge update without a sending tab dropped")
				return
			}
			action.Render(tabID, badge.Text, badge.Color)
			return
		}

		// Popup edits carry no tab; forward them to the active page.
		if _, err := domain.DecodeInbound(data); err == nil && tabID < 0 {
			tabs.SendToActive(data)
		}
	})
	defer removeListener()

	slog.Info("Badge relay active")
	select {}
}
