//go:build js && wasm

package chrome

import (
	"syscall/js"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
)

// BadgeSender implements engine.BadgeNotifier from a content script:
// badge updates travel as runtime messages to the background script,
// which owns the action API.
type BadgeSender struct {
	runtime *Runtime
}

// NewBadgeSender creates a badge sender over the given runtime.
func NewBadgeSender(runtime *Runtime) *BadgeSender {
	return &BadgeSender{runtime: runtime}
}

// UpdateBadge implements engine.BadgeNotifier.
func (b *BadgeSender) UpdateBadge(text, color string) error {
	return b.runtime.SendMessage(domain.NewBadgeUpdate(text, color))
}

// Action wraps chrome.action badge rendering, available to the
// background script only.
type Action struct {
	action js.Value
}

// NewAction returns the extension's action binding.
func NewAction() *Action {
	return &Action{action: js.Global().Get("chrome").Get("action")}
}

// Render sets the badge text and background color for one tab.
func (a *Action) Render(tabID int, text, color string) {
	a.action.Call("setBadgeText", js.ValueOf(map[string]any{
		"text":  text,
		"tabId": tabID,
	}))
	if color != "" {
		a.action.Call("setBadgeBackgroundColor", js.ValueOf(map[string]any{
			"color": color,
			"tabId": tabID,
		}))
	}
}

// Tabs wraps chrome.tabs for the background relay.
type Tabs struct {
	tabs js.Value
}

// NewTabs returns the extension's tabs binding.
func NewTabs() *Tabs {
	return &Tabs{tabs: js.Global().Get("chrome").Get("tabs")}
}

// SendToActive forwards a JSON message to the active tab of the current
// window. Used to relay popup edits to the content script.
func (t *Tabs) SendToActive(data []byte) {
	msg := js.Global().Get("JSON").Call("parse", string(data))

	var callback js.Func
	callback = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer callback.Release()
		if len(args) == 0 {
			return nil
		}
		tabs := args[0]
		for i := 0; i < tabs.Length(); i++ {
			t.tabs.Call("sendMessage", tabs.Index(i).Get("id").Int(), msg)
		}
		return nil
	})

	query := js.ValueOf(map[string]any{"active": true, "currentWindow": true})
	t.tabs.Call("query", query, callback)
}
