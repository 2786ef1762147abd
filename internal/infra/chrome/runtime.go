//go:build js && wasm

// Package chrome wraps the extension APIs the filter needs: runtime
// messaging, synced settings storage, the action badge and tab lookup.
// Everything here is a thin js.Value shim; decoding and decisions live in
// the domain and engine packages.
package chrome

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"
)

// ErrRuntimeGone is returned when the extension context has been
// invalidated, typically after an extension reload while the page is
// still open.
var ErrRuntimeGone = errors.New("extension runtime is gone")

// Runtime wraps chrome.runtime messaging.
type Runtime struct {
	chrome js.Value
}

// NewRuntime returns the page's chrome.runtime binding.
func NewRuntime() *Runtime {
	return &Runtime{chrome: js.Global().Get("chrome")}
}

// Valid reports whether the extension context is still alive. The
// runtime id disappears when the extension is reloaded or removed.
func (r *Runtime) Valid() bool {
	if !r.chrome.Truthy() {
		return false
	}
	runtime := r.chrome.Get("runtime")
	return runtime.Truthy() && runtime.Get("id").Truthy()
}

// SendMessage JSON-encodes the payload and posts it through
// chrome.runtime.sendMessage.
func (r *Runtime) SendMessage(payload any) error {
	if !r.Valid() {
		return ErrRuntimeGone
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	msg := js.Global().Get("JSON").Call("parse", string(data))
	r.chrome.Get("runtime").Call("sendMessage", msg)
	return nil
}

// OnMessage registers a runtime message listener. The handler receives
// the message re-encoded as JSON plus the sender's tab id, or -1 when
// the message did not come from a tab. The returned func removes the
// listener and releases the callback.
func (r *Runtime) OnMessage(handler func(data []byte, tabID int)) func() {
	listener := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		raw := js.Global().Get("JSON").Call("stringify", args[0]).String()

		tabID := -1
		if len(args) > 1 {
			if tab := args[1].Get("tab"); tab.Truthy() {
				tabID = tab.Get("id").Int()
			}
		}
		handler([]byte(raw), tabID)
		return nil
	})

	onMessage := r.chrome.Get("runtime").Get("onMessage")
	onMessage.Call("addListener", listener)
	return func() {
		onMessage.Call("removeListener", listener)
		listener.Release()
	}
}
