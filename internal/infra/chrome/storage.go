//go:build js && wasm

package chrome

import (
	"context"
	"syscall/js"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
)

// SyncStore reads settings from chrome.storage.sync. Writes happen in
// the popup; the content script only ever loads.
type SyncStore struct {
	chrome js.Value
}

// NewSyncStore returns the extension's synced settings store.
func NewSyncStore() *SyncStore {
	return &SyncStore{chrome: js.Global().Get("chrome")}
}

// Load implements engine.SettingsStore over the callback-shaped
// chrome.storage.sync.get API.
func (s *SyncStore) Load(ctx context.Context) (domain.Settings, error) {
	storage := s.chrome.Get("storage")
	if !storage.Truthy() {
		return domain.Settings{}, ErrRuntimeGone
	}

	result := make(chan domain.Settings, 1)
	var callback js.Func
	callback = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer callback.Release()

		var settings domain.Settings
		if len(args) > 0 {
			items := args[0]
			if v := items.Get(domain.KeyFilteredUsernames); v.Truthy() {
				for i := 0; i < v.Length(); i++ {
					settings.FilteredUsernames = append(settings.FilteredUsernames, v.Index(i).String())
				}
			}
			if v := items.Get(domain.KeyShowBlockedCount); !v.IsUndefined() {
				settings.ShowBlockedCount = v.Truthy()
			}
		}
		result <- settings
		return nil
	})

	keys := js.ValueOf([]any{domain.KeyFilteredUsernames, domain.KeyShowBlockedCount})
	storage.Get("sync").Call("get", keys, callback)

	select {
	case settings := <-result:
		return settings, nil
	case <-ctx.Done():
		return domain.Settings{}, ctx.Err()
	}
}
