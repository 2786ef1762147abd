package domain

// Storage keys for the synced settings store. The popup writes these,
// the content script only reads them.
const (
	KeyFilteredUsernames = "filteredUsernames"
	KeyShowBlockedCount  = "showBlockedCount"
)

// Settings holds the persisted user preferences consumed at startup.
type Settings struct {
	FilteredUsernames []string `json:"filteredUsernames" yaml:"filtered_usernames"`
	ShowBlockedCount  bool     `json:"showBlockedCount" yaml:"show_blocked_count"`
}
