package cli

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
	"github.com/johnharris85/fab-content-filter/internal/infra/settings"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage the filtered seller list",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the filtered sellers",
	Run:   runFiltersList,
}

var filtersAddCmd = &cobra.Command{
	Use:   "add [username...]",
	Short: "Add sellers to the filter list",
	Args:  cobra.MinimumNArgs(1),
	Run:   runFiltersAdd,
}

var filtersRemoveCmd = &cobra.Command{
	Use:   "remove [username...]",
	Short: "Remove sellers from the filter list",
	Args:  cobra.MinimumNArgs(1),
	Run:   runFiltersRemove,
}

var filtersShowCountCmd = &cobra.Command{
	Use:       "show-count [on|off]",
	Short:     "Toggle the blocked count on the badge",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	Run:       runFiltersShowCount,
}

func init() {
	filtersCmd.AddCommand(filtersListCmd, filtersAddCmd, filtersRemoveCmd, filtersShowCountCmd)
	rootCmd.AddCommand(filtersCmd)
}

func openSettings() (*settings.FileStore, domain.Settings) {
	cfg := loadConfig()
	store := settings.NewFileStore(cfg.Settings)
	loaded, err := store.Load(context.Background())
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}
	return store, loaded
}

func saveSettings(store *settings.FileStore, s domain.Settings) {
	if err := store.Save(context.Background(), s); err != nil {
		slog.Error("Failed to save settings", "error", err)
		os.Exit(1)
	}
}

func runFiltersList(cmd *cobra.Command, args []string) {
	_, loaded := openSettings()

	if len(loaded.FilteredUsernames) == 0 {
		pterm.Info.Println("No sellers filtered")
		return
	}

	names := append([]string(nil), loaded.FilteredUsernames...)
	sort.Strings(names)
	items := lo.Map(names, func(name string, _ int) pterm.BulletListItem {
		return pterm.BulletListItem{Level: 0, Text: name}
	})
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

func runFiltersAdd(cmd *cobra.Command, args []string) {
	store, loaded := openSettings()

	loaded.FilteredUsernames = lo.Uniq(append(loaded.FilteredUsernames, args...))
	sort.Strings(loaded.FilteredUsernames)
	saveSettings(store, loaded)

	pterm.Success.Printfln("Filtering %d seller(s)", len(loaded.FilteredUsernames))
}

func runFiltersRemove(cmd *cobra.Command, args []string) {
	store, loaded := openSettings()

	loaded.FilteredUsernames = lo.Without(loaded.FilteredUsernames, args...)
	saveSettings(store, loaded)

	pterm.Success.Printfln("Filtering %d seller(s)", len(loaded.FilteredUsernames))
}

func runFiltersShowCount(cmd *cobra.Command, args []string) {
	store, loaded := openSettings()

	loaded.ShowBlockedCount = args[0] == "on"
	saveSettings(store, loaded)

	pterm.Success.Printfln("Badge count display: %s", args[0])
}
