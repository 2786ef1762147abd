package cli

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/johnharris85/fab-content-filter/internal/control"
	"github.com/johnharris85/fab-content-filter/internal/infra/settings"
)

var scanCmd = &cobra.Command{
	Use:   "scan [snapshot...]",
	Short: "Filter HTML snapshots once and print a report",
	Run:   runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	paths := args
	if len(paths) == 0 {
		paths = cfg.Snapshots
	}
	if len(paths) == 0 {
		slog.Error("No snapshots given and none configured")
		os.Exit(1)
	}

	store := settings.NewFileStore(cfg.Settings)
	runner := control.NewRunner(control.Config{
		Profile: cfg.Profile,
		Tuning:  cfg.Engine,
	}, store, slog.Default())

	ctx := context.Background()
	reports := make([]control.PageReport, 0, len(paths))
	for _, path := range paths {
		report, err := runner.ScanFile(ctx, path)
		if err != nil {
			slog.Error("Scan failed", "path", path, "error", err)
			os.Exit(1)
		}
		reports = append(reports, report)
	}

	data := pterm.TableData{{"SNAPSHOT", "CARDS", "HIDDEN", "SELLERS"}}
	for _, r := range reports {
		data = append(data, []string{
			r.Path,
			strconv.Itoa(r.Cards),
			strconv.Itoa(r.Hidden),
			sellerSummary(r.Sellers),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		slog.Error("Failed to render report", "error", err)
		os.Exit(1)
	}

	totalCards := lo.SumBy(reports, func(r control.PageReport) int { return r.Cards })
	totalHidden := lo.SumBy(reports, func(r control.PageReport) int { return r.Hidden })
	pterm.Success.Printfln("Hidden %d of %d cards across %d snapshot(s)", totalHidden, totalCards, len(reports))
}

func sellerSummary(counts map[string]int) string {
	names := lo.Keys(counts)
	sort.Strings(names)
	parts := lo.Map(names, func(name string, _ int) string {
		return name + ":" + strconv.Itoa(counts[name])
	})
	return strings.Join(parts, " ")
}
