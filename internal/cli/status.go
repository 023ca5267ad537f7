package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ordinalsplus/indexer-go/internal/control"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexing progress and resource counts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize indexer", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() { _ = app.Stop(context.Background()) }()

	stats, err := app.Stats(ctx)
	if err != nil {
		slog.Error("Failed to fetch stats", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Cursor:\t%d\n", stats.Cursor)
	fmt.Fprintf(w, "Active claims:\t%d\n", stats.ActiveClaims)
	fmt.Fprintf(w, "Ordinals Plus resources:\t%d\n", stats.OrdinalsTotal)

	subtypes := make([]string, 0, len(stats.OrdinalsBySubtype))
	for k := range stats.OrdinalsBySubtype {
		subtypes = append(subtypes, k)
	}
	sort.Strings(subtypes)
	for _, k := range subtypes {
		fmt.Fprintf(w, "  %s:\t%d\n", k, stats.OrdinalsBySubtype[k])
	}

	fmt.Fprintf(w, "Other inscriptions:\t%d\n", stats.NonOrdinalsTotal)
	fmt.Fprintf(w, "Errors:\t%d\n", stats.ErrorsTotal)
	w.Flush()
}
