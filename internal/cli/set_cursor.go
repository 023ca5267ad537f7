package cli

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ordinalsplus/indexer-go/internal/control"
)

var setCursorCmd = &cobra.Command{
	Use:   "set-cursor <inscription-number>",
	Short: "Move the shared cursor forward",
	Long:  `Advances the shared cursor to the given inscription number. The cursor never moves backward; a value at or below the current position is a no-op.`,
	Args:  cobra.ExactArgs(1),
	Run:   runSetCursor,
}

func init() {
	rootCmd.AddCommand(setCursorCmd)
}

func runSetCursor(cmd *cobra.Command, args []string) {
	value, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || value < 0 {
		slog.Error("Invalid inscription number", "arg", args[0])
		os.Exit(1)
	}

	cfg := loadConfig()

	app, err := control.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize indexer", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() { _ = app.Stop(context.Background()) }()

	cursor, err := app.SetCursor(ctx, value)
	if err != nil {
		slog.Error("Failed to set cursor", "error", err)
		os.Exit(1)
	}
	slog.Info("Cursor updated", "cursor", cursor)
}
