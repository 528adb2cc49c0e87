package cli

import (
	"context"
	"os"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/spf13/cobra"
)

var (
	showVersion int
	showFormat  string
	showTop     int
)

var showCmd = &cobra.Command{
	Use:   "show <map-id>",
	Short: "Show a published tree version",
	Long: `Show the current (or a specific) tree version of a map.

Examples:
  branchcast show housing-2030
  branchcast show housing-2030 --version 3
  branchcast show housing-2030 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().IntVar(&showVersion, "version", 0, "version number (default current)")
	showCmd.Flags().StringVar(&showFormat, "format", formatText, "output format: text, json, yaml")
	showCmd.Flags().IntVarP(&showTop, "top", "n", 10, "paths to list in text output (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var v *models.TreeVersion
	var err error
	if showVersion > 0 {
		v, err = dbClient.GetVersion(ctx, args[0], showVersion)
	} else {
		v, err = dbClient.CurrentVersion(ctx, args[0])
	}
	if err != nil {
		return err
	}

	return writeVersion(os.Stdout, v, showFormat, showTop)
}
