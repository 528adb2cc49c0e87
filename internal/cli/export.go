package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportAll bool

var exportCmd = &cobra.Command{
	Use:   "export <map-id> <dir>",
	Short: "Export published versions to JSON files",
	Long: `Export a map's current version, or all versions with --all, as JSON
files named <map-id>_v<version>.json. Exported files can be fed to
'branchcast analyze'.

Examples:
  branchcast export housing-2030 ./backup
  branchcast export housing-2030 ./backup --all`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every published version")
}

func runExport(cmd *cobra.Command, args []string) error {
	mapID, dir := args[0], args[1]
	ctx := context.Background()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	var numbers []int
	if exportAll {
		versions, err := dbClient.ListVersions(ctx, mapID)
		if err != nil {
			return fmt.Errorf("list versions: %w", err)
		}
		for _, v := range versions {
			numbers = append(numbers, v.Version)
		}
	} else {
		m, err := dbClient.GetMap(ctx, mapID)
		if err != nil {
			return fmt.Errorf("get map: %w", err)
		}
		if m.CurrentVersion > 0 {
			numbers = append(numbers, m.CurrentVersion)
		}
	}

	if len(numbers) == 0 {
		fmt.Println("No versions to export.")
		return nil
	}

	for _, n := range numbers {
		v, err := dbClient.GetVersion(ctx, mapID, n)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_v%d.json", mapID, n))
		if err := writeVersionFile(path, v); err != nil {
			return err
		}
		if verbose {
			fmt.Printf("  %s\n", path)
		}
	}

	fmt.Printf("Exported %d version(s) to %s\n", len(numbers), dir)
	return nil
}
