package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/branchcast/internal/parser"
	"github.com/spf13/cobra"
)

var (
	importMapID   string
	importName    string
	importReplace bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an extract into a map",
	Long: `Import observed transitions from a YAML, JSON or Markdown extract file.

The map ID defaults to the file's map_id field, then to the file name.
Without --replace the transitions are appended to the map's existing ones.

Examples:
  branchcast import ./extracts/housing.yaml
  branchcast import ./brief.md --map housing-2030
  branchcast import ./extract.json --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importMapID, "map", "m", "", "target map ID")
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "map display name")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace existing transitions")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := parser.LoadExtract(args[0])
	if err != nil {
		return err
	}

	mapID := f.MapID
	if importMapID != "" {
		mapID = importMapID
	}
	name := f.Name
	if importName != "" {
		name = importName
	}
	if name == "" {
		name = mapID
	}

	n, err := dbClient.ImportExtract(ctx, mapID, name, &f.Extract, importReplace)
	if err != nil {
		return fmt.Errorf("import extract: %w", err)
	}

	fmt.Printf("Imported %d transitions into map %q\n", n, mapID)
	return nil
}
