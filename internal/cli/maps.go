package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List outcome maps",
	Args:  cobra.NoArgs,
	RunE:  runMaps,
}

func runMaps(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	maps, err := dbClient.ListMaps(ctx)
	if err != nil {
		return fmt.Errorf("list maps: %w", err)
	}

	if len(maps) == 0 {
		fmt.Println("No maps found.")
		return nil
	}

	fmt.Printf("Maps (%d):\n\n", len(maps))
	for _, m := range maps {
		fmt.Printf("- %v [%s] v%d\n", m.ID.ID, m.Status, m.CurrentVersion)
		if verbose {
			if m.Name != "" {
				fmt.Printf("  Name: %s\n", m.Name)
			}
			if len(m.SeedContext) > 0 {
				fmt.Printf("  Seed context: %v\n", m.SeedContext)
			}
		}
	}
	return nil
}
