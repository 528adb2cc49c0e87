package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <map-id>",
	Short: "Show a map's generation status",
	Long: `Show the generation status of a map as recorded by the last run.

Examples:
  branchcast status housing-2030`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	m, err := dbClient.GetMap(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get map: %w", err)
	}

	fmt.Printf("Map: %v\n", m.ID.ID)
	if m.Name != "" {
		fmt.Printf("  Name: %s\n", m.Name)
	}
	fmt.Printf("  Status: %s\n", m.Status)
	if m.CurrentVersion > 0 {
		fmt.Printf("  Current version: %d\n", m.CurrentVersion)
	} else {
		fmt.Printf("  Current version: none\n")
	}
	fmt.Printf("  Updated: %s\n", m.UpdatedAt.Format(time.RFC3339))
	if m.LastError != nil && *m.LastError != "" {
		fmt.Printf("  Error: %s\n", *m.LastError)
	}
	return nil
}
