package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <map-id>",
	Short: "List published versions of a map",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	versions, err := dbClient.ListVersions(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	if len(versions) == 0 {
		fmt.Printf("No versions published for %s.\n", args[0])
		return nil
	}

	fmt.Printf("%-8s %-18s %8s %8s  %s\n", "VERSION", "MODEL", "NODES", "PATHS", "GENERATED")
	fmt.Println("------------------------------------------------------------------------")
	for _, v := range versions {
		fmt.Printf("%-8d %-18s %8d %8d  %s\n",
			v.Version, v.Model, v.TotalNodes, v.TotalPaths, v.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
