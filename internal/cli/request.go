package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/branchcast/internal/validation"
	"github.com/spf13/cobra"
)

var requestReq requestFlags

var requestCmd = &cobra.Command{
	Use:   "request <map-id>",
	Short: "Queue a generation for the worker",
	Long: `Queue a generation request. branchcast-worker picks it up, generates the
tree and marks the request completed, failed or rejected.

Examples:
  branchcast request housing-2030
  branchcast request housing-2030 --model monte_carlo --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	requestReq.bind(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	req := requestReq.request(cmd)
	if err := validation.ValidateRequest(req.WithDefaults()); err != nil {
		return err
	}

	if _, err := dbClient.GetMap(ctx, args[0]); err != nil {
		return fmt.Errorf("get map: %w", err)
	}

	qr, err := dbClient.CreateRequest(ctx, args[0], req)
	if err != nil {
		return fmt.Errorf("queue request: %w", err)
	}

	fmt.Printf("Queued request %v for map %s\n", qr.ID.ID, args[0])
	return nil
}
