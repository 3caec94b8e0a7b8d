package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCheckCmd creates the 'check' subcommand: one batch run over every
// due policy, results printed as JSON.
func newCheckCmd() *cobra.Command {
	var ownerID int64

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Runs one batch check over all due policies",
		Long: `Checks every active policy whose next check time has arrived. Each
policy is scraped, compared against its last snapshot, and, when it
changed, summarized and alerted. One result line is emitted per policy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			var owner *int64
			if ownerID > 0 {
				owner = &ownerID
			}

			results, err := app.batch.Run(cmd.Context(), owner)
			if err != nil {
				return fmt.Errorf("batch check: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "limit the run to one owner's policies")
	return cmd
}
