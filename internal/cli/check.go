// internal/cli/check.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the bridge must be prepared again",
	Long:  `List the rerun triggers changed since the last successful prepare. Exits non-zero when any changed.`,
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	changed, err := newBuilder(config).Check()
	if err != nil {
		return err
	}

	if len(changed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "up to date")
		return nil
	}

	for _, path := range changed {
		fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", path)
	}
	return fmt.Errorf("%d trigger(s) changed, run cbridge prepare", len(changed))
}
