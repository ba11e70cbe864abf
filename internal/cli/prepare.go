// internal/cli/prepare.go
package cli

import (
	"context"
	"fmt"

	"github.com/arc-language/cbridge"
	"github.com/spf13/cobra"
)

var prepareForce bool

// newBuilder creates the Builder used by prepare, plan and check
var newBuilder = cbridge.New

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Resolve the library, compile the bridge and write build outputs",
	Long: `Resolve the configured library, compile the bridge and write the
directive stream, the generated cgo file and the rerun stamp.
When no trigger or override changed since the last run, the recorded
directives are printed again and nothing is rebuilt.

Set the override variable (LIBARIA2_DIR by default) to a distribution
tree or a .tar.xz/.tgz/.nar archive to skip pkg-config.

Examples:
  cbridge prepare
  LIBARIA2_DIR=/opt/aria2 cbridge prepare --target-os=windows`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().BoolVar(&prepareForce, "force", false, "run even when no trigger changed")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	b := newBuilder(config)
	b.Stdout = cmd.OutOrStdout()

	if !prepareForce {
		reused, err := b.Reuse()
		if err != nil {
			return fmt.Errorf("checking triggers: %w", err)
		}
		if reused {
			fmt.Fprintln(cmd.ErrOrStderr(), "bridge is up to date")
			return nil
		}
	}

	result, err := b.Prepare(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Built %s (%s)\n", result.Artifact.Archive, result.Resolution.Strategy)
	return nil
}
