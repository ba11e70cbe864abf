// internal/cli/platform.go
package cli

import (
	"fmt"

	"github.com/arc-language/cbridge/pkg/platform"
	"github.com/arc-language/cbridge/pkg/registry"
	"github.com/spf13/cobra"
)

var platformLibsCmd = &cobra.Command{
	Use:   "platform-libs [target-os]",
	Short: "List the system libraries linked for a target",
	Long: `List the OS libraries appended when linking a local distribution.
Also shows the detected host package managers used for install hints.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlatformLibs,
}

func runPlatformLibs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	target := config.TargetOS
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		target = platform.TargetOS()
	}

	fmt.Fprintf(out, "Target: %s\n", platform.Family(target))
	libs := platform.Libraries(target)
	if len(libs) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, lib := range libs {
		fmt.Fprintf(out, "  %s\n", lib)
	}

	plat, err := platform.Detect()
	if err != nil {
		return nil
	}

	fmt.Fprintf(out, "\nHost: %s/%s\n", plat.OS, plat.Arch)
	for _, backend := range plat.Available {
		marker := " "
		if backend == plat.Preferred {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, backend)
	}
	fmt.Fprintf(out, "\nHint backends: %v\n", registry.Backends())

	return nil
}
