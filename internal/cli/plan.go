// internal/cli/plan.go
package cli

import (
	"context"
	"fmt"

	"github.com/arc-language/cbridge/pkg/linkplan"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [libdir primary]",
	Short: "Print the link directives without compiling",
	Long: `Print the directives a prepare run would emit, without compiling or
writing anything. With two arguments, print the link order of the archives
in libdir with primary first.

Examples:
  cbridge plan
  cbridge plan /opt/aria2/lib aria2`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
		}
		return nil
	},
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 2 {
		plan, err := linkplan.PlanLinks(args[0], args[1])
		if err != nil {
			return err
		}
		for _, d := range plan {
			fmt.Fprintln(out, d.Name)
		}
		return nil
	}

	result, err := newBuilder(config).Plan(context.Background())
	if err != nil {
		return err
	}
	return result.Output.WriteText(out)
}
