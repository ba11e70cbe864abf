// internal/cli/root.go
package cli

import (
	"fmt"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/pkg/core"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	targetOS  string
	debug     bool
	config    *core.Config
	configErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cbridge",
	Short: "Prepare a native bridge to a pre-built C/C++ library",
	Long: `cbridge - native bridge preparation for cgo

Locates a third-party library through pkg-config or a local distribution
tree, plans the static link order, compiles the bridging translation unit
and writes the flags the Go build needs.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		return log.SetDebug(config.Debug)
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cbridge.yaml)")
	rootCmd.PersistentFlags().StringVar(&targetOS, "target-os", "", "target OS or triple (default is $CBRIDGE_TARGET_OS, $GOOS or the host)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(platformLibsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	config, configErr = core.LoadConfig(cfgFile)
	if configErr != nil {
		configErr = fmt.Errorf("loading config: %w", configErr)
		config = core.DefaultConfig()
		return
	}

	// Override config with flags
	if targetOS != "" {
		config.TargetOS = targetOS
	}
	if debug {
		config.Debug = true
	}
}
